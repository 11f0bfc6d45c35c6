package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"launchkit/internal/domain"
)

// BadgerRepository implements the Repository interface using BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerRepository creates and initializes a new BadgerDB repository.
// It opens the database at the specified path.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.Info("BadgerDB opened successfully at path: ", dbPath)

	return &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
	}, nil
}

// Close closes the BadgerDB database connection.
func (r *BadgerRepository) Close() error {
	r.log.Info("Closing BadgerDB...")
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Info("BadgerDB closed.")
	return nil
}

// Key layout:
//
//	user:{userID}:project:{projectID}     -> Project
//	project:{projectID}:post:{platformID} -> GeneratedPost
//	project:{projectID}:msg:{nanos}       -> ChatMessage
//
// Project IDs are ULIDs, so a user's project keys sort by creation time.
// Post keys carry the platform id, which makes regeneration an overwrite.
// Message keys carry zero-padded creation nanos, so a prefix scan yields
// the transcript in causal order.
func projectKey(userID int64, projectID string) []byte {
	return []byte(fmt.Sprintf("user:%d:project:%s", userID, projectID))
}

func userProjectPrefix(userID int64) []byte {
	return []byte(fmt.Sprintf("user:%d:project:", userID))
}

func postKey(projectID, platformID string) []byte {
	return []byte(fmt.Sprintf("project:%s:post:%s", projectID, platformID))
}

func postPrefix(projectID string) []byte {
	return []byte(fmt.Sprintf("project:%s:post:", projectID))
}

func messageKey(projectID string, ts time.Time) []byte {
	return []byte(fmt.Sprintf("project:%s:msg:%020d", projectID, ts.UnixNano()))
}

func messagePrefix(projectID string) []byte {
	return []byte(fmt.Sprintf("project:%s:msg:", projectID))
}

func projectScopePrefix(projectID string) []byte {
	return []byte(fmt.Sprintf("project:%s:", projectID))
}

// SaveProject stores or updates a project in BadgerDB.
func (r *BadgerRepository) SaveProject(ctx context.Context, project domain.Project) error {
	log := r.log.WithFields(logrus.Fields{
		"user_id":    project.UserID,
		"project_id": project.ID,
	})
	log.Info("Attempting to save project")

	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}
	if project.UpdatedAt.IsZero() {
		project.UpdatedAt = time.Now()
	}

	projectBytes, err := json.Marshal(project)
	if err != nil {
		log.WithError(err).Error("Failed to marshal project to JSON")
		return fmt.Errorf("%w: failed to marshal project: %v", domain.ErrPersistence, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(projectKey(project.UserID, project.ID), projectBytes))
	})
	if err != nil {
		log.WithError(err).Error("Failed to save project to BadgerDB")
		return fmt.Errorf("%w: failed to save project: %v", domain.ErrPersistence, err)
	}

	log.Info("Project saved successfully")
	return nil
}

// GetProject retrieves a single project for a user.
func (r *BadgerRepository) GetProject(ctx context.Context, userID int64, projectID string) (domain.Project, error) {
	var project domain.Project

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(projectKey(userID, projectID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &project)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Project{}, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}
	if err != nil {
		r.log.WithError(err).WithField("project_id", projectID).Error("Failed to retrieve project from BadgerDB")
		return domain.Project{}, fmt.Errorf("%w: failed to get project %s: %v", domain.ErrPersistence, projectID, err)
	}
	return project, nil
}

// ListProjectsByUser retrieves all projects for a user, newest update first.
func (r *BadgerRepository) ListProjectsByUser(ctx context.Context, userID int64) ([]domain.Project, error) {
	log := r.log.WithField("user_id", userID)
	log.Info("Attempting to list projects for user")

	var projects []domain.Project

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := userProjectPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var project domain.Project
				if err := json.Unmarshal(val, &project); err != nil {
					log.WithError(err).WithField("key", string(item.Key())).Error("Failed to unmarshal project from DB")
					return fmt.Errorf("failed to unmarshal project data for key %s: %w", string(item.Key()), err)
				}
				projects = append(projects, project)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to list projects from BadgerDB")
		return nil, fmt.Errorf("%w: failed to list projects for user %d: %v", domain.ErrPersistence, userID, err)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})

	log.WithField("project_count", len(projects)).Info("Projects listed successfully")
	return projects, nil
}

// DeleteProject removes a project and cascades to its posts and messages.
func (r *BadgerRepository) DeleteProject(ctx context.Context, userID int64, projectID string) error {
	log := r.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"project_id": projectID,
	})
	log.Info("Attempting to delete project")

	err := r.db.Update(func(txn *badger.Txn) error {
		// Collect dependent keys first; deleting while iterating the same
		// prefix is not safe.
		var keys [][]byte
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		prefix := projectScopePrefix(projectID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return txn.Delete(projectKey(userID, projectID))
	})
	if err != nil {
		log.WithError(err).Error("Failed to delete project from BadgerDB")
		return fmt.Errorf("%w: failed to delete project %s: %v", domain.ErrPersistence, projectID, err)
	}

	log.Info("Project deleted successfully")
	return nil
}

// SavePost stores a generated post, replacing any prior post for the same
// (project, platform) pair.
func (r *BadgerRepository) SavePost(ctx context.Context, post domain.GeneratedPost) error {
	log := r.log.WithFields(logrus.Fields{
		"project_id":  post.ProjectID,
		"platform_id": post.PlatformID,
	})
	log.Info("Attempting to save post")

	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	postBytes, err := json.Marshal(post)
	if err != nil {
		log.WithError(err).Error("Failed to marshal post to JSON")
		return fmt.Errorf("%w: failed to marshal post: %v", domain.ErrPersistence, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(postKey(post.ProjectID, post.PlatformID), postBytes))
	})
	if err != nil {
		log.WithError(err).Error("Failed to save post to BadgerDB")
		return fmt.Errorf("%w: failed to save post: %v", domain.ErrPersistence, err)
	}

	log.Info("Post saved successfully")
	return nil
}

// GetPostsByProject retrieves all posts for a project, oldest first.
func (r *BadgerRepository) GetPostsByProject(ctx context.Context, projectID string) ([]domain.GeneratedPost, error) {
	log := r.log.WithField("project_id", projectID)

	var posts []domain.GeneratedPost

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := postPrefix(projectID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var post domain.GeneratedPost
				if err := json.Unmarshal(val, &post); err != nil {
					log.WithError(err).WithField("key", string(item.Key())).Error("Failed to unmarshal post from DB")
					return fmt.Errorf("failed to unmarshal post data for key %s: %w", string(item.Key()), err)
				}
				posts = append(posts, post)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to retrieve posts from BadgerDB")
		return nil, fmt.Errorf("%w: failed to get posts for project %s: %v", domain.ErrPersistence, projectID, err)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})

	log.WithField("post_count", len(posts)).Debug("Posts retrieved successfully")
	return posts, nil
}

// AppendMessage appends a chat message to a project's transcript.
func (r *BadgerRepository) AppendMessage(ctx context.Context, msg domain.ChatMessage) error {
	log := r.log.WithFields(logrus.Fields{
		"project_id": msg.ProjectID,
		"role":       msg.Role,
	})

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Error("Failed to marshal message to JSON")
		return fmt.Errorf("%w: failed to marshal message: %v", domain.ErrPersistence, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(messageKey(msg.ProjectID, msg.Timestamp), msgBytes))
	})
	if err != nil {
		log.WithError(err).Error("Failed to save message to BadgerDB")
		return fmt.Errorf("%w: failed to save message: %v", domain.ErrPersistence, err)
	}

	log.Debug("Message appended successfully")
	return nil
}

// GetMessagesByProject retrieves a project's transcript, oldest first. The
// key encoding already sorts by creation time, so iteration order is the
// transcript order.
func (r *BadgerRepository) GetMessagesByProject(ctx context.Context, projectID string) ([]domain.ChatMessage, error) {
	log := r.log.WithField("project_id", projectID)

	var messages []domain.ChatMessage

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := messagePrefix(projectID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var msg domain.ChatMessage
				if err := json.Unmarshal(val, &msg); err != nil {
					log.WithError(err).WithField("key", string(item.Key())).Error("Failed to unmarshal message from DB")
					return fmt.Errorf("failed to unmarshal message data for key %s: %w", string(item.Key()), err)
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to retrieve messages from BadgerDB")
		return nil, fmt.Errorf("%w: failed to get messages for project %s: %v", domain.ErrPersistence, projectID, err)
	}

	log.WithField("message_count", len(messages)).Debug("Messages retrieved successfully")
	return messages, nil
}

// --- BadgerDB Internal Logger ---

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
