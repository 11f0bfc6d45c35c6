package storage

import (
	"context"
	"errors"

	"launchkit/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository defines the interface for data storage operations.
// This allows us to swap storage implementations (e.g., BadgerDB, PostgreSQL)
// without changing the core application logic that uses it.
type Repository interface {
	// SaveProject stores a new project or updates an existing one. The
	// combination of UserID and project ID is unique.
	SaveProject(ctx context.Context, project domain.Project) error

	// GetProject retrieves one project; ErrNotFound when absent.
	GetProject(ctx context.Context, userID int64, projectID string) (domain.Project, error)

	// ListProjectsByUser retrieves all projects owned by a user, newest
	// update first.
	ListProjectsByUser(ctx context.Context, userID int64) ([]domain.Project, error)

	// DeleteProject removes a project and cascades to its posts and chat
	// messages.
	DeleteProject(ctx context.Context, userID int64, projectID string) error

	// SavePost stores a generated post. One record exists per (project,
	// platform): regenerating replaces rather than appending.
	SavePost(ctx context.Context, post domain.GeneratedPost) error

	// GetPostsByProject retrieves a project's posts ordered by creation
	// time ascending.
	GetPostsByProject(ctx context.Context, projectID string) ([]domain.GeneratedPost, error)

	// AppendMessage appends one chat message to a project's transcript.
	AppendMessage(ctx context.Context, msg domain.ChatMessage) error

	// GetMessagesByProject retrieves a project's transcript in creation
	// order, oldest first.
	GetMessagesByProject(ctx context.Context, projectID string) ([]domain.ChatMessage, error)

	// Close gracefully shuts down the repository connection.
	Close() error
}
