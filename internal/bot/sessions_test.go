package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistry_SerializesPerChat(t *testing.T) {
	reg := newSessionRegistry()

	sess, ok := reg.acquire(42)
	require.True(t, ok)

	// A second request for the same chat is refused while the first holds
	// the session.
	_, ok = reg.acquire(42)
	assert.False(t, ok)

	// Other chats are independent.
	other, ok := reg.acquire(43)
	require.True(t, ok)
	reg.release(other)

	reg.release(sess)

	// Released sessions can be acquired again, state intact.
	sess.projectID = "p1"
	again, ok := reg.acquire(42)
	require.True(t, ok)
	assert.Equal(t, "p1", again.projectID)
	reg.release(again)
}
