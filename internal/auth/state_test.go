package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSigner(t *testing.T) {
	s, err := NewStateSigner("session-secret")
	require.NoError(t, err)

	state, err := s.New("google")
	require.NoError(t, err)

	assert.NoError(t, s.Verify(state, state, "google"))

	// Bound to the provider that started the handshake
	assert.ErrorIs(t, s.Verify(state, state, "facebook"), ErrInvalidState)

	// Cookie copy must match
	assert.ErrorIs(t, s.Verify(state, "", "google"), ErrInvalidState)
	assert.ErrorIs(t, s.Verify("", "", "google"), ErrInvalidState)

	other, err := NewStateSigner("other-secret")
	require.NoError(t, err)
	assert.ErrorIs(t, other.Verify(state, state, "google"), ErrInvalidState)

	second, err := s.New("google")
	require.NoError(t, err)
	assert.NotEqual(t, state, second)
}

func TestStateSigner_Expired(t *testing.T) {
	s, err := NewStateSigner("session-secret")
	require.NoError(t, err)

	start := time.Now()
	s.now = func() time.Time { return start }

	state, err := s.New("google")
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(StateTTL + time.Minute) }
	assert.ErrorIs(t, s.Verify(state, state, "google"), ErrInvalidState)
}

func TestNewStateSigner_RequiresSecret(t *testing.T) {
	_, err := NewStateSigner("")
	assert.Error(t, err)
}
