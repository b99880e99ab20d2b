package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telewarp/models"
	"telewarp/storage"
)

func TestHashAndVerifyPassword(t *testing.T) {
	salt, hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.Len(t, salt, 32) // 16 bytes hex-encoded
	assert.Len(t, hash, 128)

	assert.True(t, VerifyPassword("correct horse battery staple", salt, hash))
	assert.False(t, VerifyPassword("wrong password", salt, hash))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	salt1, hash1, err := HashPassword("password123")
	require.NoError(t, err)
	salt2, hash2, err := HashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
}

func TestSessionLifecycle(t *testing.T) {
	store := storage.NewTestStore(t)
	ctx := context.Background()

	token, expires, err := CreateSession(ctx, store, "alice")
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.WithinDuration(t, time.Now().Add(SessionTTL), expires, time.Minute)

	session := LookupSession(ctx, store, token)
	require.NotNil(t, session)
	assert.Equal(t, "alice", session.Username)

	assert.Nil(t, LookupSession(ctx, store, "unknown-token"))
	assert.Nil(t, LookupSession(ctx, store, ""))
}

func TestLookupSession_Expired(t *testing.T) {
	store := storage.NewTestStore(t)
	ctx := context.Background()

	expired := models.Session{Username: "alice", Expires: time.Now().Add(-time.Hour).UnixMilli()}
	value, err := json.Marshal(expired)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, storage.SessionPrefix+"stale", value))

	assert.Nil(t, LookupSession(ctx, store, "stale"))
}

func TestValid(t *testing.T) {
	now := time.Now()
	session := &models.Session{Expires: now.Add(time.Minute).UnixMilli()}

	assert.True(t, Valid(session, now))
	assert.False(t, Valid(session, now.Add(2*time.Minute)))
}
