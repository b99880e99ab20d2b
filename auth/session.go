package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"telewarp/models"
	"telewarp/storage"
)

// CookieName is the session cookie.
const CookieName = "tw_session"

// SessionTTL is how long a signed-in session stays valid.
const SessionTTL = 7 * 24 * time.Hour

// CreateSession stores a new session and returns its token and expiry.
func CreateSession(ctx context.Context, store storage.Store, username string) (token string, expires time.Time, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate session token: %w", err)
	}
	token = hex.EncodeToString(raw)
	expires = time.Now().Add(SessionTTL)

	session := models.Session{Username: username, Expires: expires.UnixMilli()}
	value, err := json.Marshal(session)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := store.Put(ctx, storage.SessionPrefix+token, value); err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// LookupSession resolves a token to its session, or nil if the token
// is unknown, malformed or expired.
func LookupSession(ctx context.Context, store storage.Store, token string) *models.Session {
	if token == "" {
		return nil
	}
	raw, err := store.Get(ctx, storage.SessionPrefix+token)
	if err != nil {
		return nil
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil
	}
	if !Valid(&session, time.Now()) {
		return nil
	}
	return &session
}

// Valid reports whether the session is unexpired at the given time.
func Valid(session *models.Session, now time.Time) bool {
	return now.UnixMilli() < session.Expires
}
