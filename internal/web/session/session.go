// Package session keeps login sessions in a fiber.Storage backend.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// bearerPrefix starts an Authorization header carrying a session ID.
const bearerPrefix = "Bearer "

// idBytes is the entropy of a session ID, 256 bits.
const idBytes = 32

// ErrSessionNotFound is returned by Read for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Data represents the session data structure.
type Data struct {
	UserID    uint64    `json:"userId"`
	TenantID  uint      `json:"tenantId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store reads and writes session data.
type Store struct {
	store  *session.Store
	expiry time.Duration
}

// New creates a session store on storage. A nil storage keeps sessions in memory.
func New(storage fiber.Storage, expiry time.Duration) *Store {
	return &Store{
		store: session.New(session.Config{
			Storage:    storage,
			Expiration: expiry,
			KeyLookup:  "cookie:" + CookieName,
		}),
		expiry: expiry,
	}
}

// Expiry returns the lifetime of new sessions.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Write stores data under sessionID.
func (s *Store) Write(sessionID string, data Data) error {
	out, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.store.Storage.Set(sessionID, out, s.expiry)
}

// Read returns the data stored under sessionID.
func (s *Store) Read(sessionID string) (Data, error) {
	var data Data

	if sessionID == "" {
		return data, ErrSessionNotFound
	}

	raw, err := s.store.Storage.Get(sessionID)
	if err != nil {
		return data, fmt.Errorf("failed to read session: %w", err)
	}

	if len(raw) == 0 {
		return data, ErrSessionNotFound
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("failed to decode session: %w", err)
	}

	return data, nil
}

// Delete removes a session.
func (s *Store) Delete(sessionID string) error {
	if sessionID == "" {
		return nil
	}

	return s.store.Storage.Delete(sessionID)
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// FromRequest returns the session ID of the request, from the session cookie or else
// from an "Authorization: Bearer" header.
func FromRequest(c *fiber.Ctx) string {
	if id := c.Cookies(CookieName); id != "" {
		return id
	}

	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}

	return ""
}
