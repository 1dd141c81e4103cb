package pagination

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/narwhalmedia/ottcore/pkg/errors"
)

// Cursor represents pagination cursor data. Offset cursors use Offset;
// keyset cursors carry the sort key of the last row served.
type Cursor struct {
	Offset    int       `json:"offset,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	AfterTime time.Time `json:"after_time,omitempty"`
	AfterID   string    `json:"after_id,omitempty"`
}

// CursorEncoder handles cursor encryption/decryption
type CursorEncoder struct {
	cipher cipher.Block
	maxAge time.Duration
}

// NewCursorEncoder creates a new cursor encoder with the given key
func NewCursorEncoder(key []byte) (*CursorEncoder, error) {
	// Ensure key is exactly 32 bytes for AES-256
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes for AES-256")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &CursorEncoder{
		cipher: block,
		maxAge: 24 * time.Hour,
	}, nil
}

// NewRandomCursorEncoder creates an encoder with an ephemeral key. Tokens do
// not survive a restart.
func NewRandomCursorEncoder() (*CursorEncoder, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate cursor key: %w", err)
	}
	return NewCursorEncoder(key)
}

// WithMaxAge sets how long issued tokens stay valid.
func (e *CursorEncoder) WithMaxAge(d time.Duration) *CursorEncoder {
	if d > 0 {
		e.maxAge = d
	}
	return e
}

// EncodeCursor encrypts and encodes a cursor to a base64 string
func (e *CursorEncoder) EncodeCursor(cursor *Cursor) (string, error) {
	plaintext, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	gcm, err := cipher.NewGCM(e.cipher)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// DecodeCursor decrypts and decodes a cursor from a base64 string
func (e *CursorEncoder) DecodeCursor(encoded string) (*Cursor, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	gcm, err := cipher.NewGCM(e.cipher)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(plaintext, &cursor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cursor: %w", err)
	}

	return &cursor, nil
}

// DecodePageToken decodes a client-supplied token. An empty token yields a
// nil cursor. Malformed or expired tokens are bad requests.
func (e *CursorEncoder) DecodePageToken(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	cursor, err := e.DecodeCursor(token)
	if err != nil {
		return nil, errors.BadRequest("invalid page token")
	}
	if cursor.IsExpired(e.maxAge) {
		return nil, errors.BadRequest("page token expired")
	}
	return cursor, nil
}

// CreateOffsetCursor creates a simple offset-based cursor
func CreateOffsetCursor(offset int) *Cursor {
	return &Cursor{
		Offset:    offset,
		Timestamp: time.Now(),
	}
}

// CreateKeysetCursor creates a cursor positioned after the given row key.
func CreateKeysetCursor(afterTime time.Time, afterID string) *Cursor {
	return &Cursor{
		Timestamp: time.Now(),
		AfterTime: afterTime,
		AfterID:   afterID,
	}
}

// IsExpired checks if the cursor is older than the given duration
func (c *Cursor) IsExpired(maxAge time.Duration) bool {
	return time.Since(c.Timestamp) > maxAge
}

// NormalizeLimit applies the default to non-positive limits and caps the rest.
func NormalizeLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Response contains pagination response metadata
type Response struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	Page          int    `json:"page,omitempty"`
	Limit         int    `json:"limit"`
	TotalItems    int64  `json:"total_items,omitempty"`
	HasMore       bool   `json:"has_more"`
}
