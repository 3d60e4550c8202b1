package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Keys under which the session credentials are persisted.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// TokenStore defines the interface for durable token persistence.
// Get returns "" with a nil error when the key has no value; callers treat
// the empty string as "absent". The store is not transactional across calls:
// a crash between two Sets may leave one token updated and the other stale.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// SQLiteStore implements TokenStore using SQLite with encrypted values.
type SQLiteStore struct {
	db            *sql.DB
	encryptionKey []byte
	mu            sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based token store.
// The dbPath is the path to the SQLite database file.
// The encryptionKey is used to encrypt/decrypt token values at rest.
func NewSQLiteStore(dbPath string, encryptionKey []byte) (*SQLiteStore, error) {
	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set file permissions (only works on creation)
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		// Ignore error if file doesn't exist yet
	}

	store := &SQLiteStore{
		db:            db,
		encryptionKey: encryptionKey,
	}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS tokens (
		key TEXT PRIMARY KEY,
		encrypted_value TEXT NOT NULL,
		last_updated DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create tokens table: %w", err)
	}

	return nil
}

// Get retrieves a token by key. Returns "", nil if the key has no value.
func (s *SQLiteStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var encryptedValue string
	err := s.db.QueryRow(
		"SELECT encrypted_value FROM tokens WHERE key = ?",
		key,
	).Scan(&encryptedValue)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query token: %w", err)
	}

	value, err := Decrypt(encryptedValue, s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token %q: %w", key, err)
	}

	return string(value), nil
}

// Set stores or replaces a token value.
func (s *SQLiteStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encryptedValue, err := Encrypt([]byte(value), s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt token %q: %w", key, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO tokens (key, encrypted_value, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			encrypted_value = excluded.encrypted_value,
			last_updated = excluded.last_updated
	`, key, encryptedValue, time.Now())

	if err != nil {
		return fmt.Errorf("failed to save token %q: %w", key, err)
	}

	return nil
}

// Delete removes a token by key. Deleting an absent key is a no-op.
func (s *SQLiteStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM tokens WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete token %q: %w", key, err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
