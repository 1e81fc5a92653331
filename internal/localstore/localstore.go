// internal/localstore/localstore.go
//
// Client-side persisted state: the auth token and the cached user profile,
// stored as separate JSON files so each is independently clearable on
// logout.

package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	tokenFile   = "token.json"
	profileFile = "profile.json"
)

// ErrNotFound is returned when a value has not been saved.
var ErrNotFound = errors.New("localstore: not found")

// Profile is the cached user identity.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Premium  bool   `json:"premium"`
}

// Store persists client state under a directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("localstore: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Default roots the store at ~/.wordheist.
func Default() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("localstore: %w", err)
	}
	return New(filepath.Join(home, ".wordheist"))
}

// SaveToken persists the auth token.
func (s *Store) SaveToken(token string) error {
	return s.write(tokenFile, map[string]string{"token": token})
}

// Token loads the saved auth token, or ErrNotFound.
func (s *Store) Token() (string, error) {
	var v map[string]string
	if err := s.read(tokenFile, &v); err != nil {
		return "", err
	}
	return v["token"], nil
}

// ClearToken removes the saved token.
func (s *Store) ClearToken() error { return s.remove(tokenFile) }

// SaveProfile persists the user profile.
func (s *Store) SaveProfile(p Profile) error {
	return s.write(profileFile, p)
}

// Profile loads the cached profile, or ErrNotFound.
func (s *Store) Profile() (Profile, error) {
	var p Profile
	err := s.read(profileFile, &p)
	return p, err
}

// ClearProfile removes the cached profile.
func (s *Store) ClearProfile() error { return s.remove(profileFile) }

func (s *Store) write(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("localstore: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, name), b, 0o600)
}

func (s *Store) read(name string, out any) error {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("localstore: %w", err)
	}
	return json.Unmarshal(b, out)
}

func (s *Store) remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("localstore: %w", err)
	}
	return nil
}
