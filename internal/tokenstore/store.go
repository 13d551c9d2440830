// Package tokenstore persists the bearer token pair and the last active tab
// as plain string values in a per-user key/value directory.
package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// Keys in the backing store.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyActiveTab    = "active_tab"
)

// Session is the stored credential pair. Empty strings mean absent.
type Session struct {
	AccessToken  string
	RefreshToken string
}

// Valid reports whether an access token is present.
func (s Session) Valid() bool {
	return s.AccessToken != ""
}

// Store is a diskv-backed token store. Safe for concurrent use; the last
// write wins.
type Store struct {
	d *diskv.Diskv
}

// Open returns a Store rooted at dir. The directory is created on first write.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("token store: empty directory")
	}
	return &Store{d: diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 0,
		PathPerm:     0700,
		FilePerm:     0600,
	})}, nil
}

// Get returns the stored session.
func (s *Store) Get() Session {
	return Session{
		AccessToken:  s.read(KeyAccessToken),
		RefreshToken: s.read(KeyRefreshToken),
	}
}

// HasSession reports whether an access token is stored.
func (s *Store) HasSession() bool {
	return s.Get().Valid()
}

// Save stores the access token and, when non-empty, the refresh token.
// An empty refresh leaves the previously stored one untouched.
func (s *Store) Save(access, refresh string) error {
	if err := s.d.WriteString(KeyAccessToken, access); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if refresh == "" {
		return nil
	}
	if err := s.d.WriteString(KeyRefreshToken, refresh); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// Clear removes both tokens. The active tab is kept.
func (s *Store) Clear() error {
	return errors.Join(s.erase(KeyAccessToken), s.erase(KeyRefreshToken))
}

// Tab returns the last persisted tab name, or "" if none.
func (s *Store) Tab() string {
	return s.read(KeyActiveTab)
}

// SetTab persists the active tab name.
func (s *Store) SetTab(tab string) error {
	return s.d.WriteString(KeyActiveTab, tab)
}

func (s *Store) read(key string) string {
	if !s.d.Has(key) {
		return ""
	}
	b, err := s.d.Read(key)
	if err != nil {
		return ""
	}
	return string(b)
}

func (s *Store) erase(key string) error {
	if err := s.d.Erase(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear %s: %w", key, err)
	}
	return nil
}
