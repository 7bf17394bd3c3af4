package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atinyakov/cerevyn/internal/models"
)

// DefaultSessionFile is where the CLI keeps its login between runs.
const DefaultSessionFile = ".cerevyn-session.json"

// ErrNoSession is returned by LoadSession when nobody is logged in.
var ErrNoSession = errors.New("not logged in")

// Session is the persisted result of a login.
type Session struct {
	BaseURL string      `json:"baseUrl"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

// LoadSession reads the session stored at path.
func LoadSession(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	defer f.Close()

	var s Session
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", path, err)
	}
	if s.Token == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes the session to path, readable by the owner only.
func (s *Session) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(s)
}

// ClearSession removes the session at path. A missing file is not an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
