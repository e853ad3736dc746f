package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core/user"
)

// sessionStore keeps the CLI session in a JSON file readable only by its owner.
type sessionStore struct {
	path string
}

func newSessionStore(path string) *sessionStore {
	return &sessionStore{path: path}
}

// Load returns the stored session. A missing file is a zero session; an expired one is removed.
func (s *sessionStore) Load() (user.Session, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return user.Session{}, nil
		}
		return user.Session{}, errors.Wrap(err, "reading session")
	}
	var sess user.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return user.Session{}, errors.Wrap(err, "decoding session")
	}
	if sess.Expired() {
		return user.Session{}, s.Clear()
	}
	return sess, nil
}

func (s *sessionStore) Save(sess user.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.Wrap(err, "creating session dir")
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err := os.WriteFile(s.path, b, 0600); err != nil {
		return errors.Wrap(err, "writing session")
	}
	return nil
}

func (s *sessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session")
	}
	return nil
}
