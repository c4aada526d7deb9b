package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"

	"todosync/internal/service"
)

// ErrNoSession is returned by Load when no session file exists.
var ErrNoSession = errors.New("no stored session")

// Record is the persisted session: who is signed in and their token.
// Token.AccessToken holds the ID token; RefreshToken renews it.
type Record struct {
	User  service.User  `json:"user"`
	Token *oauth2.Token `json:"token"`
}

// File persists a Record at Path.
type File struct {
	Path string
}

// Load reads the stored record.
// Returns ErrNoSession if the file does not exist.
func (f File) Load() (Record, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, ErrNoSession
		}
		return Record{}, fmt.Errorf("failed to read session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("invalid session file: %w", err)
	}
	if rec.User.ID == "" || rec.Token == nil || rec.Token.RefreshToken == "" {
		return Record{}, fmt.Errorf("invalid session file: missing user or refresh token")
	}
	return rec, nil
}

// Save writes rec with mode 0600.
func (f File) Save(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0600)
}

// Remove deletes the stored record. A missing file is not an error.
func (f File) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
