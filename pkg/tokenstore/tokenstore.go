// Package tokenstore persists the search API bearer token between runs.
package tokenstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

var ErrTokenNotFound = eris.New("tokenstore: token not found")

const fileSuffix = "_token.json"

// Token is a stored API credential.
type Token struct {
	AccessToken string    `json:"access_token"` // #nosec G117 - JSON field for the API token, not an exposed secret
	TokenType   string    `json:"token_type"`
	SavedAt     time.Time `json:"saved_at"`
}

// Header returns the Authorization header value for the token.
func (t *Token) Header() string {
	kind := t.TokenType
	if kind == "" {
		kind = "Bearer"
	}
	return kind + " " + t.AccessToken
}

type Store struct {
	dir string
	now func() time.Time
}

func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Save writes the token for name, readable only by the current user.
func (s *Store) Save(name, accessToken string) error {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return eris.New("tokenstore: empty token")
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return eris.Wrap(err, "tokenstore: create directory")
	}

	data, err := json.Marshal(&Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		SavedAt:     s.now().UTC(),
	})
	if err != nil {
		return eris.Wrap(err, "tokenstore: marshal token")
	}

	if err := os.WriteFile(s.path(name), data, 0600); err != nil {
		return eris.Wrap(err, "tokenstore: write token")
	}
	return nil
}

func (s *Store) Load(name string) (*Token, error) {
	data, err := os.ReadFile(s.path(name)) // #nosec G304 -- name is sanitized
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrTokenNotFound
		}
		return nil, eris.Wrap(err, "tokenstore: read token")
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, eris.Wrap(err, "tokenstore: unmarshal token")
	}
	if token.AccessToken == "" {
		return nil, ErrTokenNotFound
	}

	return &token, nil
}

// Delete removes the token for name. Deleting a missing token is not an
// error.
func (s *Store) Delete(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return eris.Wrap(err, "tokenstore: delete token")
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name)+fileSuffix)
}
