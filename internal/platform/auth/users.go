// Package auth handles user authentication for both run modes: CSV-backed
// credential checks for the interactive terminal, and HS256 session tokens
// plus echo middleware for the HTTP surface.
package auth

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sasilab/medbot/internal/domain/policy"
)

// ErrAuthenticationFailed covers both unknown usernames and wrong passwords;
// callers must not reveal which one it was.
var ErrAuthenticationFailed = errors.New("authentication failed")

type user struct {
	password string
	role     policy.Role
}

// UserStore holds the credential table loaded at startup. Read-only after
// load, so safe for concurrent use.
type UserStore struct {
	users map[string]user
}

// LoadUserStore reads a credentials CSV with header username,password,role.
func LoadUserStore(path string) (*UserStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credentials file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("credentials file is empty")
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"username", "password", "role"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("credentials file missing %q column", required)
		}
	}

	store := &UserStore{users: make(map[string]user, len(records)-1)}
	for i, rec := range records[1:] {
		role, err := policy.ParseRole(rec[cols["role"]])
		if err != nil {
			return nil, fmt.Errorf("credentials row %d: %w", i+2, err)
		}
		store.users[rec[cols["username"]]] = user{
			password: rec[cols["password"]],
			role:     role,
		}
	}
	return store, nil
}

// Authenticate checks credentials and returns the user's role. Failures are
// not audited (authentication failures cause a reprompt, nothing more).
func (s *UserStore) Authenticate(username, password string) (policy.Role, error) {
	u, ok := s.users[username]
	if !ok || u.password != password {
		return "", ErrAuthenticationFailed
	}
	return u.role, nil
}
