package auth

import (
	"fmt"
	"strings"
)

// Store holds the users declared in the hub configuration.
// It is read-only after construction and safe for concurrent use.
type Store struct {
	users map[string]*User
}

// NewStore builds a store from configured users.
// Usernames are matched case-insensitively and must be unique and valid.
func NewStore(users []User) (*Store, error) {
	s := &Store{users: make(map[string]*User, len(users))}

	for i := range users {
		u := users[i]
		if !IsValidUsername(u.Username) {
			return nil, fmt.Errorf("user %q: invalid username", u.Username)
		}
		if !IsValidUserRole(u.Role) {
			return nil, fmt.Errorf("user %q: invalid role %q", u.Username, u.Role)
		}
		key := strings.ToLower(u.Username)
		if _, exists := s.users[key]; exists {
			return nil, fmt.Errorf("user %q: duplicate username", u.Username)
		}
		s.users[key] = &u
	}

	return s, nil
}

// Authenticate verifies a username and password pair.
// It returns ErrInvalidCredentials on any mismatch so callers cannot
// distinguish an unknown user from a wrong password.
func (s *Store) Authenticate(username, password string) (*User, error) {
	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		// Burn a hash comparison anyway to keep timing uniform.
		_, _ = VerifyPassword(password, dummyHash)
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	copy := *u
	return &copy, nil
}

// GetUser looks up a user by username without checking credentials.
// Used to resolve JWT subjects back to accounts.
func (s *Store) GetUser(username string) (*User, error) {
	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	copy := *u
	return &copy, nil
}

// Count returns the number of configured users.
func (s *Store) Count() int {
	return len(s.users)
}

// dummyHash is a valid Argon2id PHC string for a throwaway password.
// Comparing against it on unknown usernames keeps response times close
// to the known-user path.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=1$AAAAAAAAAAAAAAAAAAAAAA$tKceBn1ZBJQbSJOSXUnOuUjmMavFqtJwk9mTRXdyS4Y"
