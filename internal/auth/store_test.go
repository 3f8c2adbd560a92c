package auth

import (
	"errors"
	"testing"
)

// storeUser hashes a password and returns a configured user for tests.
func storeUser(t *testing.T, username, password string, role Role) User {
	t.Helper()

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	return User{Username: username, PasswordHash: hash, Role: role}
}

func TestNewStore(t *testing.T) {
	t.Run("accepts valid users", func(t *testing.T) {
		store, err := NewStore([]User{
			storeUser(t, "alice", "pw-one", RoleAdmin),
			storeUser(t, "bob", "pw-two", RoleUser),
		})
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}
		if store.Count() != 2 {
			t.Errorf("Count() = %d, want 2", store.Count())
		}
	})

	t.Run("rejects invalid username", func(t *testing.T) {
		_, err := NewStore([]User{{Username: "bad user!", PasswordHash: "x", Role: RoleUser}})
		if err == nil {
			t.Error("NewStore() should reject usernames with spaces")
		}
	})

	t.Run("rejects invalid role", func(t *testing.T) {
		_, err := NewStore([]User{{Username: "alice", PasswordHash: "x", Role: "owner"}})
		if err == nil {
			t.Error("NewStore() should reject unknown roles")
		}
	})

	t.Run("rejects duplicate usernames case-insensitively", func(t *testing.T) {
		_, err := NewStore([]User{
			storeUser(t, "alice", "pw", RoleUser),
			storeUser(t, "Alice", "pw", RoleUser),
		})
		if err == nil {
			t.Error("NewStore() should reject duplicate usernames")
		}
	})
}

func TestStore_Authenticate(t *testing.T) {
	store, err := NewStore([]User{storeUser(t, "alice", "correct-password", RoleAdmin)})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	t.Run("accepts correct credentials", func(t *testing.T) {
		user, err := store.Authenticate("alice", "correct-password")
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if user.Username != "alice" {
			t.Errorf("Username = %q, want %q", user.Username, "alice")
		}
		if user.Role != RoleAdmin {
			t.Errorf("Role = %q, want %q", user.Role, RoleAdmin)
		}
	})

	t.Run("matches username case-insensitively", func(t *testing.T) {
		if _, err := store.Authenticate("ALICE", "correct-password"); err != nil {
			t.Errorf("Authenticate() error = %v, want nil", err)
		}
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		_, err := store.Authenticate("alice", "wrong-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("rejects unknown user with same error", func(t *testing.T) {
		_, err := store.Authenticate("mallory", "anything")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestStore_GetUser(t *testing.T) {
	store, err := NewStore([]User{storeUser(t, "alice", "pw", RoleUser)})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	user, err := store.GetUser("alice")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}

	if _, err := store.GetUser("nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser() error = %v, want ErrUserNotFound", err)
	}
}
