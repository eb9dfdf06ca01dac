package auth

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// User is one account from the users file.
type User struct {
	Username     string `yaml:"username"`
	DisplayName  string `yaml:"display_name"`
	Role         string `yaml:"role"`
	PasswordHash string `yaml:"password_hash"`
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// UserStore holds all accounts loaded at startup, keyed by username.
type UserStore struct {
	users map[string]User
}

// LoadUserStore reads and validates the YAML users file. Every account must
// carry a known role and a non-empty bcrypt hash; duplicate usernames are
// rejected.
func LoadUserStore(path string) (*UserStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file %s: %w", path, err)
	}

	var file usersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML for %s: %w", path, err)
	}

	users := make(map[string]User, len(file.Users))
	for _, u := range file.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("user with empty username in %s", path)
		}
		if _, err := ParseRole(u.Role); err != nil {
			return nil, fmt.Errorf("user %q: %w", u.Username, err)
		}
		if u.PasswordHash == "" {
			return nil, fmt.Errorf("user %q has no password_hash", u.Username)
		}
		if _, exists := users[u.Username]; exists {
			return nil, fmt.Errorf("duplicate username %q found in %s", u.Username, path)
		}
		users[u.Username] = u
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("no users defined in %s", path)
	}

	return &UserStore{users: users}, nil
}

// Lookup retrieves an account by username.
func (s *UserStore) Lookup(username string) (User, bool) {
	u, ok := s.users[username]
	return u, ok
}

// CheckPassword verifies a plaintext password against the stored hash.
func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
