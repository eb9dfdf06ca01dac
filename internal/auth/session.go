package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 8 * time.Hour

// ErrInvalidCredentials is returned for unknown usernames and wrong
// passwords alike, so the two cases are indistinguishable to a caller.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Claims are the token claims carried by a session JWT.
type Claims struct {
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates HMAC-signed session tokens.
type SessionManager struct {
	secret []byte

	// now is swapped out in tests to drive token expiry.
	now func() time.Time
}

// NewSessionManager creates a manager signing with the given shared secret.
func NewSessionManager(secret string) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue creates a signed token for the given account.
func (m *SessionManager) Issue(u User) (string, error) {
	role, err := ParseRole(u.Role)
	if err != nil {
		return "", err
	}

	now := m.now()
	claims := Claims{
		DisplayName: u.DisplayName,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates a token string and returns its claims.
func (m *SessionManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	if _, err := ParseRole(string(claims.Role)); err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	return claims, nil
}

// Authenticator combines the user store and session manager behind one
// login operation.
type Authenticator struct {
	store    *UserStore
	sessions *SessionManager
}

// NewAuthenticator wires the store and session manager together.
func NewAuthenticator(store *UserStore, sessions *SessionManager) *Authenticator {
	return &Authenticator{store: store, sessions: sessions}
}

// Login verifies the credentials and returns a signed session token plus
// the matched account.
func (a *Authenticator) Login(username, password string) (string, User, error) {
	user, ok := a.store.Lookup(username)
	if !ok {
		return "", User{}, ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		return "", User{}, ErrInvalidCredentials
	}

	token, err := a.sessions.Issue(user)
	if err != nil {
		return "", User{}, fmt.Errorf("failed to issue session token: %w", err)
	}
	return token, user, nil
}
