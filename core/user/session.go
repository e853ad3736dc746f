package user

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")
	ErrForbidden      = errors.New("permission denied")
)

// Claims are the authorization claims of the JWT issued by the backend.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Session is the authenticated identity. It is passed explicitly to whatever needs the
// current user; nothing reads it from ambient storage.
type Session struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionFromClaims builds a Session for token.
func SessionFromClaims(claims *Claims, token string) Session {
	s := Session{
		UserID:   claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
		Token:    token,
	}
	if claims.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(claims.ExpiresAt, 0)
	}
	return s
}

// ParseSession verifies token with the HS256 secret shared with the backend.
func ParseSession(token string, secret []byte) (Session, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if vErr, ok := err.(*jwt.ValidationError); ok && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return Session{}, ErrSessionExpired
		}
		return Session{}, errors.Wrap(err, "parsing token")
	}
	return SessionFromClaims(claims, token), nil
}

// ParseSessionUnverified reads the claims of a token received from the backend without
// checking its signature; the backend verifies it on every request.
func ParseSessionUnverified(token string) (Session, error) {
	claims := new(Claims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return Session{}, errors.Wrap(err, "parsing token")
	}
	s := SessionFromClaims(claims, token)
	if s.Expired() {
		return Session{}, ErrSessionExpired
	}
	return s, nil
}

func (s Session) IsZero() bool { return s.Token == "" }

func (s Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && nowFunc().After(s.ExpiresAt)
}

// Require returns ErrNoSession, ErrSessionExpired or ErrForbidden when the session may not act
// with one of roles. No roles means any authenticated user.
func (s Session) Require(roles ...string) error {
	if s.IsZero() {
		return ErrNoSession
	}
	if s.Expired() {
		return ErrSessionExpired
	}
	if len(roles) == 0 {
		return nil
	}
	for _, role := range roles {
		if s.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
