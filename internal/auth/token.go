package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	Email            string                   `json:"email"`
	SystemRole       models.SystemRole        `json:"role"`
	EmailVerified    bool                     `json:"verified"`
	OrganizationID   string                   `json:"org,omitempty"`
	OrganizationRole *models.OrganizationRole `json:"orgRole,omitempty"`
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for c and its expiry.
func (i *TokenIssuer) Issue(c Caller) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:            c.Email,
		SystemRole:       c.SystemRole,
		EmailVerified:    c.EmailVerified,
		OrganizationRole: c.OrganizationRole,
	}
	if c.OrganizationID != nil {
		cl.OrganizationID = c.OrganizationID.String()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return s, exp, nil
}

// Parse verifies token and returns the caller it was issued for.
func (i *TokenIssuer) Parse(token string) (Caller, error) {
	var cl claims
	t, err := jwt.ParseWithClaims(token, &cl, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !t.Valid {
		return Caller{}, ErrInvalidToken
	}
	uid, err := uuid.Parse(cl.Subject)
	if err != nil {
		return Caller{}, ErrInvalidToken
	}
	c := Caller{
		UserID:           uid,
		Email:            cl.Email,
		SystemRole:       cl.SystemRole,
		EmailVerified:    cl.EmailVerified,
		OrganizationRole: cl.OrganizationRole,
	}
	if cl.OrganizationID != "" {
		oid, err := uuid.Parse(cl.OrganizationID)
		if err != nil {
			return Caller{}, ErrInvalidToken
		}
		c.OrganizationID = &oid
	}
	return c, nil
}
