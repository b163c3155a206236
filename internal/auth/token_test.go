package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)
	org := uuid.New()
	role := models.OrganizationRoleAdmin
	in := Caller{
		UserID:           uuid.New(),
		Email:            "ada@example.com",
		SystemRole:       models.SystemRoleUser,
		EmailVerified:    true,
		OrganizationID:   &org,
		OrganizationRole: &role,
	}

	tok, exp, err := issuer.Issue(in)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	out, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Minute)
	tok, _, err := issuer.Issue(Caller{UserID: uuid.New()})
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenIssuer([]byte("other"), time.Minute)
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCallerContext(t *testing.T) {
	_, ok := CallerFrom(context.Background())
	assert.False(t, ok)

	c := Caller{UserID: uuid.New(), SystemRole: models.SystemRoleSuperAdmin}
	got, ok := CallerFrom(WithCaller(context.Background(), c))
	require.True(t, ok)
	assert.True(t, got.IsSuperAdmin())
}
