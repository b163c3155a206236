package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	// Login verifies credentials. organizationID scopes the token to an organization the
	// user has accepted membership in.
	Login(ctx context.Context, email, password string, organizationID *uuid.UUID) (*Session, error)
}

// Session is an issued access token and the caller it encodes.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Caller    auth.Caller `json:"caller"`
	User      models.User `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
	tokens   *auth.TokenIssuer
	cost     int
}

func NewAuthService(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository, tokens *auth.TokenIssuer) AuthService {
	return &authService{userRepo: userRepo, orgRepo: orgRepo, tokens: tokens, cost: bcrypt.DefaultCost}
}

var errInvalidCredentials = appErr.New(appErr.CodeUnauthorized, "invalid credentials")

func (s *authService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	ph, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "hash password failed")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(ph),
		Name:         strings.TrimSpace(name),
		SystemRole:   models.SystemRoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if appErr.IsCode(err, appErr.CodeConflict) {
			return nil, appErr.New(appErr.CodeConflict, "An account with this email already exists")
		}
		return nil, err
	}
	logger.FromContext(ctx).Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string, organizationID *uuid.UUID) (*Session, error) {
	var user models.User
	if err := s.userRepo.GetByEmail(ctx, email, &user); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errInvalidCredentials
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "compare password failed")
	}

	caller := auth.Caller{
		UserID:        user.ID,
		Email:         user.Email,
		SystemRole:    user.SystemRole,
		EmailVerified: user.EmailVerified,
	}
	if organizationID != nil {
		m, err := s.orgRepo.FindMember(ctx, *organizationID, user.ID)
		if err != nil {
			return nil, err
		}
		if !m.Grants() && !caller.IsSuperAdmin() {
			return nil, appErr.New(appErr.CodeForbidden, "You are not a member of this organization")
		}
		orgID := *organizationID
		caller.OrganizationID = &orgID
		if m != nil {
			role := m.Role
			caller.OrganizationRole = &role
		}
	}

	token, exp, err := s.tokens.Issue(caller)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "issue token failed")
	}
	return &Session{Token: token, ExpiresAt: exp, Caller: caller, User: user}, nil
}
