package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"siteforge/api/internal/config"
	"siteforge/api/internal/ids"
	"siteforge/api/internal/models"
	"siteforge/api/internal/repository"
	"siteforge/api/internal/security"
	"siteforge/api/internal/slug"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalid     = errors.New("session invalid")
)

// Free-plan organizations start with this many sites; higher plans lift the
// cap through max_sites directly.
const freePlanMaxSites = 3

type AuthService struct {
	users    UserStore
	sessions SessionStore
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(users UserStore, sessions SessionStore, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Email            string
	Password         string
	DisplayName      string
	OrganizationName string
	IPAddress        string
	UserAgent        string
}

type AuthResult struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	User             models.User
}

// Register creates an organization together with its first user and opens a
// session. The organization slug is derived once from the chosen name; a
// collision is an error, not a retry — org slugs stay human-chosen.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.Organization, AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || input.Password == "" {
		return models.Organization{}, AuthResult{}, fmt.Errorf("email and password required")
	}

	orgSlug := slug.Make(input.OrganizationName)
	if orgSlug == "" {
		return models.Organization{}, AuthResult{}, fmt.Errorf("organization name required")
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.Organization{}, AuthResult{}, err
	}

	org := models.Organization{
		ID:       ids.New(),
		Name:     strings.TrimSpace(input.OrganizationName),
		Slug:     orgSlug,
		Plan:     models.PlanFree,
		MaxSites: freePlanMaxSites,
	}
	user := models.User{
		ID:             ids.New(),
		OrganizationID: org.ID,
		Email:          input.Email,
		PasswordHash:   passwordHash,
		DisplayName:    input.DisplayName,
		Role:           models.UserRoleAdmin,
	}

	if err := s.users.CreateWithOrganization(ctx, org, user); err != nil {
		return models.Organization{}, AuthResult{}, err
	}

	result, err := s.openSession(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return models.Organization{}, AuthResult{}, err
	}
	return org, result, nil
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// Login verifies credentials and opens a new session alongside any the user
// already holds. Unknown email and wrong password both come back as
// ErrInvalidCredentials; the response must not reveal which one it was.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.openSession(ctx, user, input.IPAddress, input.UserAgent)
}

type RefreshInput struct {
	RefreshToken string
	IPAddress    string
	UserAgent    string
}

// Refresh exchanges a live refresh token for a fresh pair. The old session
// row is deleted and replaced in one transaction, so presenting the same
// token a second time always fails with ErrSessionInvalid.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (AuthResult, error) {
	claims, err := security.VerifyToken(input.RefreshToken, s.cfg.Security.JWTRefreshSecret, security.TokenKindRefresh)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return AuthResult{}, err
	}

	refreshToken, refreshExp, err := security.IssueToken(
		s.cfg.Security.JWTRefreshSecret, security.TokenKindRefresh,
		user.ID, user.OrganizationID, string(user.Role), s.cfg.Security.JWTRefreshTTL)
	if err != nil {
		return AuthResult{}, err
	}

	replacement := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		IPAddress:        input.IPAddress,
		UserAgent:        input.UserAgent,
		ExpiresAt:        refreshExp,
	}

	if _, err := s.sessions.Rotate(ctx, security.HashRefreshToken(input.RefreshToken), replacement); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return AuthResult{}, ErrSessionInvalid
		}
		return AuthResult{}, err
	}

	accessToken, accessExp, err := security.IssueToken(
		s.cfg.Security.JWTAccessSecret, security.TokenKindAccess,
		user.ID, user.OrganizationID, string(user.Role), s.cfg.Security.JWTAccessTTL)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             user,
	}, nil
}

// Logout revokes the session behind the presented refresh token. It is
// idempotent: an unknown, expired or already-revoked token is a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := security.VerifyToken(refreshToken, s.cfg.Security.JWTRefreshSecret, security.TokenKindRefresh)
	if err != nil {
		return nil
	}
	return s.sessions.DeleteByHash(ctx, claims.UserID, security.HashRefreshToken(refreshToken))
}

// RevokeAll drops every session the user holds, e.g. after a credential
// change.
func (s *AuthService) RevokeAll(ctx context.Context, userID string) error {
	return s.sessions.DeleteByUser(ctx, userID)
}

func (s *AuthService) User(ctx context.Context, id string) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) Sessions(ctx context.Context, userID string) ([]models.Session, error) {
	return s.sessions.ListByUser(ctx, userID)
}

func (s *AuthService) OrgUsers(ctx context.Context, orgID string) ([]models.User, error) {
	return s.users.ListByOrganization(ctx, orgID)
}

func (s *AuthService) openSession(ctx context.Context, user models.User, ip, userAgent string) (AuthResult, error) {
	accessToken, accessExp, err := security.IssueToken(
		s.cfg.Security.JWTAccessSecret, security.TokenKindAccess,
		user.ID, user.OrganizationID, string(user.Role), s.cfg.Security.JWTAccessTTL)
	if err != nil {
		return AuthResult{}, err
	}

	refreshToken, refreshExp, err := security.IssueToken(
		s.cfg.Security.JWTRefreshSecret, security.TokenKindRefresh,
		user.ID, user.OrganizationID, string(user.Role), s.cfg.Security.JWTRefreshTTL)
	if err != nil {
		return AuthResult{}, err
	}

	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		IPAddress:        ip,
		UserAgent:        userAgent,
		ExpiresAt:        refreshExp,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             user,
	}, nil
}
