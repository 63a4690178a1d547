package service

import (
	"context"
	"errors"
	"testing"

	"siteforge/api/internal/models"
	"siteforge/api/internal/repository"
	"siteforge/api/internal/security"
)

func newTestAuthService() (*AuthService, *fakeUserStore, *fakeSessionStore) {
	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	return NewAuthService(users, sessions, testConfig(), testLogger()), users, sessions
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:            "owner@acme.test",
		Password:         "s3cret-enough",
		DisplayName:      "Owner",
		OrganizationName: "Acme Inc",
		IPAddress:        "203.0.113.7",
		UserAgent:        "test-agent",
	}
}

func TestRegister(t *testing.T) {
	svc, users, sessions := newTestAuthService()

	org, result, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if org.Slug != "acme-inc" {
		t.Fatalf("org slug = %q", org.Slug)
	}
	if org.Plan != models.PlanFree || org.MaxSites != 3 {
		t.Fatalf("org plan = %q maxSites = %d", org.Plan, org.MaxSites)
	}
	if result.User.Role != models.UserRoleAdmin {
		t.Fatalf("first user role = %q, want admin", result.User.Role)
	}
	if result.User.Email != "owner@acme.test" {
		t.Fatalf("user email = %q", result.User.Email)
	}

	claims, err := security.VerifyToken(result.AccessToken, "access-secret", security.TokenKindAccess)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if claims.UserID != result.User.ID || claims.OrganizationID != org.ID {
		t.Fatalf("claims = %+v", claims)
	}
	if _, err := security.VerifyToken(result.RefreshToken, "refresh-secret", security.TokenKindRefresh); err != nil {
		t.Fatalf("refresh token: %v", err)
	}

	if len(users.users) != 1 || len(sessions.sessions) != 1 {
		t.Fatalf("users = %d sessions = %d", len(users.users), len(sessions.sessions))
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()

	in := registerInput()
	in.Email = "  Owner@Acme.Test "
	_, result, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.User.Email != "owner@acme.test" {
		t.Fatalf("email = %q", result.User.Email)
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	svc, _, _ := newTestAuthService()

	if _, _, err := svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	in := registerInput()
	in.OrganizationName = "Different Org"
	if _, _, err := svc.Register(context.Background(), in); !errors.Is(err, repository.ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}
}

func TestRegisterOrgSlugTaken(t *testing.T) {
	svc, _, _ := newTestAuthService()

	if _, _, err := svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	in := registerInput()
	in.Email = "second@acme.test"
	if _, _, err := svc.Register(context.Background(), in); !errors.Is(err, repository.ErrSlugTaken) {
		t.Fatalf("want ErrSlugTaken, got %v", err)
	}
}

func TestRegisterRejectsBlankOrgName(t *testing.T) {
	svc, _, _ := newTestAuthService()

	in := registerInput()
	in.OrganizationName = "!!!"
	if _, _, err := svc.Register(context.Background(), in); err == nil {
		t.Fatal("expected error for unusable organization name")
	}
}

func TestLogin(t *testing.T) {
	svc, _, sessions := newTestAuthService()

	if _, _, err := svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "OWNER@acme.test",
		Password: "s3cret-enough",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("login returned empty tokens")
	}
	// Register's session plus the one login just opened.
	if len(sessions.sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions.sessions))
	}
}

func TestLoginInvalidCredentialsUniform(t *testing.T) {
	svc, _, _ := newTestAuthService()

	if _, _, err := svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Unknown email and wrong password must be indistinguishable.
	_, unknownErr := svc.Login(context.Background(), LoginInput{Email: "nobody@acme.test", Password: "whatever"})
	_, wrongErr := svc.Login(context.Background(), LoginInput{Email: "owner@acme.test", Password: "wrong"})

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", wrongErr)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, _, sessions := newTestAuthService()

	_, first, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	second, err := svc.Refresh(context.Background(), RefreshInput{RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh must mint a new refresh token")
	}
	if len(sessions.sessions) != 1 {
		t.Fatalf("sessions = %d, want the rotated one only", len(sessions.sessions))
	}

	// Replaying the consumed token must fail.
	if _, err := svc.Refresh(context.Background(), RefreshInput{RefreshToken: first.RefreshToken}); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("replay: want ErrSessionInvalid, got %v", err)
	}

	// The replacement still works.
	if _, err := svc.Refresh(context.Background(), RefreshInput{RefreshToken: second.RefreshToken}); err != nil {
		t.Fatalf("rotated token refresh: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, result, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), RefreshInput{RefreshToken: result.AccessToken}); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}

func TestLogoutIdempotent(t *testing.T) {
	svc, _, sessions := newTestAuthService()

	_, result, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Logout(context.Background(), result.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("sessions = %d after logout", len(sessions.sessions))
	}

	// Repeats and garbage are no-ops.
	if err := svc.Logout(context.Background(), result.RefreshToken); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if err := svc.Logout(context.Background(), "not-a-token"); err != nil {
		t.Fatalf("garbage Logout: %v", err)
	}
}

func TestRevokeAll(t *testing.T) {
	svc, _, sessions := newTestAuthService()

	_, result, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginInput{Email: "owner@acme.test", Password: "s3cret-enough"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(sessions.sessions) != 2 {
		t.Fatalf("sessions = %d before revoke", len(sessions.sessions))
	}

	if err := svc.RevokeAll(context.Background(), result.User.ID); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("sessions = %d after revoke", len(sessions.sessions))
	}

	if _, err := svc.Refresh(context.Background(), RefreshInput{RefreshToken: result.RefreshToken}); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("refresh after revoke: want ErrSessionInvalid, got %v", err)
	}
}
