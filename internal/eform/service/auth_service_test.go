package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sirreidlos/e-form/internal/eform/repository"
	"github.com/sirreidlos/e-form/internal/eform/testutil"
)

func newAuthFixture(t *testing.T) (*AuthService, *testutil.MemoryUserStore) {
	t.Helper()
	users := testutil.NewMemoryUserStore()
	svc := NewAuthService(users, nil, testutil.TestConfig(), zap.NewNop())
	return svc, users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	user, tokens, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" || len(user.ID) != 32 {
		t.Errorf("user id %q is not a 32-char identifier", user.ID)
	}
	if user.PasswordHash == "hunter22" {
		t.Error("password stored in plain text")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("expected both tokens to be issued")
	}

	loggedIn, loginTokens, err := svc.Login(ctx, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login resolved user %s, want %s", loggedIn.ID, user.ID)
	}
	if loginTokens.AccessToken == "" {
		t.Error("login issued no access token")
	}
}

func TestRegisterRejectsMalformedEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	for _, email := range []string{"not-an-email", "bad@", "@nodomain.com", ""} {
		if _, _, err := svc.Register(context.Background(), "bob", email, "pw"); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("Register(%q): expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice", "alice@example.com", "pw1"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, _, err := svc.Register(ctx, "imposter", "alice@example.com", "pw2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "pw")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice", "alice@example.com", "correct"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccessTokenClaims(t *testing.T) {
	svc, _ := newAuthFixture(t)

	user, tokens, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	token, err := jwt.Parse(tokens.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(testutil.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("access token does not verify: %v", err)
	}

	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != user.ID {
		t.Errorf("sub claim = %v, want %s", claims["sub"], user.ID)
	}
	if claims["email"] != "alice@example.com" {
		t.Errorf("email claim = %v", claims["email"])
	}
	if claims["username"] != "alice" {
		t.Errorf("username claim = %v", claims["username"])
	}
}

func TestRefreshWithoutStoreFails(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, tokens, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// With no redis the issued refresh token cannot be redeemed.
	if _, err := svc.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, tokens, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// An access token has no refresh jti and must be rejected.
	if _, err := svc.Refresh(context.Background(), tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	if _, err := svc.Refresh(context.Background(), "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
