package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirreidlos/e-form/internal/config"
	"github.com/sirreidlos/e-form/internal/eform/entity"
	"github.com/sirreidlos/e-form/internal/eform/repository"
)

var emailRegex = regexp.MustCompile(`^([a-z0-9_+]([a-z0-9_+.]*[a-z0-9_+])?)@([a-z0-9]+([\-\.][a-z0-9]+)*\.[a-z]{2,6})`)

// AuthService issues and refreshes JWT pairs for registered accounts.
// Refresh tokens are single-use: their jti lives in redis until rotated.
type AuthService struct {
	users  repository.UserStore
	rdb    *redis.Client
	cfg    *config.Config
	logger *zap.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(users repository.UserStore, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, rdb: rdb, cfg: cfg, logger: logger}
}

// TokenPair is an access/refresh token set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*entity.User, *TokenPair, error) {
	if !emailRegex.MatchString(email) {
		return nil, nil, ErrInvalidEmail
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		ID:           newID(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Login verifies the credentials and returns a token pair. Unknown email
// surfaces repository.ErrNotFound; a wrong password ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, *TokenPair, error) {
	if !emailRegex.MatchString(email) {
		return nil, nil, ErrInvalidEmail
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Refresh rotates a refresh token into a fresh pair. The presented jti is
// consumed; replaying it fails with ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)
	tokenType, _ := claims["type"].(string)
	if jti == "" || tokenType != "refresh" {
		return nil, ErrInvalidToken
	}

	if s.rdb == nil {
		return nil, ErrInvalidToken
	}
	userID, err := s.rdb.Get(ctx, refreshTokenKey(jti)).Result()
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	s.rdb.Del(ctx, refreshTokenKey(jti))
	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"username": user.Username,
		"iss":      s.cfg.JWT.Issuer,
		"iat":      now.Unix(),
		"exp":      now.Add(s.cfg.JWT.AccessTokenExpire).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshJti := newID()
	refreshClaims := jwt.MapClaims{
		"sub":  user.ID,
		"jti":  refreshJti,
		"type": "refresh",
		"iss":  s.cfg.JWT.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.JWT.RefreshTokenExpire).Unix(),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	// Without redis the refresh token is issued but cannot be redeemed.
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, refreshTokenKey(refreshJti), user.ID, s.cfg.JWT.RefreshTokenExpire).Err(); err != nil {
			s.logger.Error("store refresh token", zap.Error(err))
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.JWT.AccessTokenExpire.Seconds()),
	}, nil
}

func refreshTokenKey(jti string) string {
	return "token:refresh:" + jti
}
