package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"stratusdrive/models"
	"stratusdrive/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrUserExists means the username or email is already registered.
var ErrUserExists = errors.New("user already exists")

// ErrInvalidCredentials covers bad passwords and stale refresh tokens.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenPair is what login, register and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService handles registration, login and refresh-token rotation.
// Registration also creates the user's drive-root FSO; the two are born
// together and the root is never deleted independently of the user.
type AuthService struct {
	users      UserRepository
	fsoService *FsoService
	jwtSecret  string
	jwtExpiry  time.Duration
	jwtIssuer  string
	refreshTTL time.Duration
}

func NewAuthService(users UserRepository, fsoService *FsoService, jwtSecret string, jwtExpiry time.Duration, jwtIssuer string, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		fsoService: fsoService,
		jwtSecret:  jwtSecret,
		jwtExpiry:  jwtExpiry,
		jwtIssuer:  jwtIssuer,
		refreshTTL: refreshTTL,
	}
}

// Register creates the user and their drive root, then signs them in.
// A failure after the root insert deletes the root again so no ownerless
// drive is left behind.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, *TokenPair, error) {
	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, nil, fmt.Errorf("register %q: %w", username, ErrUserExists)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, fmt.Errorf("register %q: %w", username, err)
	}
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, nil, fmt.Errorf("register %q: %w", username, ErrUserExists)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, fmt.Errorf("register %q: %w", username, err)
	}

	root, err := s.fsoService.CreateRoot(ctx, "root")
	if err != nil {
		return nil, nil, err
	}
	dropRoot := func() {
		if err := s.fsoService.Delete(ctx, root); err != nil {
			zap.L().Error("orphaned drive root cleanup failed", zap.Int64("fso_id", root.ID), zap.Error(err))
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		dropRoot()
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DriveID:      root.ID,
		CreatedAt:    time.Now(),
	}
	tokens, err := s.issueTokens(user)
	if err != nil {
		dropRoot()
		return nil, nil, err
	}
	if err := s.users.Insert(ctx, user); err != nil {
		dropRoot()
		return nil, nil, fmt.Errorf("insert user %q: %w", username, err)
	}
	return user, tokens, nil
}

// Login verifies the password against the stored bcrypt hash and rotates
// the refresh token. Lookup falls back to email when username is empty.
func (s *AuthService) Login(ctx context.Context, username, email, password string) (*models.User, *TokenPair, error) {
	var user *models.User
	var err error
	if username != "" {
		user, err = s.users.GetByUsername(ctx, username)
	} else {
		user, err = s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, fmt.Errorf("login: %w", ErrInvalidCredentials)
		}
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, fmt.Errorf("login %q: %w", user.Username, ErrInvalidCredentials)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("update user %q: %w", user.Username, err)
	}
	return user, tokens, nil
}

// Refresh exchanges an expired access token plus a live refresh token for a
// fresh pair, rotating the refresh token.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := utils.ParseExpiredJWT(accessToken, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", ErrInvalidCredentials)
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", ErrInvalidCredentials)
	}
	if user.RefreshToken == "" || user.RefreshToken != refreshToken || time.Now().After(user.RefreshTokenExpiry) {
		return nil, fmt.Errorf("refresh for %q: %w", user.Username, ErrInvalidCredentials)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user %q: %w", user.Username, err)
	}
	return tokens, nil
}

// Revoke clears the stored refresh token.
func (s *AuthService) Revoke(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke: %w", err)
	}
	user.RefreshToken = ""
	user.RefreshTokenExpiry = time.Time{}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("revoke for %q: %w", user.Username, err)
	}
	return nil
}

// CurrentUser resolves the authenticated user id from the JWT claims into
// the full user record, which carries the caller's drive-root id.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// issueTokens signs a fresh access token and stores a rotated refresh token
// on the user (the caller persists the user).
func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := utils.GenerateJWT(user, s.jwtSecret, s.jwtExpiry, s.jwtIssuer)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	raw := make([]byte, 64)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	refresh := base64.RawURLEncoding.EncodeToString(raw)

	user.RefreshToken = refresh
	user.RefreshTokenExpiry = time.Now().Add(s.refreshTTL)
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
