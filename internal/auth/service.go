package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/linkbucket/internal/config"
	"github.com/abduss/linkbucket/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	refreshTokenLength = 48
	maxPasswordLength  = 72 // bcrypt limit
	tokenIssuer        = "linkbucket"
	tokenAudience      = "linkbucket-api"
)

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	RevokeToken(ctx context.Context, userID uuid.UUID, tokenHash string) error
	ConsumeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (User, error)
}

// sessionStore keeps cookie sessions; optional.
type sessionStore interface {
	Create(ctx context.Context, sess session.Session) (string, error)
	Lookup(ctx context.Context, id string) (session.Session, error)
	Destroy(ctx context.Context, id string) error
}

// Service encapsulates authentication use cases and the user directory.
type Service struct {
	store    userStore
	sessions sessionStore
	cfg      config.AuthConfig
	nowFunc  func() time.Time
}

// NewService creates a Service. sessions may be nil, in which case only bearer tokens are issued.
func NewService(store userStore, cfg config.AuthConfig, sessions sessionStore) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		cfg:      cfg,
		nowFunc:  time.Now,
	}
}

// RegisterInput carries data for user registration.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName *string
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult contains the user, its tokens and the session id when sessions are enabled.
type AuthResult struct {
	User      User
	Tokens    TokenPair
	SessionID string
}

type accessClaims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Register creates a new user, hashing the password and issuing credentials.
func (s *Service) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	if err := validateCredentials(input.Email, input.Password); err != nil {
		return AuthResult{}, err
	}

	hashedPassword, err := hashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, normalizeEmail(input.Email), hashedPassword, input.DisplayName)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return AuthResult{}, ErrEmailAlreadyExists
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	return s.issueCredentials(ctx, user)
}

// Login authenticates credentials and issues a fresh token pair and session.
func (s *Service) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	if err := validateCredentials(input.Email, input.Password); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := s.store.FindUserByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issueCredentials(ctx, user)
}

// Refresh exchanges a refresh token for a new token pair. The presented token
// is revoked, so each refresh token works once. No session is created.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return AuthResult{}, ErrInvalidRefreshToken
	}

	user, err := s.store.ConsumeRefreshToken(ctx, hashRefreshToken(refreshToken, s.cfg.RefreshTokenSecret), s.nowFunc())
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return AuthResult{}, ErrInvalidRefreshToken
		}
		return AuthResult{}, fmt.Errorf("consume refresh token: %w", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user.SafeUser(), Tokens: tokens}, nil
}

// Logout destroys the session and revokes the refresh token when given.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, sessionID, refreshToken string) error {
	if s.sessions != nil && sessionID != "" {
		if err := s.sessions.Destroy(ctx, sessionID); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if err := s.store.RevokeToken(ctx, userID, hashRefreshToken(refreshToken, s.cfg.RefreshTokenSecret)); err != nil {
			return err
		}
	}
	return nil
}

// ResolveOwner maps an account email to its user id. Unknown emails yield ErrUserNotFound.
func (s *Service) ResolveOwner(ctx context.Context, email string) (uuid.UUID, error) {
	email = normalizeEmail(email)
	if email == "" {
		return uuid.Nil, ErrUserNotFound
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

// Authenticate resolves a principal from a bearer token, falling back to a session id.
func (s *Service) Authenticate(ctx context.Context, bearer, sessionID string) (Principal, error) {
	if bearer != "" {
		return s.ValidateAccessToken(bearer)
	}
	if s.sessions == nil || sessionID == "" {
		return Principal{}, ErrUnauthorized
	}

	sess, err := s.sessions.Lookup(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	return Principal{UserID: sess.UserID, Email: sess.Email, IsAdmin: sess.IsAdmin}, nil
}

// ValidateAccessToken verifies the token signature and extracts the principal.
func (s *Service) ValidateAccessToken(tokenString string) (Principal, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Principal{}, ErrUnauthorized
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowFunc),
	)

	claims := &accessClaims{}
	parsed, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AccessTokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}

	return Principal{UserID: userID, Email: claims.Email, IsAdmin: claims.IsAdmin}, nil
}

func (s *Service) issueCredentials(ctx context.Context, user User) (AuthResult, error) {
	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}
	result := AuthResult{User: user.SafeUser(), Tokens: tokens}

	if s.sessions != nil {
		sid, err := s.sessions.Create(ctx, session.Session{
			UserID:    user.ID,
			Email:     user.Email,
			IsAdmin:   user.IsAdmin,
			CreatedAt: s.nowFunc().UTC(),
		})
		if err != nil {
			return AuthResult{}, fmt.Errorf("create session: %w", err)
		}
		result.SessionID = sid
	}

	return result, nil
}

func (s *Service) issueTokens(ctx context.Context, user User) (TokenPair, error) {
	now := s.nowFunc()

	accessToken, accessExpiry, err := s.generateAccessToken(user, now)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := randomToken(refreshTokenLength)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshExpiry := now.Add(s.cfg.RefreshTokenTTL)

	refreshHash := hashRefreshToken(refreshToken, s.cfg.RefreshTokenSecret)
	if err := s.store.StoreRefreshToken(ctx, user.ID, refreshHash, refreshExpiry); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:        accessToken,
		AccessTokenExpiry:  accessExpiry,
		RefreshToken:       refreshToken,
		RefreshTokenExpiry: refreshExpiry,
	}, nil
}

func (s *Service) generateAccessToken(user User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.AccessTokenTTL)
	claims := accessClaims{
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func randomToken(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordLength {
		return "", fmt.Errorf("password exceeds maximum length of %d characters", maxPasswordLength)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func hashRefreshToken(token, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if len(strings.TrimSpace(email)) == 0 || len(strings.TrimSpace(password)) == 0 {
		return ErrInvalidCredentials
	}

	if len(password) < 8 || len(password) > maxPasswordLength {
		return ErrInvalidCredentials
	}
	return nil
}
