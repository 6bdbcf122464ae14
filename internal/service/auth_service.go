package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/cbtarena/cbtarena-backend/internal/config"
)

// Common auth errors.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionAlreadyActive = errors.New("another device holds an active session")
	ErrSessionMissing       = errors.New("no active session")
	ErrSessionSuperseded    = errors.New("session superseded")
)

// TokenType distinguishes student vs admin tokens.
type TokenType string

const (
	TokenTypeStudent TokenType = "student"
	TokenTypeAdmin   TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    int       `json:"user_id"`
	ClassName string    `json:"class_name,omitempty"` // Student only
}

// AuthService handles password hashing, JWT issuance and the single-device
// student session registry.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
}

func NewAuthService(cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
// Any mismatch collapses to ErrInvalidCredentials.
func (s *AuthService) CheckPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// newClaims builds the claim set shared by student and admin tokens.
func (s *AuthService) newClaims(userID int, tokenType TokenType) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: tokenType,
		UserID:    userID,
	}
}

func (s *AuthService) sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// GenerateStudentToken issues a student JWT and claims the single-device
// session slot. The slot is claimed with SetNX so two racing logins cannot
// both win; the loser gets ErrSessionAlreadyActive until an admin resets
// the session or it expires with the token.
func (s *AuthService) GenerateStudentToken(ctx context.Context, studentID int, className string) (string, error) {
	claims := s.newClaims(studentID, TokenTypeStudent)
	claims.ClassName = className

	ok, err := s.rdb.SetNX(ctx, config.CacheKey.StudentSessionKey(studentID), claims.ID, s.cfg.JWTExpiry).Result()
	if err != nil {
		return "", fmt.Errorf("claim session: %w", err)
	}
	if !ok {
		return "", ErrSessionAlreadyActive
	}

	signed, err := s.sign(claims)
	if err != nil {
		// Free the slot so the student is not locked out by a signing failure.
		s.rdb.Del(ctx, config.CacheKey.StudentSessionKey(studentID))
		return "", err
	}
	return signed, nil
}

// GenerateAdminToken issues an admin JWT. Admins have no device restriction.
func (s *AuthService) GenerateAdminToken(adminID int) (string, error) {
	return s.sign(s.newClaims(adminID, TokenTypeAdmin))
}

// ValidateToken parses and verifies a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}

// ValidateStudentSession checks that the token's JTI still owns the session
// slot. A mismatch means an admin reset the session (and possibly a new
// device logged in since).
func (s *AuthService) ValidateStudentSession(ctx context.Context, studentID int, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.StudentSessionKey(studentID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrSessionMissing
	case err != nil:
		return fmt.Errorf("check session: %w", err)
	case stored != jti:
		return ErrSessionSuperseded
	}
	return nil
}

// ResetStudentSession frees the session slot so the student can log in again.
func (s *AuthService) ResetStudentSession(ctx context.Context, studentID int) error {
	return s.rdb.Del(ctx, config.CacheKey.StudentSessionKey(studentID)).Err()
}
