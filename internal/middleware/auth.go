package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "kpr/internal/errors"
	"kpr/internal/kv"
	"kpr/internal/models"
)

const issuer = "kpr-api"

const usedResetTokenPrefix = "reset-token-used:"

// ErrTokenAlreadyUsed is returned when a single-use token is presented again.
var ErrTokenAlreadyUsed = errors.New("token has already been used")

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "password_reset"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates HS256 tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	usedResets kv.Store
	now        func() time.Time
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(secret string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// TrackResetTokens records consumed password reset tokens in store so each
// one works once.
func (m *TokenManager) TrackResetTokens(store kv.Store) *TokenManager {
	m.usedResets = store
	return m
}

// AccessTTL is the access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// GenerateAccessToken generates a short-lived access token for a user.
func (m *TokenManager) GenerateAccessToken(user *models.User) (string, error) {
	return m.sign(user, TokenTypeAccess, m.accessTTL)
}

// GenerateRefreshToken generates a long-lived refresh token for a user. Every
// token carries a fresh jti, so rotation always yields a different token.
func (m *TokenManager) GenerateRefreshToken(user *models.User) (string, error) {
	return m.sign(user, TokenTypeRefresh, m.refreshTTL)
}

// GeneratePasswordResetToken issues the token handed out after a reset OTP is verified.
func (m *TokenManager) GeneratePasswordResetToken(user *models.User) (string, error) {
	return m.sign(user, TokenTypeReset, m.resetTTL)
}

// ValidateRefreshToken parses a refresh token.
func (m *TokenManager) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return m.parse(tokenString, TokenTypeRefresh)
}

// ValidatePasswordResetToken parses a password reset token.
func (m *TokenManager) ValidatePasswordResetToken(tokenString string) (*JWTClaims, error) {
	return m.parse(tokenString, TokenTypeReset)
}

// ConsumePasswordResetToken marks a validated reset token as used. A second
// call with the same token returns ErrTokenAlreadyUsed until it expires.
func (m *TokenManager) ConsumePasswordResetToken(ctx context.Context, claims *JWTClaims) error {
	if m.usedResets == nil {
		return errors.New("reset token tracking is not configured")
	}
	ttl := m.resetTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(m.now())
	}
	if ttl <= 0 {
		return ErrTokenAlreadyUsed
	}
	fresh, err := m.usedResets.SetIfAbsent(ctx, usedResetTokenPrefix+claims.ID, claims.UserID, ttl)
	if err != nil {
		return fmt.Errorf("record reset token: %w", err)
	}
	if !fresh {
		return ErrTokenAlreadyUsed
	}
	return nil
}

// ValidateAccessToken parses an access token.
func (m *TokenManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	return m.parse(tokenString, TokenTypeAccess)
}

func (m *TokenManager) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) parse(tokenString, tokenType string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid %s token", tokenType)
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("token is not a %s token", tokenType)
	}
	return claims, nil
}

// HashToken returns the SHA-256 hex digest of a token string.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// AuthMiddleware verifies the bearer access token and sets the user in the context
func AuthMiddleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithAppError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || tokenString == "" {
			abortWithAppError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := tokens.ValidateAccessToken(tokenString)
		if err != nil {
			abortWithAppError(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}
