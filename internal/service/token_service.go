package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/edunest/tutoring-api/internal/models"
	appErrors "github.com/edunest/tutoring-api/pkg/errors"
)

// TokenService validates access tokens issued by the identity provider.
// Token issuance lives outside this API; only HS256 verification happens here.
type TokenService struct {
	secret []byte
	logger *zap.Logger
}

// NewTokenService constructs the token service.
func NewTokenService(secret string, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{secret: []byte(secret), logger: logger}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
