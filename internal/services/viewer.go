package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ViewerTokenService issues and validates tokens for local companion-server viewers
type ViewerTokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewViewerTokenService creates a new viewer token service
func NewViewerTokenService(secret string, ttl time.Duration) *ViewerTokenService {
	return &ViewerTokenService{secret: []byte(secret), ttl: ttl}
}

// Issue generates a token for a new viewer and returns it with the viewer id
func (s *ViewerTokenService) Issue() (string, string, error) {
	viewerID := uuid.New().String()
	now := time.Now()
	claims := jwt.MapClaims{
		"viewer_id": viewerID,
		"exp":       now.Add(s.ttl).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, viewerID, nil
}

// Validate validates a token and returns the viewer id
func (s *ViewerTokenService) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	viewerID, ok := claims["viewer_id"].(string)
	if !ok {
		return "", fmt.Errorf("viewer_id not found in token")
	}
	return viewerID, nil
}
