package service

import (
	"time"

	"accounthub/api/internal/ids"
	"accounthub/api/internal/models"
	"accounthub/api/internal/security"
)

// JWTIssuer mints HS512 session tokens and the matching revocation record.
type JWTIssuer struct {
	secret string
	ttl    time.Duration
}

func NewJWTIssuer(secret string, ttl time.Duration) JWTIssuer {
	return JWTIssuer{secret: secret, ttl: ttl}
}

func (i JWTIssuer) Issue(userID string) (string, models.SessionToken, error) {
	tokenID := ids.New()

	signed, err := security.GenerateSessionToken(i.secret, userID, tokenID, i.ttl)
	if err != nil {
		return "", models.SessionToken{}, err
	}

	record := models.SessionToken{
		ID:        tokenID,
		UserID:    userID,
		TokenHash: security.HashSessionToken(signed),
		ExpiresAt: time.Now().Add(i.ttl),
	}
	return signed, record, nil
}

func (i JWTIssuer) Verify(token string) (string, error) {
	claims, err := security.ParseSessionToken(token, i.secret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
