// Package jwt issues and validates HS256 room tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "party-bot"

type Service interface {
	GenerateToken(userID uuid.UUID, roomCode string, role Role, ttl time.Duration) (string, error)
	// GenerateRoomToken uses the default TTL.
	GenerateRoomToken(userID uuid.UUID, roomCode string, role Role) (string, error)
	ValidateToken(tokenString string) (*RoomClaims, error)
}

type service struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

func NewService(secret string, defaultTTL time.Duration) Service {
	return &service{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (s *service) GenerateToken(userID uuid.UUID, roomCode string, role Role, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &RoomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Room: roomCode,
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

func (s *service) GenerateRoomToken(userID uuid.UUID, roomCode string, role Role) (string, error) {
	return s.GenerateToken(userID, roomCode, role, s.defaultTTL)
}

func (s *service) ValidateToken(tokenString string) (*RoomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RoomClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*RoomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return nil, ErrUnknownRole
	}
	return claims, nil
}
