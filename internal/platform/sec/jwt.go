// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing) from
// the domain logic. It is injected into the application layer via small
// interfaces (TokenProvider, TokenVerifier).
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a JWT access token.
//
// # Why custom claims?
//
// By embedding the user's identifiers, role names and the per-user permission
// override list directly inside the JWT, the middleware can reconstruct the
// caller's capabilities WITHOUT querying the database on every request. The
// role names still need a permission-set lookup, but that lookup hits the
// role cache, never the user table.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID   string   `json:"uid"`
	Email    string   `json:"eml"`
	Username string   `json:"unm"`
	Roles    []string `json:"rol"`

	// Permissions is the per-user override list. When non-empty it fully
	// replaces the merged role permissions during authorization.
	Permissions []string `json:"prm,omitempty"`
}

// TokenService handles generation and verification of JWT tokens using HS256.
//
// The signing secret is shared between issuance and verification, matching the
// single-process deployment of the membership API.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService from a shared signing secret.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: signing secret must not be empty")
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// GenerateAccessToken creates a new signed JWT access token for a user.
func (service *TokenService) GenerateAccessToken(userID, email, username string, roles, permissions []string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:      userID,
		Email:       email,
		Username:    username,
		Roles:       roles,
		Permissions: permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a JWT string.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
