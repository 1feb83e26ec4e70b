// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package botauth signs and verifies a stable bot_id claim so a
// reconnecting stream can prove it is the same logical bot across
// stream_id churn (a new stream_id is minted every process lifetime).
// Proving bot_id continuity is what lets a caller decide to call
// BeliefBus.ForceSnapshot() on reconnect.
package botauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"saliencycore/logger"
)

// Signer issues and verifies bot_id tokens using a shared HMAC secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner constructs a Signer. ttl is how long an issued token remains
// valid; zero means tokens never expire.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token carrying botID as its subject claim.
func (s *Signer) Issue(botID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": botID,
		"iat": now.Unix(),
	}
	if s.ttl != 0 {
		claims["exp"] = now.Add(s.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates a signed token and returns the bot_id it asserts.
// Signature, expiration, and issued-at are all checked; an algorithm
// other than HMAC is rejected outright (prevents algorithm substitution).
func (s *Signer) Verify(tokenStr string) (string, error) {
	parsed, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithIssuedAt())
	if err != nil {
		logger.Warn("botauth: token validation failed: %v", err)
		return "", err
	}
	if !parsed.Valid {
		return "", fmt.Errorf("botauth: token invalid")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("botauth: unexpected claims shape")
	}
	botID, ok := claims["sub"].(string)
	if !ok || botID == "" {
		return "", fmt.Errorf("botauth: missing sub claim")
	}
	return botID, nil
}

// SameBot reports whether tokenStr asserts botID, swallowing any
// verification error as "not the same bot" rather than propagating it —
// this check gates a reconnect-resync decision, not a security boundary.
func (s *Signer) SameBot(tokenStr, botID string) bool {
	asserted, err := s.Verify(tokenStr)
	if err != nil {
		return false
	}
	return asserted == botID
}
