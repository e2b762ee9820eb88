// Package session decodes the bearer token handed out by the task
// service. The decode is deliberately unverified: the client only needs
// the embedded identity to pick endpoints and gate controls, and the
// server re-checks authorization on every request.
package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okeefe/taskdeck/internal/model"
)

// Decode extracts the identity claims from a JWT without verifying its
// signature. It fails on anything that is not a three-part token with a
// base64url JSON payload.
func Decode(token string) (model.Claims, error) {
	var claims model.Claims

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return claims, fmt.Errorf("malformed token: expected 3 segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return claims, fmt.Errorf("decode token payload: %w", err)
	}

	if err := json.Unmarshal(payload, &claims); err != nil {
		return claims, fmt.Errorf("parse token payload: %w", err)
	}

	return claims, nil
}
