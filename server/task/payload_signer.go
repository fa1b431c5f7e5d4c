// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// RequestBodyClaim is the JWT claim carrying the SHA-256 digest of the push
// payload, letting receivers verify the body they read matches the body
// that was signed.
const RequestBodyClaim = "request_body_sha256"

// PayloadSigner produces a signed JWT over a push payload. The token binds
// the payload by digest and carries an issued-at claim so receivers can
// reject replays.
type PayloadSigner struct {
	algorithm jwa.SignatureAlgorithm
	key       any
	issuer    string
}

// PayloadSignerConfig holds configuration for creating a PayloadSigner.
type PayloadSignerConfig struct {
	// Algorithm is the JWS signature algorithm, for example jwa.RS256().
	Algorithm jwa.SignatureAlgorithm

	// Key is the private signing key matching the algorithm.
	Key any

	// Issuer is an optional iss claim identifying this agent.
	Issuer string
}

// NewPayloadSigner creates a PayloadSigner with the given configuration.
func NewPayloadSigner(config PayloadSignerConfig) (*PayloadSigner, error) {
	if config.Key == nil {
		return nil, fmt.Errorf("signing key cannot be nil")
	}

	return &PayloadSigner{
		algorithm: config.Algorithm,
		key:       config.Key,
		issuer:    config.Issuer,
	}, nil
}

// Sign returns a compact serialized JWT binding the given payload.
func (p *PayloadSigner) Sign(payload []byte) (string, error) {
	digest := sha256.Sum256(payload)

	builder := jwt.NewBuilder().
		IssuedAt(time.Now()).
		Claim(RequestBodyClaim, hex.EncodeToString(digest[:]))
	if p.issuer != "" {
		builder = builder.Issuer(p.issuer)
	}

	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(p.algorithm, p.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// VerifyPayload parses and validates a signed push token and checks that
// the digest claim matches the payload. Receivers call this with the public
// key matching the sender's signer.
func VerifyPayload(tokenString string, payload []byte, algorithm jwa.SignatureAlgorithm, key any) error {
	token, err := jwt.Parse([]byte(tokenString), jwt.WithKey(algorithm, key), jwt.WithValidate(true))
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}

	var claimed string
	if err := token.Get(RequestBodyClaim, &claimed); err != nil {
		return fmt.Errorf("token missing %s claim: %w", RequestBodyClaim, err)
	}

	digest := sha256.Sum256(payload)
	if claimed != hex.EncodeToString(digest[:]) {
		return fmt.Errorf("payload digest mismatch")
	}
	return nil
}
