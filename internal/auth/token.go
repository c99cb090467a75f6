package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of every issued token.
const TokenTTL = 8 * time.Hour

var (
	ErrMissingToken     = errors.New("missing token")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpiredToken     = errors.New("token expired")
	ErrInsufficientRole = errors.New("insufficient role")
	ErrEmptySecret      = errors.New("token secret must not be empty")
)

// Claims is the decoded token payload. Numbers decode as float64.
type Claims map[string]any

// String returns the string claim stored under key.
func (c Claims) String(key string) string {
	v, _ := c[key].(string)
	return v
}

// Int64 returns the numeric claim stored under key.
func (c Claims) Int64(key string) (int64, bool) {
	switch v := c[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

// TokenManager issues and verifies HS256 bearer tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenManager struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces the wall clock used for iat, exp and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a manager signing with secret.
func NewTokenManager(secret string, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	tm := &TokenManager{
		secret: []byte(secret),
		now:    time.Now,
		// Expiry is checked against whole seconds in Verify; the library's
		// own check rejects a token during its final second.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Issue signs claims into a token. iat and exp are always set by the manager,
// overwriting any caller-supplied values.
func (tm *TokenManager) Issue(claims Claims) (string, error) {
	payload := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		payload[k] = v
	}
	iat := tm.now().Unix()
	payload["iat"] = iat
	payload["exp"] = iat + int64(TokenTTL/time.Second)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns its payload.
// Errors wrap one of ErrMissingToken, ErrMalformedToken, ErrInvalidSignature
// or ErrExpiredToken.
//
// The signature is checked over the raw segments before either of them is
// decoded, so a forged header or payload always reports ErrInvalidSignature.
func (tm *TokenManager) Verify(token string) (Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}
	if err := tm.checkSignature(parts); err != nil {
		return nil, err
	}

	payload := jwt.MapClaims{}
	if _, err := tm.parser.ParseWithClaims(token, payload, tm.key); err != nil {
		return nil, classify(err)
	}

	exp, ok := payload["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: exp claim missing", ErrMalformedToken)
	}
	if exp < float64(tm.now().Unix()) {
		return nil, ErrExpiredToken
	}
	return Claims(payload), nil
}

// checkSignature recomputes the HS256 MAC of header.payload. A signature
// segment that is not base64url-no-pad counts as zero bytes long, so it
// fails the length check inside hmac.Equal.
func (tm *TokenManager) checkSignature(parts []string) error {
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		sig = nil
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, tm.secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

func (tm *TokenManager) key(*jwt.Token) (interface{}, error) {
	return tm.secret, nil
}

// classify maps library errors onto the verification error taxonomy. HMAC
// verification compares lengths before the constant-time hmac.Equal check.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
