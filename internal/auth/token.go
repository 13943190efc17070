package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Claims is the payload of a session access token.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	JTI   string `json:"jti"`
	Exp   int64  `json:"exp"`
}

// DownloadClaims is the payload of a short-lived transcript download token.
// The token is bound to a single transcript and carries the role that was in
// force when it was issued.
type DownloadClaims struct {
	Sub          string `json:"sub"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TranscriptID int64  `json:"transcriptId"`
	Exp          int64  `json:"exp"`
}

// IdentityClaims is the payload of a provider-signed identity assertion
// presented at session exchange.
type IdentityClaims struct {
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	OrgRole    string `json:"orgRole"`
	Exp        int64  `json:"exp"`
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

func IssueToken(secret []byte, claims Claims) (string, error) {
	return issue(secret, claims)
}

func ParseToken(secret []byte, token string) (Claims, error) {
	var claims Claims
	if err := parse(secret, token, &claims); err != nil {
		return Claims{}, err
	}
	if claims.Sub == "" || claims.Email == "" || claims.JTI == "" || claims.Exp == 0 {
		return Claims{}, ErrInvalidToken
	}
	if time.Now().Unix() >= claims.Exp {
		return Claims{}, ErrExpiredToken
	}
	return claims, nil
}

func IssueDownloadToken(secret []byte, claims DownloadClaims) (string, error) {
	return issue(secret, claims)
}

func ParseDownloadToken(secret []byte, token string) (DownloadClaims, error) {
	var claims DownloadClaims
	if err := parse(secret, token, &claims); err != nil {
		return DownloadClaims{}, err
	}
	if claims.Sub == "" || claims.Email == "" || claims.Role == "" || claims.TranscriptID == 0 || claims.Exp == 0 {
		return DownloadClaims{}, ErrInvalidToken
	}
	if time.Now().Unix() >= claims.Exp {
		return DownloadClaims{}, ErrExpiredToken
	}
	return claims, nil
}

func IssueIdentityAssertion(secret []byte, claims IdentityClaims) (string, error) {
	return issue(secret, claims)
}

func ParseIdentityAssertion(secret []byte, assertion string) (IdentityClaims, error) {
	var claims IdentityClaims
	if err := parse(secret, assertion, &claims); err != nil {
		return IdentityClaims{}, err
	}
	if claims.ExternalID == "" || claims.Email == "" || claims.Exp == 0 {
		return IdentityClaims{}, ErrInvalidToken
	}
	if time.Now().Unix() >= claims.Exp {
		return IdentityClaims{}, ErrExpiredToken
	}
	return claims, nil
}

func issue(secret []byte, claims any) (string, error) {
	payloadBytes, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	signature := sign(secret, payload)
	return payload + "." + signature, nil
}

func parse(secret []byte, token string, target any) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return ErrInvalidToken
	}
	payload := parts[0]
	signature := parts[1]

	expected := sign(secret, payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidToken
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return ErrInvalidToken
	}
	if err := json.Unmarshal(decoded, target); err != nil {
		return ErrInvalidToken
	}
	return nil
}

func sign(secret []byte, payload string) string {
	sum := hmac.New(sha256.New, secret)
	_, _ = sum.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(sum.Sum(nil))
}

func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("%x", sum)
}
