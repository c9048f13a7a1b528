package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Principal is the authenticated caller as reported by the identity
// provider. Role is either "user" or "admin".
type Principal struct {
	ID    string
	Email string
	Role  string
}

// Verifier resolves a bearer token to a principal. Verification is
// delegated to the external identity provider; this process never issues
// tokens itself.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// HTTPVerifier calls the provider's user endpoint (Supabase-style
// GET /auth/v1/user) with the caller's bearer token.
type HTTPVerifier struct {
	client *resty.Client
	apiKey string
}

func NewHTTPVerifier(baseURL, apiKey string) *HTTPVerifier {
	return &HTTPVerifier{
		client: resty.New().SetBaseURL(baseURL),
		apiKey: apiKey,
	}
}

type providerUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Role string `json:"role"`
	} `json:"user_metadata"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	var user providerUser
	resp, err := v.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("apikey", v.apiKey).
		SetResult(&user).
		Get("/auth/v1/user")
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	if resp.IsError() || user.ID == "" {
		return nil, ErrInvalidToken
	}

	role := user.UserMetadata.Role
	if role == "" {
		role = "user"
	}
	return &Principal{ID: user.ID, Email: user.Email, Role: role}, nil
}

// JWTVerifier validates provider-issued HS256 tokens locally with the
// shared secret. Development fallback for running without network access
// to the identity provider.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	role := claims.Role
	if role == "" {
		role = "user"
	}
	return &Principal{ID: claims.Subject, Email: claims.Email, Role: role}, nil
}
