package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	uploadTTL = 15 * time.Minute
	deleteTTL = time.Minute
)

type objectClaims struct {
	jwt.RegisteredClaims
	Ref    string `json:"ref"`
	Action string `json:"action"`
}

// SignedStorage talks to an object store that accepts HS256-signed tokens
// scoped to a single object and action.
type SignedStorage struct {
	baseURL    string
	signingKey []byte
	client     *http.Client
	logger     zerolog.Logger
}

func NewSignedStorage(baseURL string, signingKey []byte, client *http.Client, logger zerolog.Logger) *SignedStorage {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SignedStorage{
		baseURL:    baseURL,
		signingKey: signingKey,
		client:     client,
		logger:     logger.With().Str("component", "storage").Logger(),
	}
}

func (s *SignedStorage) GenerateUploadTarget(_ context.Context) (*UploadTarget, error) {
	ref := uuid.NewString()
	expires := time.Now().Add(uploadTTL)
	token, err := s.sign(ref, "upload", expires)
	if err != nil {
		return nil, err
	}
	return &UploadTarget{
		Ref:       ref,
		UploadURL: fmt.Sprintf("%s/upload/%s?token=%s", s.baseURL, url.PathEscape(ref), url.QueryEscape(token)),
		ExpiresAt: expires,
	}, nil
}

func (s *SignedStorage) ResolveURL(_ context.Context, ref string) (string, error) {
	if ref == "" {
		return "", ErrObjectNotFound
	}
	return s.objectURL(ref), nil
}

// Delete removes the object. A missing object is not an error.
func (s *SignedStorage) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	token, err := s.sign(ref, "delete", time.Now().Add(deleteTTL))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(ref), nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", ref, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		s.logger.Debug().Str("ref", ref).Msg("object already gone")
		return nil
	case resp.StatusCode >= 300:
		return fmt.Errorf("failed to delete object %s: status %d", ref, resp.StatusCode)
	}
	return nil
}

// ParseToken validates a token issued by this store and returns its object
// reference and action.
func (s *SignedStorage) ParseToken(token string) (string, string, error) {
	claims := &objectClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return "", "", fmt.Errorf("invalid object token: %w", err)
	}
	return claims.Ref, claims.Action, nil
}

func (s *SignedStorage) objectURL(ref string) string {
	return s.baseURL + "/objects/" + url.PathEscape(ref)
}

func (s *SignedStorage) sign(ref, action string, expires time.Time) (string, error) {
	claims := objectClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expires)},
		Ref:              ref,
		Action:           action,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", action, err)
	}
	return token, nil
}
