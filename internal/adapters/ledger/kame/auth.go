// Package kame implements the ERP adapter: provider master listing and
// accounting voucher submission.
package kame

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"constructoraicc/gopagos/internal/infrastructure/cache"
)

// HTTPClient interface allows using both standard and instrumented clients.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AuthManager handles the OAuth client-credentials flow with token caching.
type AuthManager struct {
	baseURL      string
	clientID     string
	clientSecret string
	audience     string
	tokenTTL     time.Duration
	cache        *cache.TokenCache
	client       HTTPClient
	log          *slog.Logger
	mu           sync.Mutex // serializes token refresh
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Audience     string `json:"audience"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewAuthManager(baseURL, clientID, clientSecret, audience string, tokenTTL time.Duration, client HTTPClient, log *slog.Logger) *AuthManager {
	return &AuthManager{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		audience:     audience,
		tokenTTL:     tokenTTL,
		cache:        cache.NewTokenCache(),
		client:       client,
		log:          log,
	}
}

// GetToken returns a valid access token, refreshing it when the cached one
// expired.
func (a *AuthManager) GetToken(ctx context.Context) (string, error) {
	if token, ok := a.cache.Get(); ok {
		return token, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring the lock, another goroutine might have
	// refreshed already.
	if token, ok := a.cache.Get(); ok {
		return token, nil
	}

	token, ttl, err := a.authenticate(ctx)
	if err != nil {
		a.log.Error("autenticación contra el ERP falló", "error", err)
		return "", fmt.Errorf("autenticando contra el ERP: %w", err)
	}

	a.cache.Set(token, ttl)
	a.log.Debug("token del ERP renovado", "ttl", ttl)
	return token, nil
}

func (a *AuthManager) authenticate(ctx context.Context) (string, time.Duration, error) {
	reqBody := tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		Audience:     a.audience,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("serializando request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/oauth/token", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", 0, fmt.Errorf("creando request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("ejecutando request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("leyendo respuesta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("estado %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, fmt.Errorf("decodificando respuesta: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, fmt.Errorf("respuesta sin access_token")
	}

	ttl := a.tokenTTL
	if tr.ExpiresIn > 0 {
		ttl = time.Duration(tr.ExpiresIn) * time.Second
	}
	return tr.AccessToken, ttl, nil
}

// ClearToken removes the cached token, forcing a refresh on next request.
func (a *AuthManager) ClearToken() {
	a.cache.Clear()
}
