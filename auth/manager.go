// Package auth acquires bearer credentials from the identity provider via the
// OAuth2 client-credentials grant. Authentication rejections are terminal;
// transport failures are retried with bounded exponential backoff.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	bridge "github.com/ajitnk-lab/agentcore-bridge"
)

// ManagerConfig configures the credential manager.
type ManagerConfig struct {
	// TokenURL is the identity provider's token endpoint.
	TokenURL string
	// ClientID identifies the bridge to the identity provider.
	ClientID string
	// ClientSecret may be empty; the Basic credential keeps the colon either way.
	ClientSecret string
	// HTTPClient is used for token requests. A default with a 10s timeout is
	// installed when nil.
	HTTPClient *http.Client
	// Retry bounds transient retries. Defaults to three attempts with
	// doubling, capped backoff.
	Retry bridge.BackoffPolicy
	// Cache, when set, serves unexpired credentials instead of requesting a
	// fresh token per invocation. Nil disables caching entirely.
	Cache *TokenCache
}

// Manager acquires credentials for one client identity.
type Manager struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	retry        bridge.BackoffPolicy
	cache        *TokenCache
}

// NewManager validates the configuration and builds a Manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.TokenURL) == "" {
		return nil, errors.New("auth: token url is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("auth: client id is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = bridge.DefaultBackoff()
	}
	return &Manager{
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   httpClient,
		retry:        retry,
		cache:        cfg.Cache,
	}, nil
}

// tokenResponse is the identity provider's token payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Acquire returns a bearer credential, serving from the cache when one is
// configured and unexpired. A 4xx from the identity provider fails
// immediately with zero retries; transport failures and 5xx responses are
// retried up to the configured bound.
func (m *Manager) Acquire(ctx context.Context) (bridge.Credential, error) {
	start := time.Now()

	if m.cache != nil {
		if cred, ok := m.cache.Get(m.clientID, time.Now()); ok {
			bridge.EmitTokenObservation(bridge.TokenObservation{
				ClientID:   m.clientID,
				Cached:     true,
				DurationMS: time.Since(start).Milliseconds(),
				Success:    true,
			})
			return cred, nil
		}
	}

	var cred bridge.Credential
	_, err := bridge.RetryTransient(ctx, m.retry, func(attempt int, attemptErr error) {
		bridge.EmitRetryObservation(bridge.RetryObservation{
			Scope:     "token",
			Attempt:   attempt,
			ErrorKind: bridge.KindOf(attemptErr),
		})
	}, func(ctx context.Context, attempt int) error {
		acquired, err := m.requestToken(ctx)
		if err != nil {
			return err
		}
		cred = acquired
		return nil
	})

	if err != nil {
		failure := classifyAcquireError(err)
		bridge.EmitTokenObservation(bridge.TokenObservation{
			ClientID:   m.clientID,
			DurationMS: time.Since(start).Milliseconds(),
			Success:    false,
			ErrorKind:  failure.Kind,
		})
		return bridge.Credential{}, failure
	}

	if m.cache != nil {
		m.cache.Put(m.clientID, cred)
	}
	bridge.EmitTokenObservation(bridge.TokenObservation{
		ClientID:   m.clientID,
		DurationMS: time.Since(start).Milliseconds(),
		Success:    true,
	})
	return cred, nil
}

// requestToken performs one client-credentials exchange.
func (m *Manager) requestToken(ctx context.Context) (bridge.Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return bridge.Credential{}, bridge.NewError(bridge.StageAuth, bridge.KindTransient, "build token request", err)
	}
	req.Header.Set("Authorization", "Basic "+basicCredential(m.clientID, m.clientSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return bridge.Credential{}, bridge.NewError(bridge.StageAuth, bridge.KindTransient, "token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return bridge.Credential{}, bridge.NewError(bridge.StageAuth, bridge.KindTransient, "read token response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fallthrough to decode
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return bridge.Credential{}, bridge.Errorf(bridge.StageAuth, bridge.KindAuthentication,
			"identity provider rejected credentials: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	default:
		return bridge.Credential{}, bridge.Errorf(bridge.StageAuth, bridge.KindTransient,
			"identity provider returned status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return bridge.Credential{}, bridge.NewError(bridge.StageAuth, bridge.KindProtocolViolation,
			"undecodable token response", err)
	}
	if token.AccessToken == "" {
		return bridge.Credential{}, bridge.Errorf(bridge.StageAuth, bridge.KindProtocolViolation,
			"token response carries no access token")
	}

	expiresAt := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return bridge.Credential{
		Token:     token.AccessToken,
		ExpiresAt: expiresAt,
	}, nil
}

// classifyAcquireError tags retry-loop errors that escaped classification.
func classifyAcquireError(err error) *bridge.Error {
	if bridgeErr, ok := bridge.AsBridgeError(err); ok {
		return bridgeErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return bridge.NewError(bridge.StageAuth, bridge.KindTransient, "token acquisition deadline exceeded", err)
	}
	return bridge.NewError(bridge.StageAuth, bridge.KindTransient, "", err)
}

// basicCredential encodes clientID:clientSecret for the Basic scheme. The
// colon is kept even when the secret is empty.
func basicCredential(clientID, clientSecret string) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", clientID, clientSecret)))
}
