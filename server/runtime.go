package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	bridge "github.com/ajitnk-lab/agentcore-bridge"
	"github.com/ajitnk-lab/agentcore-bridge/auth"
)

// Runtime is a fully wired bridge host: registry, credential manager,
// gateway client, bridge core, audit store, and the optional health probe.
type Runtime struct {
	Bridge   *bridge.Bridge
	Registry *bridge.Registry
	Gateway  *bridge.GatewayClient
	Auth     *auth.Manager
	Audit    AuditStore
	Health   *HealthChecker
	Server   *Server

	cfg    Config
	logger *slog.Logger
}

// NewRuntime wires every component from the validated configuration.
func NewRuntime(cfg Config, logger *slog.Logger) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		return nil, err
	}

	var cache *auth.TokenCache
	if cfg.Identity.CacheTokens {
		cache = auth.NewTokenCache(cfg.Identity.SafetyMargin)
	}
	manager, err := auth.NewManager(auth.ManagerConfig{
		TokenURL:     cfg.Identity.TokenURL,
		ClientID:     cfg.Identity.ClientID,
		ClientSecret: cfg.Identity.ClientSecret,
		Retry:        cfg.Identity.Retry,
		Cache:        cache,
	})
	if err != nil {
		return nil, err
	}

	gateway, err := bridge.NewGatewayClient(bridge.GatewayClientConfig{
		Endpoint: cfg.Gateway.Endpoint,
		Retry:    cfg.Gateway.Retry,
	})
	if err != nil {
		return nil, err
	}

	core, err := bridge.New(bridge.Config{
		Registry:    registry,
		Credentials: manager,
		Gateway:     gateway,
		TokenBudget: cfg.Identity.TokenTimeout,
		CallBudget:  cfg.Gateway.CallTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	var audit AuditStore
	if cfg.Audit.SQLitePath != "" {
		audit, err = NewSQLiteAuditStore(cfg.Audit.SQLitePath)
		if err != nil {
			return nil, err
		}
	} else {
		audit = NewMemoryAuditStore(0)
	}

	var health *HealthChecker
	if cfg.Health.Schedule != "" {
		pinger := &credentialedPinger{gateway: gateway, credentials: manager}
		health, err = NewHealthChecker(pinger, cfg.Health.Schedule, cfg.Health.Timeout, logger)
		if err != nil {
			_ = audit.Close()
			return nil, err
		}
	}

	srv, err := NewServer(ServerConfig{
		Bridge:   core,
		Registry: registry,
		Audit:    audit,
		Health:   health,
		MaxBody:  cfg.Server.MaxBody,
		Logger:   logger,
	})
	if err != nil {
		_ = audit.Close()
		return nil, err
	}

	return &Runtime{
		Bridge:   core,
		Registry: registry,
		Gateway:  gateway,
		Auth:     manager,
		Audit:    audit,
		Health:   health,
		Server:   srv,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ListenAndServe runs the HTTP listener and the health probe schedule until
// ctx is cancelled, then drains in-flight requests.
func (rt *Runtime) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(rt.cfg.Server.Host, strconv.Itoa(rt.cfg.Server.Port))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      rt.Server.Handler(),
		ReadTimeout:  rt.cfg.Server.ReadTimeout,
		WriteTimeout: rt.cfg.Server.WriteTimeout,
	}

	if rt.Health != nil {
		go func() {
			if err := rt.Health.Run(ctx); err != nil && ctx.Err() == nil {
				rt.logger.Error("health probe loop stopped", slog.String("error", err.Error()))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("bridge listening", slog.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Close releases the runtime's persistent resources.
func (rt *Runtime) Close() error {
	if rt == nil || rt.Audit == nil {
		return nil
	}
	return rt.Audit.Close()
}

// credentialedPinger acquires a fresh credential for each gateway probe so
// the probe exercises the same auth path invocations use.
type credentialedPinger struct {
	gateway     *bridge.GatewayClient
	credentials bridge.CredentialSource
}

func (p *credentialedPinger) Ping(ctx context.Context) error {
	cred, err := p.credentials.Acquire(ctx)
	if err != nil {
		return err
	}
	return p.gateway.Ping(ctx, cred)
}
