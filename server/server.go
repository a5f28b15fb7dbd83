package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	bridge "github.com/ajitnk-lab/agentcore-bridge"
)

// BridgeInvoker runs one invocation end to end. *bridge.Bridge satisfies it;
// tests substitute a fake.
type BridgeInvoker interface {
	Invoke(ctx context.Context, req bridge.InvocationRequest) bridge.ResponseEnvelope
}

// ServerConfig configures a Server instance.
type ServerConfig struct {
	Bridge   BridgeInvoker
	Registry *bridge.Registry
	Audit    AuditStore
	Health   *HealthChecker
	MaxBody  int64
	Logger   *slog.Logger
}

// Server is the bridge HTTP API server.
type Server struct {
	bridge   BridgeInvoker
	registry *bridge.Registry
	audit    AuditStore
	health   *HealthChecker
	maxBody  int64
	logger   *slog.Logger
}

// NewServer creates a Server with the given configuration.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Bridge == nil {
		return nil, errors.New("server: bridge is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("server: registry is required")
	}
	audit := cfg.Audit
	if audit == nil {
		audit = NewMemoryAuditStore(0)
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = 1 << 20 // 1 MB default
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		bridge:   cfg.Bridge,
		registry: cfg.Registry,
		audit:    audit,
		health:   cfg.Health,
		maxBody:  maxBody,
		logger:   logger,
	}, nil
}

// Handler returns an http.Handler with all routes and middleware wired.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = s.maxBodyMiddleware(handler)

	return handler
}

// RegisterRoutes mounts bridge API routes onto an existing mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/invoke", s.handleInvoke)
	mux.HandleFunc("GET /v1/operations", s.handleListOperations)
	mux.HandleFunc("GET /v1/invocations", s.handleListInvocations)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// handleInvoke decodes an orchestrator request and runs it through the
// bridge. A decodable request always gets a 200 with the response envelope;
// failures travel inside the envelope, not as HTTP status codes.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req bridge.InvocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isMaxBytesError(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "PARSE_ERROR", err.Error())
		return
	}

	start := time.Now()
	envelope := s.bridge.Invoke(r.Context(), req)
	elapsed := time.Since(start)

	rec := InvocationRecord{
		ID:         uuid.New().String(),
		Operation:  envelope.Response.Operation,
		Status:     envelope.Response.Status,
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  start.UTC(),
	}
	if sig, ok := s.registry.Resolve(req.OperationID); ok {
		rec.ToolID = sig.ToolID
	}
	if envelope.Response.Status == bridge.StatusFailure {
		rec.ErrorKind = errorKindFromBody(envelope.Response.Body)
	}
	if err := s.audit.Insert(r.Context(), rec); err != nil {
		s.logger.Warn("audit insert failed",
			slog.String("invocation_id", rec.ID),
			slog.String("error", err.Error()))
	}

	writeJSON(w, http.StatusOK, envelope)
}

// operationDescriptor is one catalog entry in the operations listing.
type operationDescriptor struct {
	Operation  string                 `json:"operation"`
	ToolID     string                 `json:"toolId"`
	Parameters []bridge.ParameterSpec `json:"parameters"`
}

// handleListOperations returns the operation catalog in deterministic order.
func (s *Server) handleListOperations(w http.ResponseWriter, _ *http.Request) {
	ids := s.registry.OperationIDs()
	catalog := make([]operationDescriptor, 0, len(ids))
	for _, id := range ids {
		sig, ok := s.registry.Resolve(id)
		if !ok {
			continue
		}
		catalog = append(catalog, operationDescriptor{
			Operation:  id,
			ToolID:     sig.ToolID,
			Parameters: sig.Parameters,
		})
	}
	writeJSON(w, http.StatusOK, catalog)
}

// handleListInvocations returns the most recent audit records.
func (s *Server) handleListInvocations(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := s.audit.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	if records == nil {
		records = []InvocationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleHealth reports the latest gateway probe when one is scheduled, and a
// plain liveness response otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status := s.health.Status()
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// --- Middleware ---

func (s *Server) maxBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		next.ServeHTTP(w, r)
	})
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string, details ...string) {
	body := apiError{
		Error: apiErrorBody{
			Code:    code,
			Message: message,
		},
	}
	if len(details) > 0 {
		body.Error.Details = details
	}
	writeJSON(w, status, body)
}

func isMaxBytesError(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

var auditableKinds = []bridge.Kind{
	bridge.KindUnknownOperation,
	bridge.KindUnknownParameter,
	bridge.KindTypeCoercionFailed,
	bridge.KindMissingRequired,
	bridge.KindAuthentication,
	bridge.KindTransient,
	bridge.KindDownstream,
	bridge.KindProtocolViolation,
}

// errorKindFromBody recovers the taxonomy kind from a failure body. Bodies
// carried verbatim from the downstream tool have no kind prefix and audit as
// DOWNSTREAM_ERROR.
func errorKindFromBody(body string) string {
	for _, kind := range auditableKinds {
		if strings.HasPrefix(body, string(kind)+":") {
			return string(kind)
		}
	}
	return string(bridge.KindDownstream)
}
