package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/tinywideclouds/go-notification-relay/notificationrelay/config"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

const (
	maxRequestBodySize = 1 << 20 // 1 MiB
	requestIDHeader    = "X-Request-ID"
	errNotInitialized  = "firebase not initialized"
)

// Router is satisfied by *http.ServeMux.
type Router interface {
	Handle(pattern string, handler http.Handler)
}

type RelayAPI struct {
	// Dispatcher is nil when the provider client failed to initialize.
	Dispatcher  dispatch.Dispatcher
	Health      HealthConfig
	ExposeStack bool
	Logger      *slog.Logger
}

// NewRelayAPI captures the non-secret parts of creds for the health check;
// creds may be nil or incomplete.
func NewRelayAPI(dispatcher dispatch.Dispatcher, creds *config.Credentials, exposeStack bool, logger *slog.Logger) *RelayAPI {
	health := HealthConfig{PrivateKeyExists: creds.HasPrivateKey()}
	if creds != nil {
		health.ProjectID = creds.ProjectID
		health.ClientEmail = creds.ClientEmail
	}
	return &RelayAPI{
		Dispatcher:  dispatcher,
		Health:      health,
		ExposeStack: exposeStack,
		Logger:      logger.With("component", "RelayAPI"),
	}
}

// RegisterRoutes mounts the relay endpoints on mux, each wrapped by wrap.
func (api *RelayAPI) RegisterRoutes(mux Router, wrap func(http.Handler) http.Handler) {
	preflight := wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	mux.Handle("GET /{$}", wrap(http.HandlerFunc(api.HealthCheck)))
	mux.Handle("POST /send-notification", wrap(http.HandlerFunc(api.SendNotification)))
	mux.Handle("POST /send-notifications", wrap(http.HandlerFunc(api.SendNotifications)))
	mux.Handle("OPTIONS /send-notification", preflight)
	mux.Handle("OPTIONS /send-notifications", preflight)
}

// --- Health ---

type HealthConfig struct {
	ProjectID        string `json:"project_id"`
	ClientEmail      string `json:"client_email"`
	PrivateKeyExists bool   `json:"private_key_exists"`
}

type HealthResponse struct {
	Status              string       `json:"status"`
	FirebaseInitialized bool         `json:"firebaseInitialized"`
	Config              HealthConfig `json:"config"`
}

func (api *RelayAPI) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:              "ok",
		FirebaseInitialized: api.Dispatcher != nil,
		Config:              api.Health,
	})
}

// --- Single send ---

type SendNotificationRequest struct {
	Token string            `json:"token" validate:"required"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

type SendNotificationResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

func (api *RelayAPI) SendNotification(w http.ResponseWriter, r *http.Request) {
	logger := api.requestLogger(w)

	var req SendNotificationRequest
	if !api.decodeAndValidate(w, r, logger, &req) {
		return
	}
	if api.Dispatcher == nil {
		api.writeNotInitialized(w, logger)
		return
	}

	messageID, err := api.Dispatcher.Send(r.Context(), req.Token, toNotification(req.Title, req.Body, req.Data))
	if err != nil {
		api.writeProviderError(w, logger, err)
		return
	}

	logger.Info("Notification relayed", "message_id", messageID)
	writeJSON(w, http.StatusOK, SendNotificationResponse{Success: true, MessageID: messageID})
}

// --- Batch send ---

type SendNotificationsRequest struct {
	Tokens []string          `json:"tokens" validate:"required,min=1,dive,required"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
}

type SendNotificationsResponse struct {
	Success bool `json:"success"`
	*dispatch.BatchResult
}

func (api *RelayAPI) SendNotifications(w http.ResponseWriter, r *http.Request) {
	logger := api.requestLogger(w)

	var req SendNotificationsRequest
	if !api.decodeAndValidate(w, r, logger, &req) {
		return
	}
	if api.Dispatcher == nil {
		api.writeNotInitialized(w, logger)
		return
	}

	result, err := api.Dispatcher.SendBatch(r.Context(), req.Tokens, toNotification(req.Title, req.Body, req.Data))
	if err != nil {
		api.writeProviderError(w, logger, err)
		return
	}

	logger.Info("Batch relayed",
		"tokens", len(req.Tokens),
		"success", result.SuccessCount,
		"failure", result.FailureCount,
	)
	writeJSON(w, http.StatusOK, SendNotificationsResponse{Success: true, BatchResult: result})
}

// --- Helpers ---

func toNotification(title, body string, data map[string]string) dispatch.Notification {
	return dispatch.Notification{
		Content: notification.NotificationContent{Title: title, Body: body},
		Data:    data,
	}
}

func (api *RelayAPI) requestLogger(w http.ResponseWriter) *slog.Logger {
	requestID := uuid.NewString()
	w.Header().Set(requestIDHeader, requestID)
	return api.Logger.With("request_id", requestID)
}

func (api *RelayAPI) decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("Request rejected: JSON decode failed", "err", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if msg := validateRequest(dst); msg != "" {
		logger.Warn("Request rejected: validation failed", "reason", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

func (api *RelayAPI) writeNotInitialized(w http.ResponseWriter, logger *slog.Logger) {
	logger.Error("Request rejected: provider client not initialized")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: errNotInitialized,
		Code:  dispatch.CodeNotInitialized,
	})
}

// writeProviderError passes the provider's message and code through untouched.
func (api *RelayAPI) writeProviderError(w http.ResponseWriter, logger *slog.Logger, err error) {
	resp := ErrorResponse{
		Error: err.Error(),
		Code:  dispatch.CodeOf(err, dispatch.CodeUnknown),
	}
	if api.ExposeStack {
		resp.Stack = string(debug.Stack())
	}
	logger.Error("Provider call failed", "code", resp.Code, "err", err)
	writeJSON(w, http.StatusInternalServerError, resp)
}
