package server

import (
	"io"
	"net/http"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/logger"
	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

const (
	HealthPath        = "/api/health"
	QuotesPath        = "/api/quotes"
	NotificationsPath = "/api/notifications"

	_maxNotificationSize = 4 << 10
)

// Feed is the server side of the push channel as seen by the HTTP routes.
type Feed interface {
	Snapshot() model.Batch
	Publish(a model.Alert) error
}

type healthResponse struct {
	Status string `json:"status"`
}

type notificationRequest struct {
	Type    model.AlertType `json:"type"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
}

// NewRouter mounts the push channel at wsPath next to the plain HTTP endpoints.
func NewRouter(wsPath string, ws http.Handler, feed Feed, logger logger.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(wsPath, ws)
	mux.HandleFunc("GET "+HealthPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"}, logger)
	})
	mux.HandleFunc("GET "+QuotesPath, func(w http.ResponseWriter, r *http.Request) {
		batch := feed.Snapshot()
		if batch == nil {
			batch = model.Batch{}
		}
		writeJSON(w, http.StatusOK, batch, logger)
	})
	mux.HandleFunc("POST "+NotificationsPath, func(w http.ResponseWriter, r *http.Request) {
		publishNotification(w, r, feed, logger)
	})
	return mux
}

// publishNotification broadcasts an account or system alert to every
// subscriber. Market and trade alerts are produced by the feed itself.
func publishNotification(w http.ResponseWriter, r *http.Request, feed Feed, logger logger.Logger) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, _maxNotificationSize))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var req notificationRequest
	if err := sonic.ConfigStd.Unmarshal(body, &req); err != nil {
		http.Error(w, "malformed notification", http.StatusBadRequest)
		return
	}
	if req.Type != model.AccountAlert && req.Type != model.SystemAlert {
		http.Error(w, "notification type must be ACCOUNT or SYSTEM", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Message == "" {
		http.Error(w, "notification title and message are required", http.StatusBadRequest)
		return
	}

	a := model.Alert{
		ID:        "notif_" + uuid.NewString(),
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Timestamp: time.Now().UTC(),
	}
	if err := feed.Publish(a); err != nil {
		logger.Errorf("%s: can't publish notification", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	logger.Infof("published %s notification %s", a.Type, a.ID)
	writeJSON(w, http.StatusAccepted, a, logger)
}

func writeJSON(w http.ResponseWriter, code int, v any, logger logger.Logger) {
	body, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		logger.Errorf("%s: can't encode response", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		logger.Debugf("%s: can't write response", err)
	}
}
