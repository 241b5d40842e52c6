package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"reelforge/internal/api"
	"reelforge/internal/ledger"
	"reelforge/internal/logging"
	"reelforge/internal/version"
)

func (d *Daemon) routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/api/generate-animation", d.handleGenerate).Methods(http.MethodPost)
	router.HandleFunc("/api/animations/{id}/status", d.handleAnimationStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/conversations", d.handleListConversations).Methods(http.MethodGet)
	router.HandleFunc("/api/conversations/{id}", d.handleConversationDetail).Methods(http.MethodGet)
	router.HandleFunc("/api/conversations/{id}", d.handleRenameConversation).Methods(http.MethodPatch)
	router.HandleFunc("/api/conversations/{id}", d.handleDeleteConversation).Methods(http.MethodDelete)
	router.HandleFunc("/api/conversations/{id}/messages", d.handleMessages).Methods(http.MethodGet)
	router.HandleFunc("/api/messages", d.handlePostMessage).Methods(http.MethodPost)
	router.HandleFunc("/api/health", d.handleHealth).Methods(http.MethodGet)

	videoBase := strings.TrimSuffix(d.cfg.Paths.VideoURLBase, "/") + "/"
	router.PathPrefix(videoBase).Handler(
		http.StripPrefix(videoBase, http.FileServer(http.Dir(d.cfg.Paths.VideosDir))))

	return router
}

func (d *Daemon) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := d.service.Generate(r.Context(), req)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, resp)
}

func (d *Daemon) handleAnimationStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	view, err := d.service.AnimationStatus(r.Context(), id, r.URL.Query().Get("user_id"))
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, view)
}

func (d *Daemon) handleListConversations(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	resp, err := d.service.ListConversations(r.Context(), r.URL.Query().Get("user_id"), limit, offset)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, resp)
}

func (d *Daemon) handleConversationDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	resp, err := d.service.ConversationDetail(r.Context(), id, r.URL.Query().Get("user_id"))
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, resp)
}

func (d *Daemon) handleRenameConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req api.RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := d.service.RenameConversation(r.Context(), id, req)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, view)
}

func (d *Daemon) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	resp, err := d.service.DeleteConversation(r.Context(), id, r.URL.Query().Get("user_id"))
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, resp)
}

func (d *Daemon) handleMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	limit, offset := pagination(r)
	resp, err := d.service.Messages(r.Context(), id, r.URL.Query().Get("user_id"), limit, offset)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, resp)
}

func (d *Daemon) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req api.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := d.service.PostMessage(r.Context(), req)
	if err != nil {
		d.writeServiceError(w, err)
		return
	}
	d.writeJSON(w, http.StatusCreated, view)
}

func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int64(0)
	if !d.startedAt.IsZero() {
		uptime = int64(time.Since(d.startedAt).Seconds())
	}
	d.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:        "healthy",
		Version:       version.Version,
		UptimeSeconds: uptime,
	})
}

func pagination(r *http.Request) (limit, offset int) {
	query := r.URL.Query()
	limit, _ = strconv.Atoi(query.Get("limit"))
	offset, _ = strconv.Atoi(query.Get("offset"))
	return limit, offset
}

func (d *Daemon) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, api.ErrInvalidRequest):
		d.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		d.writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ledger.ErrTerminalState):
		d.writeError(w, http.StatusConflict, err.Error())
	default:
		d.logger.Error("request failed", logging.Error(err))
		d.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (d *Daemon) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		d.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (d *Daemon) writeError(w http.ResponseWriter, status int, message string) {
	d.writeJSON(w, status, map[string]string{"error": message})
}
