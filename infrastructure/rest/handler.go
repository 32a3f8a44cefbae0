// Package rest exposes the HTTP surface of the relay next to the WebSocket
// endpoint: account management, a fallback submission route for clients
// without WebSocket support, history pagination and full-text search.
package rest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"

	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/infrastructure/storage"
	"chat-relay/services"
)

// Searcher answers full-text queries over accepted messages.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]storage.SearchHit, error)
}

type Handler struct {
	log         *slog.Logger
	auth        services.IAuthService
	verifier    contract.CredentialVerifier
	broadcaster contract.IBroadcaster
	repository  contract.IMessageRepository
	searcher    Searcher
	searchLimit int
}

func NewHandler(log *slog.Logger, auth services.IAuthService,
	verifier contract.CredentialVerifier, broadcaster contract.IBroadcaster,
	repository contract.IMessageRepository, searcher Searcher, searchLimit int) *Handler {
	return &Handler{
		log:         log,
		auth:        auth,
		verifier:    verifier,
		broadcaster: broadcaster,
		repository:  repository,
		searcher:    searcher,
		searchLimit: searchLimit,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("POST /signup", h.signup)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /send_message", h.sendMessage)
	mux.HandleFunc("GET /messages", h.messages)
	mux.HandleFunc("GET /search", h.search)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type submissionRequest struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

type messageItem struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat App Backend"})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrMalformedFrame)
		return
	}

	token, err := h.auth.Register(req.Email, req.Password)
	if err != nil {
		h.log.Warn("Signup rejected", "email", req.Email, "error", err)
		writeError(w, signupStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": string(token)})
}

func signupStatus(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrInvalidPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrMalformedFrame)
		return
	}

	token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.ErrInvalidCredentials)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": string(token)})
}

// sendMessage is the HTTP twin of the WebSocket submission frame: same
// credential check, same broadcaster, same error vocabulary.
func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrMalformedFrame)
		return
	}

	subjectID, err := h.verifier.Verify(req.Token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, errors.ErrEmptyMessage)
		return
	}

	cmd := chat.PostMessageCommand{
		SubjectID: subjectID,
		Content:   req.Message,
		CreatedAt: time.Now(),
	}
	if err := h.broadcaster.Publish(r.Context(), cmd); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Message sent"})
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}

	records, next, err := h.repository.GetMessages(cursor)
	if err != nil {
		h.log.Error("Failed to read message history", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	items := lo.Map(records, func(record chat.Record, _ int) messageItem {
		return messageItem{
			ID:        record.ID.String(),
			UserID:    record.SubjectID,
			Message:   record.Content,
			Timestamp: record.At.Format(chat.TimestampLayout),
		}
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": items,
		"cursor":   next,
	})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, errors.ErrMalformedFrame)
		return
	}

	hits, err := h.searcher.Search(r.Context(), query, h.searchLimit)
	if err != nil {
		h.log.Error("Search failed", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": errors.Reason(err)})
}
