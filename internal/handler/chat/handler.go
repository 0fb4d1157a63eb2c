package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	chatmodel "github.com/danteocualesjr/ai-chatbot/internal/model/chat"
	"github.com/danteocualesjr/ai-chatbot/internal/service/ai"
	"github.com/danteocualesjr/ai-chatbot/internal/service/session"
	"github.com/danteocualesjr/ai-chatbot/internal/store"
	"github.com/danteocualesjr/ai-chatbot/pkg/utils"
)

// transportErrorText is appended as an assistant turn when the
// completion request fails. The user's message stays in history so a
// resend retries it.
const transportErrorText = "Failed to get response from AI. Please check your API key and try again."

// Handler exposes the conversation session over HTTP.
type Handler struct {
	sessions *session.Controller
	aiSvc    *ai.Service
	store    *store.Store
	notify   func()
	busy     atomic.Bool
}

// New creates the chat handler. notify, if non-nil, is invoked after
// the stored conversation list changes (deletes and clears).
func New(sessions *session.Controller, aiSvc *ai.Service, st *store.Store, notify func()) *Handler {
	return &Handler{sessions: sessions, aiSvc: aiSvc, store: st, notify: notify}
}

// RegisterRoutes mounts the chat and conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat", h.handleState)
	r.Post("/chat/send", h.handleSend)
	r.Post("/chat/new", h.handleNew)
	r.Post("/chat/select", h.handleSelect)
	r.Get("/conversations", h.handleList)
	r.Delete("/conversations/{id}", h.handleDelete)
	r.Delete("/conversations", h.handleClear)
}

// sessionState is the view of the active session returned by most routes.
type sessionState struct {
	ID       string              `json:"id"`
	Messages []chatmodel.Message `json:"messages"`
}

func (h *Handler) state() sessionState {
	return sessionState{ID: h.sessions.ID(), Messages: h.sessions.Messages()}
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.state())
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// One completion request at a time; navigation and deletion stay
	// available while a reply is pending.
	if !h.busy.CompareAndSwap(false, true) {
		utils.RespondError(w, http.StatusConflict, "a reply is already in progress")
		return
	}
	defer h.busy.Store(false)

	if err := h.sessions.AppendUser(payload.Text, payload.Image); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "message must carry text or an image")
		return
	}

	if !h.aiSvc.Enabled() {
		h.sessions.AppendNotice(chatmodel.NotConfiguredNotice)
		utils.RespondJSON(w, http.StatusOK, h.state())
		return
	}

	reply, err := h.aiSvc.Send(r.Context(), h.sessions.Messages(), payload.Image)
	if err != nil {
		log.Warn().Err(err).Msg("completion failed")
		h.sessions.AppendAssistant(transportErrorText)
		utils.RespondJSON(w, http.StatusOK, h.state())
		return
	}

	h.sessions.AppendAssistant(reply)
	utils.RespondJSON(w, http.StatusOK, h.state())
}

func (h *Handler) handleNew(w http.ResponseWriter, r *http.Request) {
	h.sessions.NewChat()
	utils.RespondJSON(w, http.StatusOK, h.state())
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessions.Select(payload.ID); err != nil {
		if errors.Is(err, session.ErrConversationNotFound) {
			utils.RespondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to select conversation")
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.state())
}

// conversationSummary is the sidebar listing entry.
type conversationSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	UpdatedAt    int64  `json:"updatedAt"`
	MessageCount int    `json:"messageCount"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	conversations := h.store.LoadAll()
	summaries := make([]conversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summaries = append(summaries, conversationSummary{
			ID:           conv.ID,
			Title:        conv.Title,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
		})
	}
	utils.RespondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.store.Delete(id)
	h.sessions.ConversationDeleted(id)
	if h.notify != nil {
		h.notify()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	h.store.ClearAll()
	h.sessions.NewChat()
	if h.notify != nil {
		h.notify()
	}
	w.WriteHeader(http.StatusNoContent)
}
