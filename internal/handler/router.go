package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/danteocualesjr/ai-chatbot/internal/handler/chat"
	"github.com/danteocualesjr/ai-chatbot/internal/handler/events"
	middlewarePkg "github.com/danteocualesjr/ai-chatbot/internal/middleware"
	"github.com/danteocualesjr/ai-chatbot/internal/service/ai"
	"github.com/danteocualesjr/ai-chatbot/internal/service/session"
	"github.com/danteocualesjr/ai-chatbot/internal/store"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *session.Controller, aiSvc *ai.Service, st *store.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	hub := events.NewHub()
	sessions.OnConversationChange(hub.NotifyConversation)

	chatHandler := chathandler.New(sessions, aiSvc, st, hub.NotifyListChanged)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		hub.RegisterRoutes(api)
	})

	return r
}
