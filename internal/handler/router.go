package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kisansahay/kisan-sahay/backend/internal/handler/chat"
	"github.com/kisansahay/kisan-sahay/backend/internal/handler/ws"
	middlewarePkg "github.com/kisansahay/kisan-sahay/backend/internal/middleware"
	"github.com/kisansahay/kisan-sahay/backend/internal/service/conversation"
)

// NewRouter wires HTTP routes to the conversation service.
func NewRouter(convSvc *conversation.Service, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(convSvc)
	wsHandler := ws.New(hub, convSvc)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
