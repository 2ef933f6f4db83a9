package http

import (
	"net/http"
	"time"

	httpmw "github.com/moamarket/chat-service/internal/transport/http/middleware"
	"github.com/moamarket/chat-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, tokens httpmw.TokenVerifier, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// live-канал аутентифицируется токеном в query на рукопожатии
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(tokens))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/chat/rooms", func(rm chi.Router) {
			rm.Post("/", h.CreateRoom)
			rm.Get("/", h.ListRooms)

			rm.Route("/{roomID}", func(rr chi.Router) {
				rr.Get("/", h.RoomDetail)
				rr.Get("/messages", h.GetMessages)
				rr.Post("/messages", h.SendMessage)
				rr.Post("/read", h.MarkRead)
				rr.Post("/leave", h.LeaveRoom)
				rr.Post("/appointments", h.CreateAppointment)
			})
		})

		pr.Get("/notifications/counts", h.NotificationCounts)

		pr.Post("/listings/{listingID}/views", h.RegisterListingView)
		pr.Post("/community/posts/{postID}/views", h.RegisterCommunityPostView)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
