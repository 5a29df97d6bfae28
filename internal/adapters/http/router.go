package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(handler *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(logger))
	r.Use(loggingMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, "", map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, "", map[string]string{"status": "ready"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/reports", func(r chi.Router) {
			r.Get("/overview", handler.getOverview)
			r.Get("/chat-volume", handler.getChatVolume)
			r.Get("/frt", handler.getFRT)
			r.Get("/sla", handler.getSLA)
			r.Get("/refunds", handler.getRefunds)
			r.Get("/fcr", handler.getFCR)
			r.Get("/long-running", handler.getLongRunning)
			r.Get("/abandonment", handler.getAbandonment)
			r.Get("/satisfaction", handler.getSatisfaction)
			r.Get("/comparison", handler.getComparison)
			r.Get("/summaries", handler.getSummaries)
			r.Get("/export", handler.exportReport)
		})

		r.Post("/messages", handler.postMessage)

		r.Route("/cases/{case_id}", func(r chi.Router) {
			r.Get("/", handler.getCase)
			r.Get("/episodes", handler.listEpisodes)
			r.Post("/episodes", handler.openEpisode)
			r.Post("/close", handler.closeEpisode)
			r.Post("/reopen", handler.reopenCase)
		})
	})

	return r
}
