// Package health отвечает на проверки живости процесса бота.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/byteport-bot/internal/http/response"
	"github.com/magabrotheeeer/byteport-bot/internal/lib/sl"
)

// Checker проверяет готовность зависимости, например хранилища.
type Checker func(ctx context.Context) error

// Handler обработчики проверки живости.
type Handler struct {
	log   *slog.Logger
	check Checker
}

// New создает Handler. check может быть nil.
func New(log *slog.Logger, check Checker) *Handler {
	return &Handler{
		log:   log,
		check: check,
	}
}

// Root отвечает статичным текстом на GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "Bot is running!")
}

// Healthz отвечает JSON-статусом на GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health.Healthz"
	if h.check != nil {
		if err := h.check(r.Context()); err != nil {
			h.log.Error("health check failed", slog.String("op", op), sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("dependency unavailable"))
			return
		}
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
	}))
}

// NewRouter собирает роутер: /, /healthz и /metrics из gatherer.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/", h.Root)
	router.Head("/", h.Root)
	router.Get("/healthz", h.Healthz)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return router
}
