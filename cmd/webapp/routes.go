package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"kanalyab/internal/catalog"
	"kanalyab/internal/core/logging"
	"kanalyab/internal/core/models"
	"kanalyab/internal/moderation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ModerationService is the submission workflow used by the handlers.
type ModerationService interface {
	CreateSubmission(ctx context.Context, in moderation.CreateSubmissionInput) (*models.Submission, error)
	ListPending(ctx context.Context) ([]models.Submission, error)
	ApproveSubmission(ctx context.Context, id int) (*models.Channel, error)
	RejectSubmission(ctx context.Context, id int) error
	DeleteSubmission(ctx context.Context, id int) error
}

// CatalogService is the channel and category directory used by the handlers.
type CatalogService interface {
	ListChannels(ctx context.Context, q catalog.ListQuery) (*catalog.ChannelPage, error)
	GetChannel(ctx context.Context, id string) (*models.Channel, error)
	UpdateChannel(ctx context.Context, id string, in catalog.UpdateChannelInput) (*models.Channel, error)
	SetVIP(ctx context.Context, id string, vip bool) error
	DeleteChannel(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	CreateCategory(ctx context.Context, in catalog.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int, in catalog.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

// routes builds the router.
func (app *Application) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(app.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.writeError(w, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		app.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", app.healthHandler)

		r.Get("/channels", app.listChannelsHandler)
		r.Get("/channels/{id}", app.getChannelHandler)
		r.Get("/categories", app.listCategoriesHandler)
		r.Get("/categories/{id}", app.getCategoryHandler)
		r.Post("/submissions", app.createSubmissionHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.requireAdmin)

			r.Get("/submissions/pending", app.listPendingHandler)
			r.Post("/submissions/{id}/approve", app.approveSubmissionHandler)
			r.Post("/submissions/{id}/reject", app.rejectSubmissionHandler)
			r.Delete("/submissions/{id}", app.deleteSubmissionHandler)

			r.Put("/channels/{id}", app.updateChannelHandler)
			r.Put("/channels/{id}/vip", app.setVIPHandler)
			r.Delete("/channels/{id}", app.deleteChannelHandler)

			r.Post("/categories", app.createCategoryHandler)
			r.Put("/categories/{id}", app.updateCategoryHandler)
			r.Delete("/categories/{id}", app.deleteCategoryHandler)
		})
	})

	return r
}

// requireAdmin admits requests carrying the configured bearer token.
func (app *Application) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		want := app.Config.AdminToken
		if !ok || want == "" || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(want)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			app.writeError(w, http.StatusUnauthorized, "administrator token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
