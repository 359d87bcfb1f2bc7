package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/libraria-backend/api/controllers"
	"github.com/angelmondragon/libraria-backend/api/middleware"
	"github.com/angelmondragon/libraria-backend/internal/books"
	"github.com/angelmondragon/libraria-backend/internal/borrows"
	"github.com/angelmondragon/libraria-backend/internal/members"
	"github.com/angelmondragon/libraria-backend/pkg/logger"
	"github.com/angelmondragon/libraria-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/libraria-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       *pkgredis.Client
	Books       books.Service
	Members     members.Service
	Borrows     borrows.Service
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		pingers := map[string]controllers.Pinger{"database": deps.DB}
		if deps.Redis != nil {
			pingers["redis"] = deps.Redis
		}
		r.Get("/ready", controllers.HealthReady(deps.Logger, pingers))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		var idempotencyStore pkgredis.IdempotencyStore
		if deps.Redis != nil {
			idempotencyStore = deps.Redis
		}
		r.Use(middleware.Idempotency(idempotencyStore, deps.Logger))

		r.Route("/books", func(r chi.Router) {
			r.Post("/", controllers.BookCreate(deps.Books, deps.Logger))
			r.Get("/", controllers.BookList(deps.Books, deps.Logger))
			r.Get("/{bookId}", controllers.BookGet(deps.Books, deps.Logger))
			r.Patch("/{bookId}", controllers.BookUpdate(deps.Books, deps.Logger))
			r.Delete("/{bookId}", controllers.BookDelete(deps.Books, deps.Logger))
		})

		r.Route("/members", func(r chi.Router) {
			r.Post("/", controllers.MemberCreate(deps.Members, deps.Logger))
			r.Get("/", controllers.MemberList(deps.Members, deps.Logger))
			r.Get("/{memberId}", controllers.MemberGet(deps.Members, deps.Logger))
			r.Patch("/{memberId}", controllers.MemberUpdate(deps.Members, deps.Logger))
			r.Delete("/{memberId}", controllers.MemberDelete(deps.Members, deps.Logger))

			r.Route("/{memberId}/borrowed-books", func(r chi.Router) {
				r.Get("/", controllers.BorrowedBooksList(deps.Borrows, deps.Logger))
				r.Post("/", controllers.BorrowCreate(deps.Borrows, deps.Logger))
				r.Delete("/{bookId}", controllers.BorrowReturn(deps.Borrows, deps.Logger))
			})
		})
	})

	return r
}
