package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mesa-pos/api/internal/config"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/events"
	"github.com/mesa-pos/api/internal/handler"
	"github.com/mesa-pos/api/internal/logger"
	mw "github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Committed order and invoice changes go to pub; a nil pub publishes to the
// hub only.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, pub events.Publisher) chi.Router {
	if pub == nil {
		pub = hub
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// WebSocket route (authenticates the upgrade itself)
	r.Get("/ws/{topic}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret, cfg.TokenTTL, cfg.CookieSecure)
	userHandler := handler.NewUserHandler(queries)
	categoryHandler := handler.NewCategoryHandler(queries)
	productHandler := handler.NewProductHandler(queries)

	orderService := service.NewOrderService(pool, queries, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	invoiceService := service.NewInvoiceService(pool, queries, func(db database.DBTX) service.InvoiceStore {
		return database.New(db)
	})
	orderHandler := handler.NewOrderHandler(orderService, pub)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, pub)
	reportsHandler := handler.NewReportsHandler(service.NewReportService(queries, cfg.ReportLocation()))

	r.Route("/api", func(r chi.Router) {
		// Login, logout and refresh are public.
		authHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))

			r.Get("/verify", authHandler.Verify)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireActiveUser(queries))

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.UserRoleAdmin))

					r.Post("/register", authHandler.Register)
					r.Route("/users", userHandler.RegisterRoutes)
					r.Route("/reports", reportsHandler.RegisterRoutes)
				})

				// Staff: every active role that may run the floor
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleEmployee))

					r.Route("/categories", func(r chi.Router) {
						categoryHandler.RegisterReadRoutes(r)
						r.With(mw.RequireRole(enum.UserRoleAdmin)).Group(categoryHandler.RegisterWriteRoutes)
					})
					r.Route("/products", func(r chi.Router) {
						productHandler.RegisterReadRoutes(r)
						r.With(mw.RequireRole(enum.UserRoleAdmin)).Group(productHandler.RegisterWriteRoutes)
					})
					r.Route("/orders", func(r chi.Router) {
						orderHandler.RegisterRoutes(r)
						invoiceHandler.RegisterOrderRoutes(r)
					})
					r.Route("/invoices", invoiceHandler.RegisterRoutes)
				})
			})
		})
	})

	log.Info().Msg("router initialized")
	return r
}
