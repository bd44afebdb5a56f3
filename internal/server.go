package internal

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"asset-inventory-api/internal/auth"
	"asset-inventory-api/internal/config"
	"asset-inventory-api/internal/database"
	"asset-inventory-api/internal/handlers"
	"asset-inventory-api/internal/inventory"
	"asset-inventory-api/internal/response"
	"asset-inventory-api/pkg/importer"
)

//go:embed openapi
var openapiFS embed.FS

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// passwordHasher is the credential hasher used by the account handlers.
type passwordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

type Server struct {
	DB      *database.DB
	Router  *chi.Mux
	Tokens  *auth.TokenManager
	Hasher  passwordHasher
	Catalog *inventory.Catalog
	Metrics *Metrics
	Logger  *slog.Logger

	cfg *config.Config
}

// NewServer wires the routes onto an already opened pool. The caller owns db.
func NewServer(cfg *config.Config, db *database.DB, logger *slog.Logger) (*Server, error) {
	tokens := auth.NewTokenManager(cfg.SecretKey, cfg.JWTExpiry)
	if err := tokens.ValidateConfig(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		DB:      db,
		Router:  chi.NewRouter(),
		Tokens:  tokens,
		Hasher:  auth.NewHasher(auth.DefaultCost),
		Catalog: inventory.NewCatalog(db, cfg.MoveAtomic),
		Metrics: NewMetrics(),
		Logger:  logger,
		cfg:     cfg,
	}

	// chi requires middleware before any route
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(requestLogger(logger))
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)
	if cfg.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get("/dbping", s.dbPing)
	s.mountDocs(s.Router)

	// Account routes stay public: they are how a client obtains a token
	s.Router.Post("/register", s.register)
	s.Router.Post("/login", s.login)
	s.Router.Post("/authen", s.authen)
	s.Router.Post("/check-username", s.checkUsername)

	s.Router.Group(func(r chi.Router) {
		if cfg.RequireAuth {
			r.Use(auth.RequireBearer(s.Tokens))
		}
		s.mountInventoryRoutes(r)
	})

	return s, nil
}

func (s *Server) dbPing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		s.Logger.Error("database ping failed", slog.Any("error", err))
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := w.Write([]byte("db: ok")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// mountInventoryRoutes mounts the CRUD, dashboard, move and import routes
func (s *Server) mountInventoryRoutes(r chi.Router) {
	r.Put("/users/{id}/reset-password", s.resetPassword)

	c := s.Catalog
	mountResource(r, s, c.HardwareAssets)
	mountResource(r, s, c.HardwareAccessories)
	mountResource(r, s, c.SoftwareAssets)
	mountResource(r, s, c.SoftwareYearly)
	mountResource(r, s, c.HardwareAmortized)

	r.Post("/movetohw-amortized/{id}", s.moveToAmortized)

	// Dashboard
	r.Get("/hwtotal", s.countHandler(c.HardwareAssets))
	r.Get("/accstotal", s.countHandler(c.HardwareAccessories))
	r.Get("/swtotal", s.countHandler(c.SoftwareAssets))
	r.Get("/swyeartotal", s.countHandler(c.SoftwareYearly))
	r.Get("/amortizedtotal", s.countHandler(c.HardwareAmortized))
	r.Get("/hwtotalprice", s.sumPriceHandler(c.HardwareAssets))
	r.Get("/accstotalprice", s.sumPriceHandler(c.HardwareAccessories))
	r.Get("/swtotalprice", s.sumPriceHandler(c.SoftwareAssets))
	r.Get("/swyeartotalprice", s.sumPriceHandler(c.SoftwareYearly))
	r.Get("/amortizedtotalprice", s.sumPriceHandler(c.HardwareAmortized))

	var mapping *importer.Mapping
	if s.cfg.ImportMapping != "" {
		m, err := importer.LoadMapping(s.cfg.ImportMapping)
		if err != nil {
			s.Logger.Warn("import mapping not loaded, matching headers to field names",
				slog.String("path", s.cfg.ImportMapping), slog.Any("error", err))
		} else {
			mapping = m
		}
	}
	imports := handlers.NewImportsHandler(c, mapping, s.Logger)
	imports.Observer = s.Metrics
	r.Post("/imports/{resource}", imports.UploadExcel)
}

// mountDocs serves the OpenAPI spec and Swagger UI
func (s *Server) mountDocs(mux *chi.Mux) {
	if !s.cfg.EnableSwagger {
		return
	}

	mux.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		data, err := openapiFS.ReadFile("openapi/openapi.yaml")
		if err != nil {
			http.Error(w, "Failed to read OpenAPI spec", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		if _, err := w.Write(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	mux.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<!doctype html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Asset Inventory API - Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: '/openapi.yaml',
                dom_id: '#swagger-ui',
                deepLinking: true,
                tryItOutEnabled: true
            });
        };
    </script>
</body>
</html>`))
	})
}
