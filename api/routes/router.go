package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lekhapadi/lekhapadi-backend/api/controllers"
	documentcontrollers "github.com/lekhapadi/lekhapadi-backend/api/controllers/documents"
	templatecontrollers "github.com/lekhapadi/lekhapadi-backend/api/controllers/templates"
	"github.com/lekhapadi/lekhapadi-backend/api/middleware"
	"github.com/lekhapadi/lekhapadi-backend/internal/documents"
	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
	"github.com/lekhapadi/lekhapadi-backend/pkg/db"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
	"github.com/lekhapadi/lekhapadi-backend/pkg/redis"
	"github.com/lekhapadi/lekhapadi-backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	metricsHandler http.Handler,
	documentsService documents.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.PublicURL),
	)

	checks := []controllers.ReadinessCheck{{Name: "db", Pinger: dbP}, {Name: "gcs", Pinger: gcsClient}}

	limits := documentcontrollers.Limits{
		DefaultList:    cfg.Documents.DefaultListLimit,
		MaxList:        cfg.Documents.MaxListLimit,
		MaxUploadBytes: cfg.Documents.MaxUploadBytes,
	}
	signaturePolicy := middleware.NewRateLimitPolicy(
		"signature_request",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.IdentityLimit,
	)

	var idempotencyStore redis.IdempotencyStore
	signatureLimit := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
		idempotencyStore = redisClient
		signatureLimit = middleware.RateLimit(signaturePolicy, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Eventing.IdempotencyTTL, logg))

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", templatecontrollers.List())
			r.Get("/{templateId}", templatecontrollers.Detail(logg))
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", documentcontrollers.List(documentsService, limits, logg))
			r.Post("/", documentcontrollers.Create(documentsService, logg))
			r.Post("/upload", documentcontrollers.Upload(documentsService, limits, logg))
			r.With(signatureLimit).Post("/request-signature", documentcontrollers.RequestSignature(documentsService, logg))
			r.Post("/upload-signed", documentcontrollers.UploadSigned(documentsService, limits, logg))
			r.Post("/digital-sign", documentcontrollers.DigitallySign(documentsService, logg))
			r.Get("/{documentId}", documentcontrollers.Detail(documentsService, logg))
			r.Delete("/{documentId}", documentcontrollers.Delete(documentsService, logg))
		})
	})

	return r
}
