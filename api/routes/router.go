package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/vendorhub-backend/api/controllers"
	complaintcontrollers "github.com/angelmondragon/vendorhub-backend/api/controllers/complaints"
	documentcontrollers "github.com/angelmondragon/vendorhub-backend/api/controllers/documents"
	ordercontrollers "github.com/angelmondragon/vendorhub-backend/api/controllers/orders"
	refundcontrollers "github.com/angelmondragon/vendorhub-backend/api/controllers/refunds"
	"github.com/angelmondragon/vendorhub-backend/api/middleware"
	"github.com/angelmondragon/vendorhub-backend/internal/complaints"
	"github.com/angelmondragon/vendorhub-backend/internal/dispatch"
	"github.com/angelmondragon/vendorhub-backend/internal/documents"
	"github.com/angelmondragon/vendorhub-backend/internal/ledger"
	"github.com/angelmondragon/vendorhub-backend/internal/orders"
	products "github.com/angelmondragon/vendorhub-backend/internal/products"
	"github.com/angelmondragon/vendorhub-backend/internal/refunds"
	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	"github.com/angelmondragon/vendorhub-backend/pkg/metrics"
	"github.com/angelmondragon/vendorhub-backend/pkg/redis"
)

// Services bundles the domain services the API exposes.
type Services struct {
	Orders     orders.Service
	Dispatch   dispatch.Service
	Documents  documents.Service
	Refunds    refunds.Service
	Complaints complaints.Service
	Products   products.Service
	Ledger     ledger.Service
}

// Infra carries the shared infrastructure the router needs.
type Infra struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTP
}

const (
	admin    = enums.ActorRoleAdmin
	vendor   = enums.ActorRoleVendor
	courier  = enums.ActorRoleCourier
	customer = enums.ActorRoleCustomer
)

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, infra.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    infra.DB,
			"redis": infra.Redis,
		}))
	})
	if infra.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(auth.NewSigner(cfg.JWT), logg))
		r.Use(middleware.Idempotency(infra.Idempotency, cfg.Redis.IdempotencyTTL, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, customer, admin)).Post("/", ordercontrollers.Create(svc.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(svc.Orders, logg))
				r.Get("/documents", documentcontrollers.List(svc.Documents, logg))
				r.With(middleware.RequireRole(logg, admin)).Patch("/status", ordercontrollers.SetStatus(svc.Orders, logg))
				r.With(middleware.RequireRole(logg, admin)).Patch("/delivery", ordercontrollers.SetDelivery(svc.Orders, logg))
				r.With(middleware.RequireRole(logg, admin, vendor, courier)).Patch("/items/{itemId}", ordercontrollers.TransitionItem(svc.Orders, logg))
				r.With(middleware.RequireRole(logg, admin, vendor)).Post("/vendors/{vendorId}/dispatch", ordercontrollers.Dispatch(svc.Dispatch, logg))
			})
		})

		r.With(
			middleware.RequireRole(logg, admin, vendor, customer),
			middleware.PerActorRateLimit(cfg.RateLimit.DocumentsPerMinute, logg),
		).Post("/documents/{type}", documentcontrollers.Generate(svc.Documents, logg))

		r.Route("/refunds", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, customer, admin)).Post("/", refundcontrollers.Create(svc.Refunds, logg))
			r.Route("/{refundId}", func(r chi.Router) {
				r.With(middleware.RequireRole(logg, admin, vendor, customer)).Get("/", refundcontrollers.Detail(svc.Refunds, logg))
				r.With(middleware.RequireRole(logg, admin)).Patch("/", refundcontrollers.Decide(svc.Refunds, logg))
				r.With(middleware.RequireRole(logg, admin, vendor)).Post("/messages", refundcontrollers.PostMessage(svc.Refunds, logg))
			})
		})

		r.Route("/complaints", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, customer)).Post("/", complaintcontrollers.Create(svc.Complaints, logg))
			r.Get("/{complaintId}", complaintcontrollers.Detail(svc.Complaints, logg))
			r.With(middleware.RequireRole(logg, admin)).Patch("/{complaintId}", complaintcontrollers.Advance(svc.Complaints, logg))
		})

		r.With(middleware.RequireRole(logg, admin, vendor)).Post("/products", controllers.CreateProduct(svc.Products, logg))
		r.With(middleware.RequireRole(logg, admin)).Patch("/products/{productId}/commission", controllers.AdminUpdateCommission(svc.Products, logg))
		r.With(middleware.RequireRole(logg, admin)).Post("/vendors", controllers.AdminCreateVendor(svc.Products, logg))
		r.With(middleware.RequireRole(logg, admin, vendor)).Get("/vendors/{vendorId}/settlement", controllers.VendorSettlement(svc.Ledger, logg))
	})

	return r
}
