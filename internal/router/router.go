package router

import (
	"net/http"

	"greencart/internal/handler"
	"greencart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Products  *handler.ProductHandler
	Addresses *handler.AddressHandler
	Carts     *handler.CartHandler
	Orders    *handler.OrderHandler
	Webhook   *handler.WebhookHandler
	Health    http.HandlerFunc
	// Feed serves the seller websocket. Optional.
	Feed http.Handler
}

// Options holds cross-cutting router settings.
type Options struct {
	CORSOrigins      []string
	AllowCredentials bool
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth *middleware.Authenticator, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.CORSOrigins, opts.AllowCredentials))

	r.Get("/health", h.Health)

	// Signed by the payment provider; the handler needs the raw body.
	r.Post("/stripe", h.Webhook.Handle)

	r.Route("/api", func(r chi.Router) {
		r.Route("/product", func(r chi.Router) {
			r.Get("/list", h.Products.List)
			r.Get("/{id}", h.Products.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireSeller)
				r.Post("/add", h.Products.Add)
				r.Post("/stock", h.Products.ChangeStock)
			})
		})

		r.Route("/address", func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Post("/add", h.Addresses.Add)
			r.Get("/get", h.Addresses.List)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Get("/get", h.Carts.Get)
			r.Post("/update", h.Carts.Update)
		})

		r.Route("/order", func(r chi.Router) {
			r.Post("/webhook", h.Webhook.Handle)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireUser)
				r.Post("/cod", h.Orders.PlaceCOD)
				r.Post("/stripe", h.Orders.PlaceOnline)
				r.Get("/user", h.Orders.ListUser)
			})

			r.Route("/seller", func(r chi.Router) {
				r.Use(auth.RequireSeller)
				r.Get("/", h.Orders.ListSeller)
				r.Get("/export", h.Orders.Export)
				if h.Feed != nil {
					r.Handle("/feed", h.Feed)
				}
			})
		})
	})

	return otelhttp.NewHandler(r, "greencart",
		otelhttp.WithFilter(func(req *http.Request) bool { return req.URL.Path != "/health" }),
	)
}
