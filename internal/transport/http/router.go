package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-trip-api/internal/application/auth"
	"github.com/go-trip-api/internal/application/device"
	"github.com/go-trip-api/internal/application/itinerary"
	"github.com/go-trip-api/internal/application/notification"
	"github.com/go-trip-api/internal/application/push"
	"github.com/go-trip-api/internal/config"
	"github.com/go-trip-api/internal/domain"
	"github.com/go-trip-api/internal/infrastructure/dynamo"
	"github.com/go-trip-api/internal/infrastructure/fcm"
	jwtinfra "github.com/go-trip-api/internal/infrastructure/jwt"
	"github.com/go-trip-api/internal/infrastructure/smtp"
	"github.com/go-trip-api/internal/transport/http/handler"
	appmiddleware "github.com/go-trip-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	ItineraryRepo    *dynamo.ItineraryRepo
	MemberRepo       *dynamo.MemberRepo
	NotificationRepo *dynamo.NotificationRepo
	DeviceRepo       *dynamo.DeviceRepo
	Mailer           smtp.Mailer
	FCMSender        fcm.Sender
	JWTProvider      *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	deviceSvc := device.NewService(deps.DeviceRepo)
	pushSvc := push.NewService(deviceSvc, deps.FCMSender)
	itinSvc := itinerary.NewService(deps.ItineraryRepo, deps.MemberRepo, deps.UserRepo)
	notifSvc := notification.NewService(deps.NotificationRepo, deps.ItineraryRepo, deps.MemberRepo, deps.UserRepo, pushSvc, deps.Mailer)
	authSvc := auth.NewService(deps.UserRepo, deps.SessionRepo, deps.JWTProvider, cfg.RefreshTokenDur)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	itinH := handler.NewItineraryHandler(itinSvc)
	notifH := handler.NewNotificationHandler(notifSvc, itinSvc)
	deviceH := handler.NewDeviceHandler(deviceSvc, cfg.DeviceStaleDays)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.Post("/auth/refresh", authH.Refresh)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/logout", authH.Logout)

			r.Post("/itineraries", itinH.Create)
			r.Get("/itineraries/{id}", itinH.Get)
			r.Post("/itineraries/{id}/members", itinH.AddMember)
			r.Delete("/itineraries/{id}/members/{userID}", itinH.RemoveMember)
			r.With(sensitiveRL.Limit).Post("/itineraries/{id}/notifications", notifH.Announce)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread/count", notifH.CountUnread)
			r.Put("/notifications/mark-all-read", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkAsRead)
			r.Delete("/notifications/{id}", notifH.Delete)

			r.Post("/users/devices", deviceH.Register)
			r.Delete("/users/devices/{token}", deviceH.Deactivate)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/admin/devices/sweep", deviceH.Sweep)
			})
		})
	})

	return r
}
