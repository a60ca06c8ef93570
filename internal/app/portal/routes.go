// Package portal предоставляет маршруты и жизненный цикл основного приложения.
package portal

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/soulsirensomatics/portal/internal/http/handlers/auth/forgotpassword"
	"github.com/soulsirensomatics/portal/internal/http/handlers/auth/login"
	"github.com/soulsirensomatics/portal/internal/http/handlers/auth/me"
	"github.com/soulsirensomatics/portal/internal/http/handlers/auth/profile"
	"github.com/soulsirensomatics/portal/internal/http/handlers/auth/register"
	"github.com/soulsirensomatics/portal/internal/http/handlers/auth/resetpassword"
	bookingcreate "github.com/soulsirensomatics/portal/internal/http/handlers/booking/create"
	bookinglist "github.com/soulsirensomatics/portal/internal/http/handlers/booking/list"
	bookinglistmy "github.com/soulsirensomatics/portal/internal/http/handlers/booking/listmy"
	bookingread "github.com/soulsirensomatics/portal/internal/http/handlers/booking/read"
	bookingremove "github.com/soulsirensomatics/portal/internal/http/handlers/booking/remove"
	bookingupdate "github.com/soulsirensomatics/portal/internal/http/handlers/booking/update"
	clientlist "github.com/soulsirensomatics/portal/internal/http/handlers/client/list"
	clientlistbookings "github.com/soulsirensomatics/portal/internal/http/handlers/client/listbookings"
	clientlistscans "github.com/soulsirensomatics/portal/internal/http/handlers/client/listscans"
	clientread "github.com/soulsirensomatics/portal/internal/http/handlers/client/read"
	clientremove "github.com/soulsirensomatics/portal/internal/http/handlers/client/remove"
	clientupdate "github.com/soulsirensomatics/portal/internal/http/handlers/client/update"
	contactlist "github.com/soulsirensomatics/portal/internal/http/handlers/contact/list"
	contactread "github.com/soulsirensomatics/portal/internal/http/handlers/contact/read"
	contactremove "github.com/soulsirensomatics/portal/internal/http/handlers/contact/remove"
	contactsubmit "github.com/soulsirensomatics/portal/internal/http/handlers/contact/submit"
	contactupdate "github.com/soulsirensomatics/portal/internal/http/handlers/contact/update"
	"github.com/soulsirensomatics/portal/internal/http/handlers/health"
	membershipcreate "github.com/soulsirensomatics/portal/internal/http/handlers/membership/create"
	membershiplist "github.com/soulsirensomatics/portal/internal/http/handlers/membership/list"
	membershipmy "github.com/soulsirensomatics/portal/internal/http/handlers/membership/my"
	membershipread "github.com/soulsirensomatics/portal/internal/http/handlers/membership/read"
	membershipremove "github.com/soulsirensomatics/portal/internal/http/handlers/membership/remove"
	membershipupdate "github.com/soulsirensomatics/portal/internal/http/handlers/membership/update"
	scancreate "github.com/soulsirensomatics/portal/internal/http/handlers/scan/create"
	scanlist "github.com/soulsirensomatics/portal/internal/http/handlers/scan/list"
	scanlistmy "github.com/soulsirensomatics/portal/internal/http/handlers/scan/listmy"
	scanread "github.com/soulsirensomatics/portal/internal/http/handlers/scan/read"
	scanremove "github.com/soulsirensomatics/portal/internal/http/handlers/scan/remove"
	scanupdate "github.com/soulsirensomatics/portal/internal/http/handlers/scan/update"
	attachmentdownload "github.com/soulsirensomatics/portal/internal/http/handlers/scanattachment/download"
	attachmentlist "github.com/soulsirensomatics/portal/internal/http/handlers/scanattachment/list"
	attachmentremove "github.com/soulsirensomatics/portal/internal/http/handlers/scanattachment/remove"
	attachmentupload "github.com/soulsirensomatics/portal/internal/http/handlers/scanattachment/upload"
	"github.com/soulsirensomatics/portal/internal/http/middlewarectx"
	appjwt "github.com/soulsirensomatics/portal/internal/lib/jwt"
	authservice "github.com/soulsirensomatics/portal/internal/services/auth"
	bookingservice "github.com/soulsirensomatics/portal/internal/services/booking"
	clientservice "github.com/soulsirensomatics/portal/internal/services/client"
	contactservice "github.com/soulsirensomatics/portal/internal/services/contact"
	membershipservice "github.com/soulsirensomatics/portal/internal/services/membership"
	scanservice "github.com/soulsirensomatics/portal/internal/services/scan"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// Services объединяет сервисы, необходимые маршрутам приложения.
type Services struct {
	Auth       *authservice.AuthService
	Booking    *bookingservice.BookingService
	Scan       *scanservice.ScanService
	Membership *membershipservice.MembershipService
	Client     *clientservice.ClientService
	Contact    *contactservice.ContactService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, jwtMaker appjwt.Maker, users *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.RateLimitMiddleware(logger),
	)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)
		r.Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/forgot-password", forgotpassword.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/reset-password", resetpassword.New(logger, svc.Auth).ServeHTTP)
		r.Post("/contact", contactsubmit.New(logger, svc.Contact).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, users, logger))

			r.Get("/auth/me", me.New(logger).ServeHTTP)
			r.Put("/auth/profile", profile.New(logger, svc.Auth).ServeHTTP)

			r.Get("/bookings/my", bookinglistmy.New(logger, svc.Booking).ServeHTTP)
			r.Get("/bookings/{id}", bookingread.New(logger, svc.Booking).ServeHTTP)
			r.Post("/bookings", bookingcreate.New(logger, svc.Booking).ServeHTTP)
			r.Put("/bookings/{id}", bookingupdate.New(logger, svc.Booking).ServeHTTP)
			r.Delete("/bookings/{id}", bookingremove.New(logger, svc.Booking).ServeHTTP)

			r.Get("/scans/my", scanlistmy.New(logger, svc.Scan).ServeHTTP)
			r.Get("/scans/{id}", scanread.New(logger, svc.Scan).ServeHTTP)
			r.Get("/scans/{id}/attachments", attachmentlist.New(logger, svc.Scan).ServeHTTP)
			r.Get("/scans/{id}/attachments/{filename}", attachmentdownload.New(logger, svc.Scan).ServeHTTP)

			r.Get("/memberships/my", membershipmy.New(logger, svc.Membership).ServeHTTP)
			r.Post("/memberships", membershipcreate.New(logger, svc.Membership).ServeHTTP)

			// Административные операции
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))

				r.Get("/bookings", bookinglist.New(logger, svc.Booking).ServeHTTP)

				r.Get("/scans", scanlist.New(logger, svc.Scan).ServeHTTP)
				r.Get("/scans/admin/all", scanlist.New(logger, svc.Scan).ServeHTTP)
				r.Post("/scans", scancreate.New(logger, svc.Scan).ServeHTTP)
				r.Put("/scans/{id}", scanupdate.New(logger, svc.Scan).ServeHTTP)
				r.Delete("/scans/{id}", scanremove.New(logger, svc.Scan).ServeHTTP)
				r.Post("/scans/{id}/attachments", attachmentupload.New(logger, svc.Scan).ServeHTTP)
				r.Delete("/scans/{id}/attachments/{filename}", attachmentremove.New(logger, svc.Scan).ServeHTTP)

				r.Get("/memberships", membershiplist.New(logger, svc.Membership).ServeHTTP)
				r.Get("/memberships/{id}", membershipread.New(logger, svc.Membership).ServeHTTP)
				r.Put("/memberships/{id}", membershipupdate.New(logger, svc.Membership).ServeHTTP)
				r.Delete("/memberships/{id}", membershipremove.New(logger, svc.Membership).ServeHTTP)

				r.Get("/clients", clientlist.New(logger, svc.Client).ServeHTTP)
				r.Get("/clients/{id}", clientread.New(logger, svc.Client).ServeHTTP)
				r.Get("/clients/{id}/bookings", clientlistbookings.New(logger, svc.Client).ServeHTTP)
				r.Get("/clients/{id}/scans", clientlistscans.New(logger, svc.Client).ServeHTTP)
				r.Put("/clients/{id}", clientupdate.New(logger, svc.Client).ServeHTTP)
				r.Delete("/clients/{id}", clientremove.New(logger, svc.Client).ServeHTTP)

				r.Get("/contact", contactlist.New(logger, svc.Contact).ServeHTTP)
				r.Get("/contact/{id}", contactread.New(logger, svc.Contact).ServeHTTP)
				r.Put("/contact/{id}", contactupdate.New(logger, svc.Contact).ServeHTTP)
				r.Delete("/contact/{id}", contactremove.New(logger, svc.Contact).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
