package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MartinKaiser/FinCal/app/controllers"
	"github.com/MartinKaiser/FinCal/internal/pkg/middleware"
	"github.com/MartinKaiser/FinCal/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerProtectedRoutes(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Post("/register", controllers.HandleAuthRegister)
	app.Post("/login", controllers.HandleAuthLogin)
	app.Get("/activate", controllers.HandleAuthActivate)
	app.Post("/logout", controllers.HandleAuthLogout)
}

// registerProtectedRoutes wires the session-authenticated application
// surface. The same resources are exposed under /api/v1 for API keys.
func (h HttpRouter) registerProtectedRoutes(app *fiber.App) {
	authed := app.Group("/", middleware.RequireAPISessionAuth)

	authed.Get("/account", controllers.HandleGetUserAccount)
	authed.Patch("/account/settings", controllers.HandleUserSettingsUpdate)
	authed.Post("/account/api-key", controllers.HandleAPIKeyIssue)
	authed.Delete("/account/api-key", controllers.HandleAPIKeyRevoke)

	authed.Get("/wallets", controllers.HandleWalletList)
	authed.Post("/wallets", controllers.HandleWalletCreate)
	authed.Get("/wallets/:id", controllers.HandleWalletGet)
	authed.Patch("/wallets/:id", controllers.HandleWalletUpdate)
	authed.Delete("/wallets/:id", controllers.HandleWalletDelete)

	authed.Get("/categories", controllers.HandleCategoryList)
	authed.Post("/categories", controllers.HandleCategoryCreate)
	authed.Patch("/categories/:id", controllers.HandleCategoryUpdate)
	authed.Delete("/categories/:id", controllers.HandleCategoryDelete)

	authed.Get("/transactions", controllers.HandleTransactionList)
	authed.Post("/transactions", controllers.HandleTransactionCreate)
	authed.Get("/transactions/:id", controllers.HandleTransactionGet)
	authed.Delete("/transactions/:id", controllers.HandleTransactionDelete)

	authed.Get("/subscriptions", controllers.HandleSubscriptionList)
	authed.Post("/subscriptions", controllers.HandleSubscriptionCreate)
	authed.Get("/subscriptions/:id", controllers.HandleSubscriptionGet)
	authed.Patch("/subscriptions/:id", controllers.HandleSubscriptionUpdate)
	authed.Post("/subscriptions/:id/pause", controllers.HandleSubscriptionPause)
	authed.Post("/subscriptions/:id/resume", controllers.HandleSubscriptionResume)
	authed.Delete("/subscriptions/:id", controllers.HandleSubscriptionDelete)

	authed.Get("/installments", controllers.HandleInstallmentList)
	authed.Post("/installments", controllers.HandleInstallmentCreate)
	authed.Get("/installments/:id", controllers.HandleInstallmentGet)
	authed.Post("/installments/:id/cancel", controllers.HandleInstallmentCancel)
	authed.Delete("/installments/:id", controllers.HandleInstallmentDelete)

	authed.Get("/calendar", controllers.HandleCalendarOverview)
	authed.Post("/calendar/sync", controllers.HandleCalendarSync)
	authed.Post("/calendar/events", controllers.HandleCalendarEventCreate)
	authed.Get("/calendar/events/:id", controllers.HandleCalendarEventGet)
	authed.Delete("/calendar/events/:id", controllers.HandleCalendarEventDelete)

	authed.Get("/notifications", controllers.HandleNotificationList)
	authed.Post("/notifications/read-all", controllers.HandleNotificationMarkAllRead)
	authed.Post("/notifications/:id/read", controllers.HandleNotificationMarkRead)
	authed.Get("/notifications/settings", controllers.HandleNotificationSettingsGet)
	authed.Patch("/notifications/settings", controllers.HandleNotificationSettingsUpdate)

	// Job triggers: admin session or X-Cron-Token. Token auth is checked
	// inside the handlers so external crons can call without a session.
	app.Post("/jobs/process", controllers.HandleRunDailyProcessing)
	app.Post("/jobs/notify-due", controllers.HandleRunDueSweep)
	app.Post("/jobs/notify-overdue", controllers.HandleRunOverdueSweep)
	app.Get("/jobs/stats", controllers.HandleJobStats)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
