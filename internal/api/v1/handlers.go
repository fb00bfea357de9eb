package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/MartinKaiser/FinCal/app/controllers"
)

// APIServer implements the v1 API surface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// Pong is the ping response body
type Pong struct {
	Ping string `json:"ping"`
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetUserProfile returns account information for the authenticated user (API key).
// Security is enforced via API key middleware attached in the router.
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleGetUserAccount(c)
}

// RegisterHandlers wires the v1 resource routes. The router attaches the
// API key middleware before calling this.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/user/profile", s.GetUserProfile)

	router.Get("/wallets", controllers.HandleWalletList)
	router.Post("/wallets", controllers.HandleWalletCreate)
	router.Get("/wallets/:id", controllers.HandleWalletGet)
	router.Patch("/wallets/:id", controllers.HandleWalletUpdate)
	router.Delete("/wallets/:id", controllers.HandleWalletDelete)

	router.Get("/categories", controllers.HandleCategoryList)
	router.Post("/categories", controllers.HandleCategoryCreate)
	router.Patch("/categories/:id", controllers.HandleCategoryUpdate)
	router.Delete("/categories/:id", controllers.HandleCategoryDelete)

	router.Get("/transactions", controllers.HandleTransactionList)
	router.Post("/transactions", controllers.HandleTransactionCreate)
	router.Get("/transactions/:id", controllers.HandleTransactionGet)
	router.Delete("/transactions/:id", controllers.HandleTransactionDelete)

	router.Get("/subscriptions", controllers.HandleSubscriptionList)
	router.Post("/subscriptions", controllers.HandleSubscriptionCreate)
	router.Get("/subscriptions/:id", controllers.HandleSubscriptionGet)
	router.Patch("/subscriptions/:id", controllers.HandleSubscriptionUpdate)
	router.Post("/subscriptions/:id/pause", controllers.HandleSubscriptionPause)
	router.Post("/subscriptions/:id/resume", controllers.HandleSubscriptionResume)
	router.Delete("/subscriptions/:id", controllers.HandleSubscriptionDelete)

	router.Get("/installments", controllers.HandleInstallmentList)
	router.Post("/installments", controllers.HandleInstallmentCreate)
	router.Get("/installments/:id", controllers.HandleInstallmentGet)
	router.Post("/installments/:id/cancel", controllers.HandleInstallmentCancel)
	router.Delete("/installments/:id", controllers.HandleInstallmentDelete)

	router.Get("/calendar", controllers.HandleCalendarOverview)
	router.Post("/calendar/sync", controllers.HandleCalendarSync)
	router.Post("/calendar/events", controllers.HandleCalendarEventCreate)
	router.Get("/calendar/events/:id", controllers.HandleCalendarEventGet)
	router.Delete("/calendar/events/:id", controllers.HandleCalendarEventDelete)

	router.Get("/notifications", controllers.HandleNotificationList)
	router.Post("/notifications/read-all", controllers.HandleNotificationMarkAllRead)
	router.Post("/notifications/:id/read", controllers.HandleNotificationMarkRead)
	router.Get("/notifications/settings", controllers.HandleNotificationSettingsGet)
	router.Patch("/notifications/settings", controllers.HandleNotificationSettingsUpdate)
}
