package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/MartinKaiser/FinCal/internal/api/v1"
	"github.com/MartinKaiser/FinCal/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes, authenticated via user API keys
	v1 := api.Group("/v1")
	v1.Get("/ping", apiv1.NewAPIServer().GetPing)

	keyed := v1.Group("", middleware.APIKeyAuthMiddleware())
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(keyed, apiServer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
