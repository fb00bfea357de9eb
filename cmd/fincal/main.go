package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/MartinKaiser/FinCal/app/controllers"
	"github.com/MartinKaiser/FinCal/app/repository"
	"github.com/MartinKaiser/FinCal/internal/pkg/cache"
	"github.com/MartinKaiser/FinCal/internal/pkg/database"
	"github.com/MartinKaiser/FinCal/internal/pkg/env"
	"github.com/MartinKaiser/FinCal/internal/pkg/finance"
	"github.com/MartinKaiser/FinCal/internal/pkg/notify"
	"github.com/MartinKaiser/FinCal/internal/pkg/router"
	"github.com/MartinKaiser/FinCal/internal/pkg/scheduler"
)

func main() {
	app, sched := newApplication()

	// graceful shutdown on SIGINT/SIGTERM: stop cron first so no run is
	// cut off mid-flight, then drain HTTP
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down...")
		sched.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	if err != nil {
		log.Fatal(err)
	}
}

func newApplication() (*fiber.App, *scheduler.Scheduler) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName: "FinCal",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app)

	sched := scheduler.New(
		finance.NewServiceFromDB(database.GetDB()),
		notify.NewServiceFromDB(database.GetDB()),
	)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	controllers.SetScheduler(sched)

	return app, sched
}
