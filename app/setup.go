package app

import (
	"fmt"
	"os"
	"time"

	"github.com/hakwonplus/hakwon-api/api"
	"github.com/hakwonplus/hakwon-api/config"
	"github.com/hakwonplus/hakwon-api/database"
	"github.com/hakwonplus/hakwon-api/router"
	"github.com/hakwonplus/hakwon-api/services/cron"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
)

// SetupAndRunServer boots the whole application: env, database, cron,
// middleware, routes, and finally the listener.
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	db := store.GetDB()

	// Cron jobs run in-process unless explicitly disabled
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" {
		cronManager = cron.NewCronManager(db)
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 300,
		RateLimitWindow:   time.Minute,
	})

	router.SetupRoutes(app, db, getEnv)

	return server.Run()
}
