package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	config "github.com/xavicoins/progression/configs"
	"github.com/xavicoins/progression/database"
	"github.com/xavicoins/progression/handlers"
	"github.com/xavicoins/progression/jobs"
	"github.com/xavicoins/progression/middleware"
	"github.com/xavicoins/progression/notifications"
	"github.com/xavicoins/progression/routes"
	"github.com/xavicoins/progression/services"
	"github.com/xavicoins/progression/tasks"
	"github.com/xavicoins/progression/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Invalid configuration: %v", err)
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("🔥 %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 %v", err)
	}
	if err := database.SeedAchievements(db); err != nil {
		log.Fatalf("🔥 %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	reporter := tasks.NewRollbarReporter(cfg.RollbarToken, cfg.Env)
	dispatcher := tasks.NewDispatcher(cfg.TasksWorkers, cfg.TasksQueueSize, cfg.TasksTimeout, reporter)
	push := notifications.NewPushService(cfg.PushAPIURL, cfg.PushAccessToken)

	notifier := services.NewNotificationService(db, hub, push, dispatcher)
	missions := services.NewMissionService(db, hub, notifier, cfg.MissionsFallbackAllOnNoMatch)
	achievements := services.NewAchievementService(db, hub, notifier)
	rewards := services.NewRewardService(db, services.NewLevelService(), missions, achievements, dispatcher)
	activities := services.NewActivityService(db, notifier)
	study := services.NewStudyService(db, missions, dispatcher)

	if n, err := missions.EnsureMissions(ctx, time.Now().UTC()); err != nil {
		log.Printf("⚠️ Could not generate missions at startup: %v", err)
	} else if n > 0 {
		log.Printf("✅ Generated %d missions at startup", n)
	}

	c := cron.New()
	schedule := jobs.Schedule{
		GenerateMissionsSpec: cfg.MissionsGenerateSpec,
		ExpireMissionsSpec:   cfg.MissionsExpireSpec,
		StudySweepSpec:       cfg.StudySweepSpec,
		StudyMaxSessionAge:   cfg.StudyMaxSessionAge,
	}
	if err := jobs.Register(c, schedule, missions, study); err != nil {
		log.Fatalf("🔥 %v", err)
	}
	c.Start()
	log.Println("✅ Maintenance jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "Xavicoins Progression",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		JSONEncoder:   sonic.Marshal,
		JSONDecoder:   sonic.Unmarshal,
		ErrorHandler:  handlers.ErrorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New())
	app.Use(middleware.RateLimit(cfg.RateLimitPerMinute))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Xavicoins Progression API",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"clients": hub.ClientCount(),
		})
	})

	routes.Register(app, routes.Handlers{
		Activities:    &handlers.ActivityHandler{Activities: activities, Rewards: rewards},
		Uploads:       &handlers.UploadHandler{CloudinaryURL: cfg.CloudinaryURL, Now: time.Now},
		Missions:      &handlers.MissionHandler{Missions: missions},
		Achievements:  &handlers.AchievementHandler{Achievements: achievements},
		Notifications: &handlers.NotificationHandler{Notifications: notifier},
		Study:         &handlers.StudyHandler{Study: study},
		Realtime:      &handlers.RealtimeHandler{Hub: hub, JWTSecret: cfg.JWTSecret},
	}, middleware.Protected(cfg.JWTSecret))

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("🛑 Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ HTTP shutdown: %v", err)
		}
	}()

	log.Printf("✅ Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("🔥 Server failed: %v", err)
	}

	<-c.Stop().Done()
	dispatcher.Close()
	reporter.Flush()
	stop()
	log.Println("👋 Shutdown complete")
}
