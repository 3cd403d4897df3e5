package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/handlers"
)

type Handlers struct {
	Activities    *handlers.ActivityHandler
	Uploads       *handlers.UploadHandler
	Missions      *handlers.MissionHandler
	Achievements  *handlers.AchievementHandler
	Notifications *handlers.NotificationHandler
	Study         *handlers.StudyHandler
	Realtime      *handlers.RealtimeHandler
}

// Register mounts every route group. protected verifies the bearer token.
func Register(app *fiber.App, h Handlers, protected fiber.Handler) {
	RealtimeRoutes(app, h.Realtime)
	ActivityRoutes(app, h.Activities, protected)
	UploadRoutes(app, h.Uploads, protected)
	MissionRoutes(app, h.Missions, protected)
	AchievementRoutes(app, h.Achievements, protected)
	NotificationRoutes(app, h.Notifications, protected)
	StudyRoutes(app, h.Study, protected)
}
