package handler

import (
	"github.com/gofiber/fiber/v2"

	"mediaapi/internal/database"
	"mediaapi/internal/http/middleware"
	"mediaapi/internal/model"
	"mediaapi/internal/service"
	"mediaapi/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Media routes live under /media so stored fileUrl values resolve to StreamMedia.
func RegisterRoutes(app *fiber.App, ping database.PingFunc, svc service.MediaService, store storage.Store, uploadOpts middleware.UploadOptions) {
	app.Get("/health", HealthCheck(ping))
	app.Get("/healthz", LivenessProbe())

	media := app.Group("/media", middleware.NoSniff())

	media.Post("/urlFileUpload", UploadFromURL(svc))
	media.Post("/manuallyImageUpload", middleware.Upload(store, model.KindImage, uploadOpts), UploadManually(svc))
	media.Post("/manuallyVideoUpload", middleware.Upload(store, model.KindVideo, uploadOpts), UploadManually(svc))

	media.Get("/images", ListMedia(svc, model.KindImage))
	media.Get("/videos", ListMedia(svc, model.KindVideo))

	// "+" keeps slashes in the name so traversal attempts reach the name check
	media.Get("/:type/+", StreamMedia(svc))
}
