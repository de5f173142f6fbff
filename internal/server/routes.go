package server

import (
	"pageshot/internal/core/job"
	"pageshot/internal/core/snapshot"
	"pageshot/internal/health"
	"pageshot/internal/platform/redis"
	tasks "pageshot/internal/platform/tasks"

	"github.com/gofiber/fiber/v2"
)

type Dependencies struct {
	Job      *job.JobService
	Snapshot *snapshot.Service
	Tasks    *tasks.Client
	Redis    *redis.Service
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	healthHandler := health.NewHealthHandler(d.Redis)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/v1")

	snapshotHandler := snapshot.NewHandler(d.Snapshot, d.Tasks, d.Job)
	api.Post("/snapshots", snapshotHandler.HandleCreate)
	api.Get("/snapshots", snapshotHandler.HandleGet)

	return healthHandler
}
