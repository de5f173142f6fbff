package main

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"pageshot/internal/config"
	"pageshot/internal/core/job"
	"pageshot/internal/core/snapshot"
	"pageshot/internal/logger"
	rds "pageshot/internal/platform/redis"
	tasks "pageshot/internal/platform/tasks"
	"pageshot/internal/server"
	"pageshot/internal/worker"
)

func main() {
	cfg := config.Load()
	log.Printf("[pageshot] starting at %s (env=%s)\n", cfg.HTTPAddr, cfg.AppEnv)

	logr := logger.New("main")

	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	taskClient := tasks.New(redisSvc)
	asynqServer := asynq.NewServer(redisSvc.AsynqRedisOpt(), asynq.Config{
		Concurrency: 4,
		Queues:      map[string]int{"default": 1},
	})

	jobSvc := job.NewJobService(redisSvc)
	snapshotSvc, err := snapshot.New(cfg, jobSvc)
	if err != nil {
		log.Fatal(err)
	}

	mux := worker.NewMux()
	mux.HandleFunc(snapshot.TaskTypeSnapshot, snapshotSvc.HandleTask)

	go func() {
		if err := asynqServer.Start(mux.Mux()); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	app := fiber.New(fiber.Config{
		AppName: "Pageshot Engine",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})
	// Serve locally saved snapshots from DATA_DIR under /files
	app.Static("/files", cfg.DataDir)

	deps := server.Dependencies{
		Job:      jobSvc,
		Snapshot: snapshotSvc,
		Tasks:    taskClient,
		Redis:    redisSvc,
	}
	healthHandler := server.RegisterRoutes(app, deps)

	// Mark ready once services have settled
	go func() {
		time.Sleep(5 * time.Second)
		healthHandler.SetReady()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		asynqServer.Shutdown()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
