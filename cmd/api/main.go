package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qrattend/internal/api"
	"qrattend/internal/attendance"
	"qrattend/internal/cloudinary"
	"qrattend/internal/config"
	"qrattend/internal/metrics"
	"qrattend/internal/notify"
	"qrattend/internal/qrcode"
	"qrattend/internal/queue"
	"qrattend/internal/roster"
	"qrattend/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *store.Redis
	if cfg.StoreBackend == "redis" || cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
	}

	st, err := store.Open(store.Options{
		Backend:     cfg.StoreBackend,
		DataDir:     cfg.DataDir,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
		Redis:       redisClient,
	})
	if err != nil {
		return err
	}
	defer st.Close()
	log.Printf("store backend: %s", cfg.StoreBackend)

	m := metrics.New(prometheus.DefaultRegisterer)

	var publisher attendance.Publisher
	switch cfg.QueueBackend {
	case "memory":
		// No separate worker in this mode; deliver notifications in-process.
		q := queue.NewInMemory(64)
		msgs, err := q.Consume(ctx)
		if err != nil {
			return err
		}
		go notify.Run(ctx, msgs, notify.New(cfg.NotifyWebhookURL), m)
		publisher = q
	case "redis":
		publisher = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	default:
		publisher = queue.Discard{}
	}

	codec, err := qrcode.NewCodec(qrcode.Options{
		Size:       cfg.QRSize,
		Foreground: cfg.QRForeground,
		Background: cfg.QRBackground,
	})
	if err != nil {
		return err
	}

	students := roster.NewService(st, m)

	att := attendance.NewService(st, st,
		attendance.Policy{ClassStart: cfg.ClassStart, LateAfter: cfg.LateAfter},
		attendance.WithLocation(cfg.Location),
		attendance.WithCodec(codec),
		attendance.WithObserver(m),
		attendance.WithPublisher(publisher),
	)

	if cfg.SeedSample {
		if seeded, err := students.SeedSample(ctx); err != nil {
			log.Printf("warning: sample roster not seeded: %v", err)
		} else if seeded {
			log.Println("seeded sample roster")
		}
		if seeded, err := att.SeedRecords(ctx, roster.SampleRecords(att.Now())); err != nil {
			log.Printf("warning: sample attendance not seeded: %v", err)
		} else if seeded {
			log.Println("seeded sample attendance")
		}
	}

	h := &api.Handler{
		Attendance: att,
		Roster:     students,
		Codec:      codec,
		Checks:     map[string]api.HealthCheck{},
	}
	if cfg.CloudinaryConfigured() {
		h.Uploader = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}
	if db, ok := st.(interface{ Healthy(context.Context) bool }); ok {
		h.Checks["db"] = db.Healthy
	}
	if redisClient != nil {
		h.Checks["redis"] = redisClient.Healthy
	}

	r := api.NewRouter(h, api.Options{
		RateLimitPerMin: cfg.RateLimitPerMin,
		Metrics:         promhttp.Handler(),
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (class starts %s, late after %s, zone %s)",
			cfg.HTTPPort, cfg.ClassStart, cfg.LateAfter, cfg.Location)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
