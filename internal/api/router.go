package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"qrattend/internal/attendance"
	"qrattend/internal/cloudinary"
	"qrattend/internal/httpmiddleware"
	"qrattend/internal/qrcode"
	"qrattend/internal/roster"
)

// Uploader stores generated QR images on a CDN.
type Uploader interface {
	UploadBytes(ctx context.Context, data []byte, filename, publicID string) (*cloudinary.UploadResult, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Handler serves the HTTP API.
type Handler struct {
	Attendance *attendance.Service
	Roster     *roster.Service
	Codec      *qrcode.Codec
	// Uploader is nil when no CDN is configured.
	Uploader Uploader
	Checks   map[string]HealthCheck
	// MaxImageBytes caps uploaded camera frames; 0 means 8 MiB.
	MaxImageBytes int64
}

// Options configures the router around a Handler.
type Options struct {
	RateLimitPerMin int
	Metrics         http.Handler
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Disposition"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(opts.RateLimitPerMin, opts.RateLimitPerMin).GinMiddleware())

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	r.GET("/healthz", h.health)

	v1 := r.Group("/v1")
	v1.GET("/students", h.listStudents)
	v1.POST("/students", h.createStudent)
	v1.GET("/students/:id", h.getStudent)
	v1.PUT("/students/:id", h.updateStudent)
	v1.DELETE("/students/:id", h.deleteStudent)
	v1.GET("/students/:id/qr", h.studentQR)
	v1.POST("/students/:id/qr", h.uploadStudentQR)
	v1.GET("/qr/sheet", h.qrSheet)

	v1.POST("/scans", h.scan)

	v1.GET("/attendance", h.listAttendance)
	v1.GET("/attendance/export.csv", h.exportCSV)
	v1.GET("/attendance/export.xlsx", h.exportXLSX)
	v1.GET("/stats", h.stats)
	v1.GET("/stats/weekly", h.weekly)

	return r
}

func (h *Handler) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.Checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
