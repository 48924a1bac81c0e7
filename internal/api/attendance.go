package api

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"qrattend/internal/attendance"
	"qrattend/internal/export"
	"qrattend/internal/model"
	"qrattend/internal/qrcode"
)

const (
	defaultWeeklyDays = 5
	maxWeeklyDays     = 31
	maxImageBytes     = 8 << 20
)

// scan accepts either a JSON body {"payload": "..."} with decoded text or a
// multipart camera frame in the "image" field.
func (h *Handler) scan(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		d   attendance.Decision
		err error
	)
	if strings.Contains(c.ContentType(), "multipart/form-data") {
		file, _, ferr := c.Request.FormFile("image")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image field required"})
			return
		}
		defer file.Close()
		limit := h.imageLimit()
		data, ferr := io.ReadAll(io.LimitReader(file, limit+1))
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read image failed"})
			return
		}
		if int64(len(data)) > limit {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		d, err = h.Attendance.ScanImage(ctx, data)
	} else {
		var req struct {
			Payload string `json:"payload" binding:"required"`
		}
		if berr := c.ShouldBindJSON(&req); berr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": `provide {"payload": "<scanned text>"}`})
			return
		}
		d, err = h.Attendance.Scan(ctx, req.Payload)
	}

	switch {
	case err == nil:
	case errors.Is(err, attendance.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found in database"})
		return
	case errors.Is(err, qrcode.ErrNoCode):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no QR code in image"})
		return
	case errors.Is(err, qrcode.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	default:
		storageError(c, "scan", err)
		return
	}

	if d.Outcome == attendance.Duplicate {
		c.JSON(http.StatusConflict, gin.H{
			"outcome": d.Outcome.String(),
			"error":   d.Existing.StudentName + " already marked attendance today",
			"record":  d.Existing,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"outcome": d.Outcome.String(), "record": d.Record})
}

func (h *Handler) imageLimit() int64 {
	if h.MaxImageBytes > 0 {
		return h.MaxImageBytes
	}
	return maxImageBytes
}

func (h *Handler) listAttendance(c *gin.Context) {
	date, ok := dateQuery(c)
	if !ok {
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}
	records, err := h.Attendance.Records(c.Request.Context(), date, limit)
	if err != nil {
		storageError(c, "list attendance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *Handler) exportCSV(c *gin.Context) {
	h.export(c, "text/csv; charset=utf-8", "attendance_report.csv", export.WriteCSV)
}

func (h *Handler) exportXLSX(c *gin.Context) {
	h.export(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "attendance_report.xlsx", export.WriteXLSX)
}

func (h *Handler) export(c *gin.Context, contentType, filename string, write func(io.Writer, []model.AttendanceRecord) error) {
	records, err := h.Attendance.Log(c.Request.Context())
	if err != nil {
		storageError(c, "export attendance", err)
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, records); err != nil {
		log.Printf("write %s failed: %v", filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *Handler) stats(c *gin.Context) {
	date, ok := dateQuery(c)
	if !ok {
		return
	}
	st, err := h.Attendance.Stats(c.Request.Context(), date)
	if err != nil {
		storageError(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) weekly(c *gin.Context) {
	days := defaultWeeklyDays
	if v := c.Query("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > maxWeeklyDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 31"})
			return
		}
		days = parsed
	}
	out, err := h.Attendance.Weekly(c.Request.Context(), days)
	if err != nil {
		storageError(c, "weekly stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": out})
}

// dateQuery reads an optional ?date=YYYY-MM-DD, answering 400 itself when
// it is malformed.
func dateQuery(c *gin.Context) (string, bool) {
	date := c.Query("date")
	if date == "" {
		return "", true
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return "", false
	}
	return date, true
}
