package api

import (
	"bytes"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"qrattend/internal/qrcode"
	"qrattend/internal/roster"
)

func (h *Handler) listStudents(c *gin.Context) {
	students, err := h.Roster.List(c.Request.Context())
	if err != nil {
		storageError(c, "list students", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *Handler) getStudent(c *gin.Context) {
	st, err := h.Roster.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		rosterError(c, "get student", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) createStudent(c *gin.Context) {
	var in roster.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	st, err := h.Roster.Add(c.Request.Context(), in)
	if err != nil {
		rosterError(c, "add student", err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) updateStudent(c *gin.Context) {
	var in roster.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	st, err := h.Roster.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		rosterError(c, "update student", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) deleteStudent(c *gin.Context) {
	if err := h.Roster.Delete(c.Request.Context(), c.Param("id")); err != nil {
		rosterError(c, "delete student", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// studentQR serves the student's code as a PNG download.
func (h *Handler) studentQR(c *gin.Context) {
	st, err := h.Roster.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		rosterError(c, "get student", err)
		return
	}
	png, err := h.Codec.Encode(st)
	if err != nil {
		log.Printf("encode qr for %s failed: %v", st.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+qrcode.FileName(st)+`"`)
	c.Data(http.StatusOK, "image/png", png)
}

// uploadStudentQR renders the code, uploads it to the CDN and stores the
// resulting URL on the student.
func (h *Handler) uploadStudentQR(c *gin.Context) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}
	ctx := c.Request.Context()
	st, err := h.Roster.Get(ctx, c.Param("id"))
	if err != nil {
		rosterError(c, "get student", err)
		return
	}
	png, err := h.Codec.Encode(st)
	if err != nil {
		log.Printf("encode qr for %s failed: %v", st.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
		return
	}
	result, err := h.Uploader.UploadBytes(ctx, png, qrcode.FileName(st), st.ID)
	if err != nil {
		log.Printf("cloudinary upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	st, err = h.Roster.SetQRCodeURL(ctx, st.ID, result.SecureURL)
	if err != nil {
		rosterError(c, "store qr url", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// qrSheet renders every student's code on one printable page.
func (h *Handler) qrSheet(c *gin.Context) {
	students, err := h.Roster.List(c.Request.Context())
	if err != nil {
		storageError(c, "list students", err)
		return
	}
	entries := make([]qrcode.SheetEntry, 0, len(students))
	for _, st := range students {
		png, err := h.Codec.Encode(st)
		if err != nil {
			log.Printf("encode qr for %s failed: %v", st.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
			return
		}
		entries = append(entries, qrcode.SheetEntry{Student: st, PNG: png})
	}
	var buf bytes.Buffer
	if err := qrcode.RenderSheet(&buf, entries); err != nil {
		log.Printf("render qr sheet failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr sheet failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func rosterError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, roster.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, roster.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		storageError(c, op, err)
	}
}

func storageError(c *gin.Context, op string, err error) {
	log.Printf("%s failed: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
}
