package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"classattend/internal/apperr"
	"classattend/internal/qrtoken"
	"classattend/internal/session"
)

type createSessionRequest struct {
	SubjectID     string    `json:"subjectId" binding:"required"`
	SectionName   string    `json:"sectionName" binding:"required"`
	Department    string    `json:"department" binding:"required"`
	ScheduledTime time.Time `json:"scheduledTime" binding:"required"`
	Duration      int       `json:"duration" binding:"required"`
	Description   string    `json:"description"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}
	sess, err := h.Sessions.Create(c.Request.Context(), identity(c), session.CreateInput{
		SubjectID:       req.SubjectID,
		SectionName:     req.SectionName,
		Department:      req.Department,
		ScheduledTime:   req.ScheduledTime,
		DurationMinutes: req.Duration,
		Description:     req.Description,
	})
	if err != nil {
		abortError(c, err)
		return
	}
	sessionsCreated.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"message":    "class created successfully",
		"sessionId":  sess.ID,
		"uniqueCode": sess.UniqueCode,
	})
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.Sessions.List(c.Request.Context(), identity(c))
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) activeSession(c *gin.Context) {
	sess, err := h.Sessions.Active(c.Request.Context(), identity(c))
	if err != nil {
		abortError(c, err)
		return
	}
	// Null body when no active session, mirroring the dashboard contract.
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) studentSessions(c *gin.Context) {
	sessions, err := h.Sessions.StudentSessions(c.Request.Context(), identity(c).ID)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

type joinSessionRequest struct {
	UniqueCode string `json:"uniqueCode" binding:"required"`
}

func (h *Handler) joinSession(c *gin.Context) {
	var req joinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, apperr.Wrap(apperr.KindValidation, "uniqueCode is required", err))
		return
	}
	joined, classList, err := h.Sessions.JoinByCode(c.Request.Context(), identity(c).ID, req.UniqueCode)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "successfully joined the class",
		"joinedSession":  joined,
		"studentClasses": classList,
	})
}

// sessionQR mints a fresh token for an owned session and returns it as JSON
// or, with ?format=png, as a rendered QR image.
func (h *Handler) sessionQR(c *gin.Context) {
	sess, err := h.Sessions.Get(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		abortError(c, err)
		return
	}
	payload, err := qrtoken.New(sess.ID, sess.SubjectID)
	if err != nil {
		abortError(c, err)
		return
	}
	token, err := qrtoken.Encode(payload)
	if err != nil {
		abortError(c, err)
		return
	}
	if c.Query("format") == "png" {
		size := h.QRImageSize
		if size <= 0 {
			size = 256
		}
		png, err := qrcode.Encode(token, qrcode.Medium, size)
		if err != nil {
			abortError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sess.ID, "token": token})
}

func (h *Handler) sessionRoster(c *gin.Context) {
	sess, rows, err := h.Sessions.Roster(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionInfo": sess,
		"students":    rows,
	})
}

func (h *Handler) deactivateSession(c *gin.Context) {
	if err := h.Sessions.Deactivate(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "class deactivated successfully"})
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.Sessions.Delete(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "class deleted successfully"})
}
