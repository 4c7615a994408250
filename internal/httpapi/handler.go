// Package httpapi exposes the REST surface over the session, subject,
// enrollment and attendance services.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/session"
	"classattend/internal/subject"
)

// Handler bundles the services behind the API.
type Handler struct {
	Sessions    *session.Service
	Subjects    *subject.Service
	Attendance  *attendance.Service
	QRImageSize int
}

// Register mounts all routes under /v1 behind the access gate.
func (h *Handler) Register(r *gin.Engine, signingKey, issuer string) {
	facultyOnly := auth.RequireRoles(auth.RoleFaculty)
	facultyOrAdmin := auth.RequireRoles(auth.RoleFaculty, auth.RoleAdmin)
	studentOnly := auth.RequireRoles(auth.RoleStudent)

	v1 := r.Group("/v1", auth.Middleware(signingKey, issuer))

	sessions := v1.Group("/sessions")
	sessions.POST("", facultyOnly, h.createSession)
	sessions.GET("", facultyOrAdmin, h.listSessions)
	sessions.GET("/active", facultyOnly, h.activeSession)
	sessions.GET("/student", studentOnly, h.studentSessions)
	sessions.POST("/join", studentOnly, h.joinSession)
	sessions.GET("/:id/qr", facultyOnly, h.sessionQR)
	sessions.GET("/:id/students", facultyOnly, h.sessionRoster)
	sessions.PUT("/:id/deactivate", facultyOrAdmin, h.deactivateSession)
	sessions.DELETE("/:id", facultyOrAdmin, h.deleteSession)

	att := v1.Group("/attendance")
	att.POST("/mark", studentOnly, h.markAttendance)
	att.GET("/history", studentOnly, h.attendanceHistory)
	att.GET("/records", facultyOrAdmin, h.listRecords)
	att.PUT("/records/:id", facultyOrAdmin, h.updateRecord)
	att.DELETE("/records/:id", facultyOrAdmin, h.deleteRecord)

	subjects := v1.Group("/subjects")
	subjects.GET("", facultyOrAdmin, h.listSubjects)
	subjects.POST("", facultyOnly, h.createSubject)
	subjects.PUT("/:id", facultyOnly, h.updateSubject)
	subjects.DELETE("/:id", facultyOnly, h.deleteSubject)
}

// identity returns the authenticated caller. The gate guarantees presence on
// every /v1 route.
func identity(c *gin.Context) auth.Identity {
	id, _ := auth.FromContext(c)
	return id
}
