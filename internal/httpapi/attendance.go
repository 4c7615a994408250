package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classattend/internal/apperr"
	"classattend/internal/attendance"
)

type markAttendanceRequest struct {
	QRCodeData string `json:"qrCodeData" binding:"required"`
}

func (h *Handler) markAttendance(c *gin.Context) {
	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, apperr.Wrap(apperr.KindValidation, "QR code data is required", err))
		return
	}
	receipt, err := h.Attendance.Mark(c.Request.Context(), identity(c).ID, req.QRCodeData)
	if err != nil {
		attendanceMarked.WithLabelValues(markResult(err)).Inc()
		abortError(c, err)
		return
	}
	attendanceMarked.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"message": "attendance marked successfully",
		"receipt": receipt,
	})
}

func markResult(err error) string {
	switch {
	case errors.Is(err, attendance.ErrSessionInactive):
		return "session_inactive"
	case errors.Is(err, attendance.ErrSessionNotFound):
		return "session_not_found"
	case apperr.IsKind(err, apperr.KindDecode):
		return "invalid_token"
	default:
		return "error"
	}
}

// parseDate reads an optional YYYY-MM-DD query parameter.
func parseDate(c *gin.Context, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, apperr.Newf(apperr.KindValidation, "%s must be YYYY-MM-DD", name)
	}
	return &t, nil
}

func (h *Handler) listRecords(c *gin.Context) {
	start, err := parseDate(c, "startDate")
	if err != nil {
		abortError(c, err)
		return
	}
	end, err := parseDate(c, "endDate")
	if err != nil {
		abortError(c, err)
		return
	}
	records, err := h.Attendance.Records(c.Request.Context(), identity(c), attendance.RecordFilter{
		StartDate: start,
		EndDate:   end,
		SubjectID: c.Query("subjectId"),
		StudentID: c.Query("studentId"),
	})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) attendanceHistory(c *gin.Context) {
	start, err := parseDate(c, "startDate")
	if err != nil {
		abortError(c, err)
		return
	}
	end, err := parseDate(c, "endDate")
	if err != nil {
		abortError(c, err)
		return
	}
	rows, err := h.Attendance.History(c.Request.Context(), identity(c).ID, attendance.HistoryFilter{
		StartDate:   start,
		EndDate:     end,
		SubjectName: c.Query("subjectName"),
	})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type updateRecordRequest struct {
	Status   string `json:"status" binding:"required"`
	Location string `json:"location"`
	Remarks  string `json:"remarks"`
}

func (h *Handler) updateRecord(c *gin.Context) {
	var req updateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, apperr.Wrap(apperr.KindValidation, "status is required", err))
		return
	}
	err := h.Attendance.UpdateRecord(c.Request.Context(), identity(c), c.Param("id"), attendance.UpdateInput{
		Status:   attendance.Status(req.Status),
		Location: req.Location,
		Remarks:  req.Remarks,
	})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance record updated successfully"})
}

func (h *Handler) deleteRecord(c *gin.Context) {
	if err := h.Attendance.DeleteRecord(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance record deleted successfully"})
}
