package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/apperr"
)

type subjectRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

func (h *Handler) createSubject(c *gin.Context) {
	var req subjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, apperr.Wrap(apperr.KindValidation, "name and code are required", err))
		return
	}
	subj, err := h.Subjects.Create(c.Request.Context(), identity(c), req.Name, req.Code)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "subject created successfully",
		"subjectId": subj.ID,
	})
}

func (h *Handler) listSubjects(c *gin.Context) {
	subjects, err := h.Subjects.List(c.Request.Context(), identity(c))
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (h *Handler) updateSubject(c *gin.Context) {
	var req subjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, apperr.Wrap(apperr.KindValidation, "name and code are required", err))
		return
	}
	if err := h.Subjects.Update(c.Request.Context(), identity(c), c.Param("id"), req.Name, req.Code); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subject updated successfully"})
}

func (h *Handler) deleteSubject(c *gin.Context) {
	if err := h.Subjects.Delete(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subject deleted successfully"})
}
