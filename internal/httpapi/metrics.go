package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_created_total",
		Help: "Class sessions created.",
	})
	attendanceMarked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marked_total",
		Help: "Attendance submissions by outcome.",
	}, []string{"result"})
)
