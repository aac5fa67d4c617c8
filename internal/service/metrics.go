package service

import (
	"errors"

	"todo_webapp/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

var taskOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "todo_task_operations_total",
		Help: "Task service operations by outcome",
	},
	[]string{"op", "result"},
)

func init() {
	prometheus.MustRegister(taskOps)
}

func observe(op string, err error) {
	var verr *domain.ValidationError
	result := "ok"
	switch {
	case err == nil:
	case errors.As(err, &verr):
		result = "invalid"
	case errors.Is(err, domain.ErrForbidden):
		result = "forbidden"
	case errors.Is(err, domain.ErrStorage):
		result = "storage_error"
	default:
		result = "error"
	}
	taskOps.WithLabelValues(op, result).Inc()
}
