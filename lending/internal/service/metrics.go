package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
)

var (
	borrowTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lending",
		Name:      "borrow_total",
		Help:      "Borrow attempts by outcome.",
	}, []string{"outcome"})

	returnTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lending",
		Name:      "return_total",
		Help:      "Return attempts by outcome.",
	}, []string{"outcome"})

	fineAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lending",
		Name:      "fine_amount_total",
		Help:      "Sum of fines issued on late returns.",
	})

	finesSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lending",
		Name:      "fines_settled_total",
		Help:      "Fine settlements by resulting status.",
	}, []string{"status"})

	txRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lending",
		Name:      "tx_retries_total",
		Help:      "Transactions rerun after a serialization failure or deadlock.",
	}, []string{"op"})

	remindersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lending",
		Name:      "reminders_total",
		Help:      "Due-date reminders by delivery result.",
	}, []string{"result"})
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrConflict):
		return "conflict"
	case errors.Is(err, errs.ErrPolicyViolation):
		return "policy"
	default:
		return "error"
	}
}
