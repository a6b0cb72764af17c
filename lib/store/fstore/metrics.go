package fstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
)

// operation labels used in the metric names
const (
	opSet    = "set"
	opGet    = "get"
	opHas    = "has"
	opDelete = "delete"
	opKeys   = "keys"
	opInfo   = "info"
)

// observe records one finished store operation in the global metrics set.
// It is meant to be deferred with a pointer to the named error result.
func observe(op string, start time.Time, err *error) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`fkv_store_ops_total{op=%q}`, op)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`fkv_store_op_duration_seconds{op=%q}`, op)).UpdateDuration(start)

	if err == nil || *err == nil {
		return
	}
	code := store.RetCInternalError
	var storeErr *store.Error
	if errors.As(*err, &storeErr) {
		code = storeErr.Code
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`fkv_store_errors_total{op=%q,code=%q}`, op, code)).Inc()
}
