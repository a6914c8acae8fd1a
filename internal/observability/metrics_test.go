package observability

import (
	"testing"
	"time"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordRequest("GET", 200, 12*time.Millisecond)
	RecordRequest("POST", 404, 3*time.Millisecond)
	RecordRequestFailure("GET", "handshake-timeout")
}
