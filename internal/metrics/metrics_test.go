package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCheckUser(t *testing.T) {
	before := testutil.ToFloat64(CheckUserTotal.WithLabelValues(OutcomeNotFound))

	RecordCheckUser(OutcomeNotFound)
	RecordCheckUser(OutcomeNotFound)

	after := testutil.ToFloat64(CheckUserTotal.WithLabelValues(OutcomeNotFound))
	if after-before != 2 {
		t.Errorf("check_user_total{outcome=not_found} delta = %v, want 2", after-before)
	}
}

func TestRecordSessionEvent(t *testing.T) {
	events := []string{
		SessionCreated,
		SessionValidated,
		SessionExpired,
		SessionInvalid,
		SessionInvalidated,
		SessionSwept,
	}

	for _, event := range events {
		t.Run(event, func(t *testing.T) {
			before := testutil.ToFloat64(SessionEventsTotal.WithLabelValues(event))
			RecordSessionEvent(event)
			after := testutil.ToFloat64(SessionEventsTotal.WithLabelValues(event))
			if after-before != 1 {
				t.Errorf("session_events_total{event=%s} delta = %v, want 1", event, after-before)
			}
		})
	}
}

func TestSetActiveSessions(t *testing.T) {
	SetActiveSessions(3)
	if got := testutil.ToFloat64(ActiveSessions); got != 3 {
		t.Errorf("sessions_active = %v, want 3", got)
	}
	SetActiveSessions(0)
	if got := testutil.ToFloat64(ActiveSessions); got != 0 {
		t.Errorf("sessions_active = %v, want 0", got)
	}
}

func TestRecordAcquire(t *testing.T) {
	tests := []struct {
		name      string
		driver    string
		err       error
		wantError float64
	}{
		{name: "success", driver: "test_ok", err: nil, wantError: 0},
		{name: "failure", driver: "test_fail", err: errors.New("ssh: handshake failed"), wantError: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordAcquire(tt.driver, 20*time.Millisecond, tt.err)
			if got := testutil.ToFloat64(DatasourceErrorsTotal.WithLabelValues(tt.driver)); got != tt.wantError {
				t.Errorf("datasource_errors_total{driver=%s} = %v, want %v", tt.driver, got, tt.wantError)
			}
		})
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("POST", "/check-user", 200, 15*time.Millisecond)

	if n := testutil.CollectAndCount(HTTPRequestDuration); n == 0 {
		t.Error("http_request_duration_seconds has no series after RecordHTTPRequest")
	}
}

func TestRecordExportError(t *testing.T) {
	before := testutil.ToFloat64(ExportErrorsTotal.WithLabelValues("mqtt"))
	RecordExportError("mqtt")
	if got := testutil.ToFloat64(ExportErrorsTotal.WithLabelValues("mqtt")); got-before != 1 {
		t.Errorf("export_errors_total{sink=mqtt} delta = %v, want 1", got-before)
	}
}
