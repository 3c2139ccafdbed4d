package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domain "bacnet-alarm-relay/internal/domain/alarm"
	"bacnet-alarm-relay/internal/logger"
	"bacnet-alarm-relay/internal/notify"
	repo "bacnet-alarm-relay/internal/repository/alarmlog"
)

var errReadBroken = errors.New("log unreadable")

// fakeService is a minimal Service implementation for transport tests.
type fakeService struct {
	// raw stores the last intake tuple passed to HandleAlarm.
	raw domain.Raw
	// decision and results are returned from HandleAlarm.
	decision domain.Decision
	results  []notify.Result
	// err is returned from HandleAlarm when set.
	err error
	// records and readErr drive AlarmLog.
	records []repo.Record
	readErr error
	// snapshot drives LimiterSnapshot.
	snapshot map[string]domain.SourceState
}

func (f *fakeService) HandleAlarm(_ context.Context, raw domain.Raw) (domain.Decision, []notify.Result, error) {
	f.raw = raw

	return f.decision, f.results, f.err
}

func (f *fakeService) LimiterSnapshot(context.Context) map[string]domain.SourceState {
	return f.snapshot
}

func (f *fakeService) AlarmLog(context.Context) ([]repo.Record, error) {
	return f.records, f.readErr
}

// fakeSensor returns a fixed temperature.
type fakeSensor struct {
	value float64
}

func (f *fakeSensor) Current() float64 {
	return f.value
}

// newTestServer builds an httptest server over the fake service.
func newTestServer(t *testing.T, service *fakeService) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(NewServer(service, &fakeSensor{value: 22.5}).Router())
	t.Cleanup(server.Close)

	return server
}

// postJSON posts a JSON body and returns the response.
func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()

	response, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { response.Body.Close() })

	return response
}

// TestAlarmIntake verifies the happy path: tuple decoding, 202 status and
// the reported outcome.
func TestAlarmIntake(t *testing.T) {
	t.Parallel()

	service := &fakeService{
		decision: domain.Decision{Notify: true},
		results: []notify.Result{
			{Channel: "sms", Err: errors.New("gateway returned 503")},
			{Channel: "email"},
		},
	}
	server := newTestServer(t, service)

	response := postJSON(t, server.URL+"/v1/alarms",
		`{"source_id":"RM101-TEMP","last_update":"2025-11-03T10:00:00Z","message":"High Temp","severity":"alarm"}`)
	require.Equal(t, http.StatusAccepted, response.StatusCode)

	require.Equal(t, "RM101-TEMP", service.raw.SourceID)
	require.Equal(t, "alarm", service.raw.Severity)
	require.Equal(t, time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC), service.raw.LastUpdate)

	body := readBody(t, response)
	require.Contains(t, body, `"notified":true`)
	require.Contains(t, body, `"channel":"sms"`)
	require.Contains(t, body, `"success":false`)
	require.Contains(t, body, `"gateway returned 503"`)
	require.Contains(t, body, `"channel":"email"`)
	require.Contains(t, body, `"success":true`)
}

// TestAlarmIntakeSuppressed reports a suppressed event without results.
func TestAlarmIntakeSuppressed(t *testing.T) {
	t.Parallel()

	service := &fakeService{
		decision: domain.Decision{Notify: false, SuppressedCount: 3},
	}
	server := newTestServer(t, service)

	response := postJSON(t, server.URL+"/v1/alarms", `{"source_id":"RM101-TEMP","message":"High Temp"}`)
	require.Equal(t, http.StatusAccepted, response.StatusCode)

	body := readBody(t, response)
	require.Contains(t, body, `"notified":false`)
	require.Contains(t, body, `"suppressed_count":3`)
}

// TestAlarmIntakeBadInput maps malformed events and bad JSON to 400.
func TestAlarmIntakeBadInput(t *testing.T) {
	t.Parallel()

	service := &fakeService{err: domain.ErrMalformedEvent}
	server := newTestServer(t, service)

	response := postJSON(t, server.URL+"/v1/alarms", `{"source_id":"","message":""}`)
	require.Equal(t, http.StatusBadRequest, response.StatusCode)

	response = postJSON(t, server.URL+"/v1/alarms", `{not json`)
	require.Equal(t, http.StatusBadRequest, response.StatusCode)
}

// TestAlarmLogEndpoint renders audit rows in arrival order.
func TestAlarmLogEndpoint(t *testing.T) {
	t.Parallel()

	timestamp := time.Date(2025, 11, 3, 10, 0, 2, 0, time.UTC)
	service := &fakeService{
		records: []repo.Record{
			{Timestamp: timestamp, LastUpdate: timestamp.Add(-2 * time.Second), Message: "High Temp"},
			{Timestamp: timestamp.Add(time.Second), Message: "degraded"},
		},
	}
	server := newTestServer(t, service)

	response, err := http.Get(server.URL + "/v1/alarms/log")
	require.NoError(t, err)

	defer response.Body.Close()

	require.Equal(t, http.StatusOK, response.StatusCode)

	body := readBody(t, response)
	require.Contains(t, body, `"High Temp"`)
	require.Contains(t, body, `"degraded"`)
}

// TestAlarmLogEndpointFailure surfaces storage failures as 500.
func TestAlarmLogEndpointFailure(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeService{readErr: errReadBroken})

	response, err := http.Get(server.URL + "/v1/alarms/log")
	require.NoError(t, err)

	defer response.Body.Close()

	require.Equal(t, http.StatusInternalServerError, response.StatusCode)
}

// TestLimiterEndpoint renders the per-source snapshot.
func TestLimiterEndpoint(t *testing.T) {
	t.Parallel()

	service := &fakeService{
		snapshot: map[string]domain.SourceState{
			"RM101-TEMP": {
				LastNotifiedAt:  time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC),
				SuppressedCount: 2,
			},
		},
	}
	server := newTestServer(t, service)

	response, err := http.Get(server.URL + "/v1/limiter")
	require.NoError(t, err)

	defer response.Body.Close()

	require.Equal(t, http.StatusOK, response.StatusCode)

	body := readBody(t, response)
	require.Contains(t, body, `"RM101-TEMP"`)
	require.Contains(t, body, `"suppressed_count":2`)
}

// TestTemperatureAndHealth cover the heartbeat and liveness endpoints.
func TestTemperatureAndHealth(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeService{})

	response, err := http.Get(server.URL + "/v1/temperature")
	require.NoError(t, err)

	defer response.Body.Close()

	require.Equal(t, http.StatusOK, response.StatusCode)
	require.Contains(t, readBody(t, response), `"temperature":22.5`)

	health, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)

	defer health.Body.Close()

	require.Equal(t, http.StatusOK, health.StatusCode)
}

// TestRequestLogging traces API requests at debug level while keeping probe
// and scrape traffic out of the log.
func TestRequestLogging(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	observed := zap.New(core).Sugar()

	router := NewServer(&fakeService{}, &fakeSensor{value: 22.5}).Router()

	get := func(path string) {
		request := httptest.NewRequest(http.MethodGet, path, nil)
		request = request.WithContext(logger.ToContext(request.Context(), observed))

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		require.Equal(t, http.StatusOK, recorder.Code, path)
	}

	get("/v1/temperature")

	completed := logs.FilterMessage("Request completed").All()
	require.Len(t, completed, 1)
	require.Equal(t, "/v1/temperature", completed[0].ContextMap()["path"])

	get("/healthz")
	get("/metrics")
	require.Len(t, logs.FilterMessage("Request completed").All(), 1)
}

// readBody drains the response into a string.
func readBody(t *testing.T, response *http.Response) string {
	t.Helper()

	data, err := io.ReadAll(response.Body)
	require.NoError(t, err)

	return string(data)
}
