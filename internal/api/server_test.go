package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibuddy/medibuddy/internal/metrics"
	"github.com/medibuddy/medibuddy/internal/models"
	"github.com/medibuddy/medibuddy/internal/notify"
	"github.com/medibuddy/medibuddy/internal/repository/memory"
	"github.com/medibuddy/medibuddy/internal/service"
	"github.com/medibuddy/medibuddy/pkg/logger"
)

func newTestServer(t *testing.T, medicines ...models.Medicine) *Server {
	t.Helper()

	store := memory.NewMedicineStore()
	if len(medicines) > 0 {
		require.NoError(t, store.SaveAll(context.Background(), medicines))
	}

	l := logger.New("error")
	registry := prometheus.NewRegistry()
	svc := service.New(store, l)
	dispatcher := service.NewDispatcher(store, notify.NewLogNotifier(l), metrics.New(registry), l, time.Minute)
	t.Cleanup(dispatcher.Stop)

	return NewServer(svc, dispatcher, registry, l)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListMedicines(t *testing.T) {
	s := newTestServer(t,
		models.Medicine{ID: "m1", Name: "Aspirin", Type: models.MedicineTypeRegular, Alarms: []models.Alarm{}},
		models.Medicine{ID: "m2", Name: "Amoxicillin", Type: models.MedicineTypeCourse, StartDate: "2024-01-01", EndDate: "2024-01-10", Alarms: []models.Alarm{}},
	)

	rec := doRequest(t, s, http.MethodGet, "/api/medicines", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var medicines []models.Medicine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &medicines))
	assert.Len(t, medicines, 2)

	rec = doRequest(t, s, http.MethodGet, "/api/medicines?type=course", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &medicines))
	require.Len(t, medicines, 1)
	assert.Equal(t, "m2", medicines[0].ID)

	rec = doRequest(t, s, http.MethodGet, "/api/medicines?q=asp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &medicines))
	require.Len(t, medicines, 1)
	assert.Equal(t, "m1", medicines[0].ID)
}

func TestCreateMedicine(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/medicines",
		`{"name":"Aspirin","type":"regular","alarms":[{"time":"08:00","enabled":true}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Medicine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
}

func TestCreateMedicineValidationFailure(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/medicines", `{"name":"","type":"regular","alarms":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUnknownMedicine(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPut, "/api/medicines/ghost",
		`{"name":"Aspirin","type":"regular","alarms":[]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMedicineIsIdempotent(t *testing.T) {
	s := newTestServer(t, models.Medicine{ID: "m1", Name: "Aspirin", Type: models.MedicineTypeRegular, Alarms: []models.Alarm{}})

	rec := doRequest(t, s, http.MethodDelete, "/api/medicines/m1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/medicines/m1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestToggleAlarm(t *testing.T) {
	s := newTestServer(t, models.Medicine{
		ID: "m1", Name: "Aspirin", Type: models.MedicineTypeRegular,
		Alarms: []models.Alarm{{ID: "a1", Time: "08:00", Enabled: true}},
	})

	rec := doRequest(t, s, http.MethodPut, "/api/medicines/m1/alarms/a1", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Medicine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.False(t, updated.Alarms[0].Enabled)

	rec = doRequest(t, s, http.MethodPut, "/api/medicines/m1/alarms/ghost", `{"enabled":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLowStockThresholdValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/medicines/low-stock?threshold=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchedulerLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/scheduler", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"running":false}`, rec.Body.String())

	rec = doRequest(t, s, http.MethodPost, "/api/scheduler/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"running":true}`, rec.Body.String())

	rec = doRequest(t, s, http.MethodPost, "/api/scheduler/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"running":false}`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
