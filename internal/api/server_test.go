package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netscan-tools/netscan/internal/config"
	"github.com/netscan-tools/netscan/internal/discovery"
	"github.com/netscan-tools/netscan/internal/scan"
)

func testServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.API.Enabled = true
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func doRequest(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestScanEndpointAccepted(t *testing.T) {
	s := testServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/v1/scan",
		`{"host":"127.0.0.1","ports":"1"}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, JobTypeScan, job.Type)
	assert.Equal(t, JobStatusRunning, job.Status)

	// The job finishes asynchronously; poll until it does.
	deadline := time.Now().Add(10 * time.Second)
	for {
		stored, ok := s.jobs.Get(job.ID)
		require.True(t, ok)
		if stored.Status != JobStatusRunning {
			assert.Equal(t, JobStatusComplete, stored.Status)
			break
		}
		require.True(t, time.Now().Before(deadline), "job never finished")
		time.Sleep(20 * time.Millisecond)
	}
}

func TestScanEndpointValidation(t *testing.T) {
	s := testServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing host", body: `{"ports":"80"}`},
		{name: "reversed range", body: `{"host":"h","ports":"9-1"}`},
		{name: "malformed JSON", body: `{"host":`},
		{name: "unknown field", body: `{"host":"h","bogus":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/v1/scan", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDiscoverEndpointValidation(t *testing.T) {
	s := testServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/v1/discover",
		`{"prefix":"10.0.0.0"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewWiresDiscoveryTools(t *testing.T) {
	s := testServer(t, nil)

	// Discovery jobs rely on the reverse resolver and pinger wired at
	// construction; requests cannot supply them.
	scanner := reflect.ValueOf(s.discoverer).Elem()
	for _, field := range []string{"resolver", "pinger"} {
		value := scanner.FieldByName(field)
		require.True(t, value.IsValid(), "field %q missing", field)
		assert.False(t, value.IsNil(), "%s not wired", field)
	}
}

func TestScanRequestDefaults(t *testing.T) {
	s := testServer(t, func(cfg *config.Config) {
		cfg.Scanning.DefaultPorts = "1,2,3"
		cfg.Scanning.Timeout = config.Duration(250 * time.Millisecond)
		cfg.Scanning.Concurrency = 7
		cfg.Scanning.Deadline = config.Duration(time.Minute)
	})

	cfg := scan.Config{Host: "example.com"}
	s.applyScanDefaults(&cfg)
	assert.Equal(t, "1,2,3", cfg.Ports)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 7, cfg.Concurrency)
	assert.Equal(t, time.Minute, cfg.Deadline)

	// Values the request carries are kept.
	cfg = scan.Config{Host: "example.com", Ports: "80", Concurrency: 2}
	s.applyScanDefaults(&cfg)
	assert.Equal(t, "80", cfg.Ports)
	assert.Equal(t, 2, cfg.Concurrency)

	// A request with no ports scans the configured default set.
	rec := doRequest(s, http.MethodPost, "/api/v1/scan", `{"host":"127.0.0.1"}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))

	deadline := time.Now().Add(10 * time.Second)
	for {
		stored, ok := s.jobs.Get(job.ID)
		require.True(t, ok)
		if stored.Status != JobStatusRunning {
			require.Equal(t, JobStatusComplete, stored.Status)
			result, ok := stored.Result.(*scan.Result)
			require.True(t, ok)
			assert.Equal(t, 3, result.Stats.Total)
			break
		}
		require.True(t, time.Now().Before(deadline), "job never finished")
		time.Sleep(20 * time.Millisecond)
	}
}

func TestDiscoverRequestDefaults(t *testing.T) {
	s := testServer(t, func(cfg *config.Config) {
		cfg.Discovery.CheckPorts = []int{8080}
		cfg.Discovery.Timeout = config.Duration(300 * time.Millisecond)
		cfg.Discovery.Workers = 9
		cfg.Discovery.UsePing = true
		cfg.Discovery.SNMPCommunity = "public"
	})

	cfg := discovery.Config{Prefix: "192.168.1"}
	s.applyDiscoverDefaults(&cfg)
	assert.Equal(t, []int{8080}, cfg.CheckPorts)
	assert.Equal(t, 300*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 9, cfg.Workers)
	assert.True(t, cfg.UsePing)
	assert.Equal(t, "public", cfg.SNMPCommunity)

	// Values the request carries are kept.
	cfg = discovery.Config{Prefix: "192.168.1", CheckPorts: []int{22}, Workers: 3}
	s.applyDiscoverDefaults(&cfg)
	assert.Equal(t, []int{22}, cfg.CheckPorts)
	assert.Equal(t, 3, cfg.Workers)
}

func TestJobEndpoints(t *testing.T) {
	s := testServer(t, nil)

	job := s.jobs.Create(JobTypeScan)
	s.jobs.Complete(job.ID, map[string]int{"open": 2})

	rec := doRequest(s, http.MethodGet, "/api/v1/jobs/"+job.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, JobStatusComplete, fetched.Status)

	rec = doRequest(s, http.MethodGet, "/api/v1/jobs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), job.ID.String())

	rec = doRequest(s, http.MethodGet, "/api/v1/jobs/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/jobs/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIKeyAuth(t *testing.T) {
	hash, err := HashAPIKey("sekrit")
	require.NoError(t, err)

	s := testServer(t, func(cfg *config.Config) {
		cfg.API.APIKeyHashes = []string{hash}
	})

	// Health stays open; the API subtree requires the key.
	rec := doRequest(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/jobs", "",
		map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/jobs", "",
		map[string]string{"X-API-Key": "sekrit"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJobStoreListOrder(t *testing.T) {
	store := NewJobStore()

	first := store.Create(JobTypeScan)
	time.Sleep(5 * time.Millisecond)
	second := store.Create(JobTypeDiscover)

	jobs := store.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}

func TestMetricsEndpointOptIn(t *testing.T) {
	s := testServer(t, nil)
	rec := doRequest(s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s = testServer(t, func(cfg *config.Config) {
		cfg.Metrics.Prometheus = true
	})
	rec = doRequest(s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
