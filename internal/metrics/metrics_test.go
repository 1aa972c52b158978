package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	// Init uses sync.Once; later calls are no-ops
	Init()
	Init()

	assert.True(t, IsRegistered())
	assert.NotNil(t, FetchAttemptsTotal())
	assert.NotNil(t, AcquisitionsTotal())
	assert.NotNil(t, AcquisitionDuration())
	assert.NotNil(t, DecodeFailuresTotal())
	assert.NotNil(t, SchemeLookupsTotal())
}

func TestInit_ConcurrentWithRecording(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Init()
		}()
		go func() {
			defer wg.Done()
			r.RecordFetchAttempt(OutcomeSuccess)
			r.RecordAcquisition(true, time.Millisecond)
			r.RecordDecodeFailure("anonymous_secret")
			r.RecordSchemeLookup(true)
			_ = IsRegistered()
		}()
	}
	wg.Wait()

	assert.True(t, IsRegistered())
}

func TestRecorder_FetchAttempts(t *testing.T) {
	Init()
	r := New()

	before := testutil.ToFloat64(FetchAttemptsTotal().WithLabelValues(OutcomeRetryable))
	r.RecordFetchAttempt(OutcomeRetryable)
	r.RecordFetchAttempt(OutcomeRetryable)
	after := testutil.ToFloat64(FetchAttemptsTotal().WithLabelValues(OutcomeRetryable))

	assert.Equal(t, before+2, after)
}

func TestRecorder_Acquisition(t *testing.T) {
	Init()
	r := New()

	okBefore := testutil.ToFloat64(AcquisitionsTotal().WithLabelValues(ResultSucceeded))
	failBefore := testutil.ToFloat64(AcquisitionsTotal().WithLabelValues(ResultFailed))

	r.RecordAcquisition(true, 10*time.Millisecond)
	r.RecordAcquisition(false, 400*time.Millisecond)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(AcquisitionsTotal().WithLabelValues(ResultSucceeded)))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(AcquisitionsTotal().WithLabelValues(ResultFailed)))
}

func TestRecorder_DecodeFailuresAndLookups(t *testing.T) {
	Init()
	var r Recorder

	before := testutil.ToFloat64(DecodeFailuresTotal().WithLabelValues("user_creds_secret"))
	r.RecordDecodeFailure("user_creds_secret")
	assert.Equal(t, before+1, testutil.ToFloat64(DecodeFailuresTotal().WithLabelValues("user_creds_secret")))

	unknown := testutil.ToFloat64(SchemeLookupsTotal().WithLabelValues(ResultUnknown))
	r.RecordSchemeLookup(false)
	assert.Equal(t, unknown+1, testutil.ToFloat64(SchemeLookupsTotal().WithLabelValues(ResultUnknown)))
}

func TestServer_Handler(t *testing.T) {
	Init()
	New().RecordSchemeLookup(true)

	srv := httptest.NewServer(NewServer(DefaultServerConfig(":0")).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "dsauth_scheme_lookups_total")

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = health.Body.Close() }()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServer_DisabledWithoutAddr(t *testing.T) {
	s := NewServer(ServerConfig{})
	require.NoError(t, s.Start())
	assert.Empty(t, s.Addr())
	assert.NoError(t, s.Stop(context.Background()))
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer(DefaultServerConfig("127.0.0.1:0"))
	require.NoError(t, s.Start())
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.True(t, strings.HasPrefix(string(body), "OK"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestServe_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
