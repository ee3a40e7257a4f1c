package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"go-passport-scanner/document/mrz"
	"go-passport-scanner/metrics"
	"go-passport-scanner/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	// Dutch specimen passport, valid until 2031
	testMrzLine1 = "P<NLDDE<BRUIJN<<WILLEKE<LISELOTTE<<<<<<<<<<<"
	testMrzLine2 = "SPECI20142NLD6503101F3103091999999990<<<<<84"

	// ICAO 9303 specimen, expired in 2012
	expiredMrzLine1 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"
	expiredMrzLine2 = "L898902C36UTO7408122F1204159ZE184226B<<<<<10"

	testSessionId = "0123456789abcdef0123456789abcdef"
	testBaseUrl   = "http://localhost:8081"
)

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

var testConfig = ServerConfig{
	Host:           "localhost",
	Port:           8081,
	UseTls:         false,
	TlsCertPath:    "",
	TlsPrivKeyPath: "",
}

type testServerOption func(*ServerState)

func withJwtCreator(creator JwtCreator) testServerOption {
	return func(s *ServerState) { s.jwtCreator = creator }
}

func withConverter(converter PassportDataConverter) testServerOption {
	return func(s *ServerState) { s.converter = converter }
}

func startTestServer(t *testing.T, storage ScanStorage, opts ...testServerOption) *ServerState {
	t.Helper()

	registry := prometheus.NewRegistry()
	testState := &ServerState{
		irmaServerURL: "https://irma.example",
		scanStorage:   storage,
		jwtCreator:    fakeJwtCreator{jwt: "test-jwt"},
		converter:     IssuanceRequestConverterImpl{},
		metrics:       metrics.New(registry),
		gatherer:      registry,
		now:           func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(testState)
	}

	srv, err := NewServer(testState, testConfig)
	require.NoError(t, err)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("server error: %v", err)
		}
	}()

	waitUntilHealthy(t, testBaseUrl+"/api/health")
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Logf("error shutting down server: %v", err)
		}
	})
	return testState
}

func waitUntilHealthy(t *testing.T, url string) {
	t.Helper()
	const maxAttempts = 50
	for i := 0; i < maxAttempts; i++ {
		if resp, err := http.Get(url); err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server did not start in time")
}

func postJSON[T any](t *testing.T, url string, payload any) (*http.Response, []byte, *T) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	}
	resp, err := http.Post(url, "application/json", body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var v T
	_ = json.Unmarshal(respBody, &v)

	return resp, respBody, &v
}

func getJSON[T any](t *testing.T, url string) (*http.Response, []byte, *T) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var v T
	_ = json.Unmarshal(respBody, &v)

	return resp, respBody, &v
}

func mustStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body: %s", body)
}

func startScan(t *testing.T) string {
	t.Helper()
	resp, body, sr := postJSON[models.StartScanResponse](t, testBaseUrl+"/api/start-scan", nil)
	mustStatus(t, resp, http.StatusOK, body)
	require.Len(t, sr.SessionId, 32)
	return sr.SessionId
}

func scanFrame(t *testing.T, request models.ScanFrameRequest) (*http.Response, []byte, *models.ScanFrameResponse) {
	t.Helper()
	return postJSON[models.ScanFrameResponse](t, testBaseUrl+"/api/scan-frame", request)
}

// pageText renders a recognized passport page with the MRZ at the bottom.
func pageText(line1, line2 string) string {
	return fmt.Sprintf("PASSPORT\nKINGDOM OF THE NETHERLANDS\nSurname / Nom\n%s\r\n%s\n", line1, line2)
}

// test doubles

type fakeJwtCreator struct {
	jwt string
	err error
}

func (f fakeJwtCreator) CreatePassportJwt(_ models.PassportData) (string, error) {
	return f.jwt, f.err
}

type fakeConverter struct{ err error }

func (f fakeConverter) ToPassportData(record mrz.PassportRecord, _ time.Time) (models.PassportData, error) {
	return models.PassportData{DocumentNumber: record.PassportNumber}, f.err
}
