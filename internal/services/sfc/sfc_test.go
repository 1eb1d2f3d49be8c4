package sfc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sprigga/WebPDTool-sub005/internal/config"
	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testClient(mode, endpoint string) *Client {
	cfg := &config.AppConfig{SFC: config.SFCConfig{
		Enable:    true,
		Mode:      mode,
		Endpoint:  endpoint,
		TimeoutMs: 2000,
	}}
	logger := logging.NewLogger(&logging.Config{Enabled: false}, "TEST")
	return NewClient(cfg, logger).(*Client)
}

func TestWebserviceModePostsReportAndParsesVerdict(t *testing.T) {
	var received models.SFCReport
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"result": "FAIL", "message": "bad solder joint"})
	}))
	defer srv.Close()

	c := testClient("webservice", srv.URL)
	state, err := c.FinalVerdict(context.Background(), models.SFCReport{
		SerialNumber: "SN-1",
		StationID:    "ST1",
		Passed:       true,
	})
	require.NoError(t, err)
	require.Equal(t, models.SessionFailed, state, "вердикт SFC важнее локального")
	require.Equal(t, "SN-1", received.SerialNumber)
}

func TestURLModeSendsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "SN-2", r.URL.Query().Get("serial_number"))
		require.Equal(t, "PASS", r.URL.Query().Get("result"))
		w.Write([]byte("OK\n"))
	}))
	defer srv.Close()

	c := testClient("url", srv.URL)
	state, err := c.FinalVerdict(context.Background(), models.SFCReport{
		SerialNumber: "SN-2",
		StationID:    "ST1",
		Passed:       true,
	})
	require.NoError(t, err)
	require.Equal(t, models.SessionPassed, state)
}

func TestUnreachableEndpointIsCollaboratorError(t *testing.T) {
	c := testClient("webservice", "http://127.0.0.1:1/sfc")

	_, err := c.FinalVerdict(context.Background(), models.SFCReport{SerialNumber: "SN-3"})
	require.ErrorIs(t, err, apperrors.ErrCollaborator)
}

func TestUnrecognizedVerdictIsCollaboratorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"result": "MAYBE"})
	}))
	defer srv.Close()

	c := testClient("webservice", srv.URL)
	_, err := c.FinalVerdict(context.Background(), models.SFCReport{SerialNumber: "SN-4"})
	require.ErrorIs(t, err, apperrors.ErrCollaborator)
}

func TestDisabledSFCProducesNilClient(t *testing.T) {
	cfg := &config.AppConfig{SFC: config.SFCConfig{Enable: false}}
	logger := logging.NewLogger(&logging.Config{Enabled: false}, "TEST")
	require.Nil(t, NewClient(cfg, logger))
}
