package sfc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/config"
	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
)

// Client отправляет финальный отчет сессии в shop-floor-control и возвращает
// вердикт системы. Поддерживаются два режима legacy-интеграции:
// webservice (POST JSON) и url (GET с query-параметрами).
type Client struct {
	cfg    *config.SFCConfig
	http   *http.Client
	logger *logging.Logger
}

type webserviceResponse struct {
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
}

func NewClient(cfg *config.AppConfig, logger *logging.Logger) interfaces.SFCClient {
	if !cfg.SFC.Enable {
		return nil
	}
	timeout := time.Duration(cfg.SFC.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		cfg:    &cfg.SFC,
		http:   &http.Client{Timeout: timeout},
		logger: logger.WithPrefix("SFC"),
	}
}

// FinalVerdict передает отчет в SFC. Ошибка здесь не фатальна для сессии:
// движок при отказе SFC оставляет локально вычисленный вердикт.
func (c *Client) FinalVerdict(ctx context.Context, report models.SFCReport) (models.SessionState, error) {
	var (
		raw string
		err error
	)
	switch c.cfg.Mode {
	case "url":
		raw, err = c.callURL(ctx, report)
	default:
		raw, err = c.callWebservice(ctx, report)
	}
	if err != nil {
		return "", err
	}
	return parseVerdict(raw)
}

func (c *Client) callWebservice(ctx context.Context, report models.SFCReport) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrCollaborator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: sfc webservice returned status %d", apperrors.ErrCollaborator, resp.StatusCode)
	}

	var decoded webserviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: invalid sfc response: %v", apperrors.ErrCollaborator, err)
	}
	if decoded.Message != "" {
		c.logger.Info("SFC responded", "result", decoded.Result, "message", decoded.Message)
	}
	return decoded.Result, nil
}

func (c *Client) callURL(ctx context.Context, report models.SFCReport) (string, error) {
	endpoint, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", err
	}

	q := endpoint.Query()
	q.Set("serial_number", report.SerialNumber)
	q.Set("station_id", report.StationID)
	q.Set("result", legacyResult(report.Passed))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrCollaborator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: sfc url mode returned status %d", apperrors.ErrCollaborator, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrCollaborator, err)
	}
	return string(bytes.TrimSpace(raw)), nil
}

func legacyResult(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

// parseVerdict сводит ответ SFC к состоянию сессии. Неизвестный ответ
// считается отказом коллаборатора, а не провалом изделия.
func parseVerdict(raw string) (models.SessionState, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PASS", "PASSED", "OK", "GO":
		return models.SessionPassed, nil
	case "FAIL", "FAILED", "NG":
		return models.SessionFailed, nil
	default:
		return "", fmt.Errorf("%w: unrecognized sfc verdict '%s'", apperrors.ErrCollaborator, raw)
	}
}
