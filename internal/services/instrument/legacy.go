package instrument

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
)

// LegacyRunner вызывает внешнюю legacy-команду PDTool4 для типов измерений
// без нативного драйвера. Контракт команды: argv = (step_id, parameter_string),
// одна строка результата в stdout, код выхода 0 при успехе.
type LegacyRunner struct {
	timeout time.Duration
	logger  *logging.Logger
}

func NewLegacyRunner(timeout time.Duration, logger *logging.Logger) *LegacyRunner {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &LegacyRunner{
		timeout: timeout,
		logger:  logger.WithPrefix("LEGACY"),
	}
}

// Run запускает команду и возвращает ее stdout. По истечении таймаута процесс
// принудительно завершается; зависшая команда никогда не подвешивает шаг.
func (lr *LegacyRunner) Run(ctx context.Context, command *models.LegacyCommand, stepID, paramString string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lr.timeout)
	defer cancel()

	args := append(append([]string(nil), command.Args...), stepID, paramString)
	cmd := exec.CommandContext(ctx, command.Path, args...)
	// Если процесс игнорирует сигнал завершения, через WaitDelay он
	// добивается принудительно.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	lr.logger.Debug("Running legacy command", "path", command.Path, "stepID", stepID)
	err := cmd.Run()

	if ctx.Err() != nil {
		lr.logger.Error("Legacy command timed out and was killed", "path", command.Path, "stepID", stepID)
		return "", fmt.Errorf("%w: legacy command '%s'", apperrors.ErrInstrumentTimeout, command.Path)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: legacy command '%s' exited %d: %s",
				apperrors.ErrInstrumentCommand, command.Path, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%w: legacy command '%s': %v", apperrors.ErrInstrumentCommand, command.Path, err)
	}

	result := strings.TrimSpace(stdout.String())
	lr.logger.Debug("Legacy command finished", "stepID", stepID, "result", result)
	return result, nil
}
