package instrument

import (
	"context"
	"testing"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestLegacyCommandStdoutIsResult(t *testing.T) {
	lr := NewLegacyRunner(5*time.Second, testLogger())
	cmd := &models.LegacyCommand{Path: "/bin/sh", Args: []string{"-c", `echo "3.141"`}}

	out, err := lr.Run(context.Background(), cmd, "STEP_42", "ch=1")
	require.NoError(t, err)
	require.Equal(t, "3.141", out)
}

func TestLegacyCommandReceivesStepArgs(t *testing.T) {
	lr := NewLegacyRunner(5*time.Second, testLogger())
	// argv после -c: $0=step_id, $1=parameter_string
	cmd := &models.LegacyCommand{Path: "/bin/sh", Args: []string{"-c", `echo "$0 $1"`}}

	out, err := lr.Run(context.Background(), cmd, "STEP_42", "ch=1")
	require.NoError(t, err)
	require.Equal(t, "STEP_42 ch=1", out)
}

func TestLegacyCommandNonZeroExit(t *testing.T) {
	lr := NewLegacyRunner(5*time.Second, testLogger())
	cmd := &models.LegacyCommand{Path: "/bin/sh", Args: []string{"-c", "echo boom >&2; exit 3"}}

	_, err := lr.Run(context.Background(), cmd, "STEP_1", "")
	require.ErrorIs(t, err, apperrors.ErrInstrumentCommand)
	require.Contains(t, err.Error(), "boom")
}

func TestLegacyCommandKilledAtTimeout(t *testing.T) {
	lr := NewLegacyRunner(150*time.Millisecond, testLogger())
	cmd := &models.LegacyCommand{Path: "/bin/sh", Args: []string{"-c", "sleep 30"}}

	start := time.Now()
	_, err := lr.Run(context.Background(), cmd, "STEP_1", "")
	require.ErrorIs(t, err, apperrors.ErrInstrumentTimeout)
	require.Less(t, time.Since(start), 5*time.Second, "зависшая команда должна быть убита по таймауту")
}
