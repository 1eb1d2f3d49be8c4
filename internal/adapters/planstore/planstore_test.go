package planstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/config"
	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{Enabled: false}, "TEST")
}

func writePlan(t *testing.T, dir, stationID, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stationID+".json"), []byte(content), 0644))
}

func newStore(t *testing.T, plansDir string) *FileStore {
	cfg := &config.AppConfig{Station: config.StationConfig{PlansDir: plansDir}}
	return NewFileStore(cfg, testLogger()).(*FileStore)
}

func TestPlanStepsSortedByIndex(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "ST1", `{
		"options": {"continue_on_fail": true},
		"steps": [
			{"step_id": "B", "index": 2, "kind": "noop", "limits": {"limit_type": "none", "value_type": "string"}},
			{"step_id": "A", "index": 1, "kind": "noop", "limits": {"limit_type": "none", "value_type": "string"}}
		]
	}`)

	store := newStore(t, dir)
	steps, err := store.GetPlan("ST1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	require.Equal(t, "A", steps[0].StepID)
	require.Equal(t, "B", steps[1].StepID)

	opts, err := store.GetPlanOptions("ST1")
	require.NoError(t, err)
	require.True(t, opts.ContinueOnFail)
}

func TestMissingPlanIsError(t *testing.T) {
	store := newStore(t, t.TempDir())
	_, err := store.GetPlan("NOPE")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no test plan for station 'NOPE'")
}

func TestUseResultForwardReferenceRejected(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "ST1", `{
		"steps": [
			{"step_id": "A", "index": 1, "kind": "noop", "use_result": "B", "limits": {"limit_type": "none", "value_type": "string"}},
			{"step_id": "B", "index": 2, "kind": "noop", "limits": {"limit_type": "none", "value_type": "string"}}
		]
	}`)

	store := newStore(t, dir)
	_, err := store.GetPlan("ST1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "use_result")
}

func TestDuplicateStepIDRejected(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "ST1", `{
		"steps": [
			{"step_id": "A", "index": 1, "kind": "noop", "limits": {"limit_type": "none", "value_type": "string"}},
			{"step_id": "A", "index": 2, "kind": "noop", "limits": {"limit_type": "none", "value_type": "string"}}
		]
	}`)

	store := newStore(t, dir)
	_, err := store.GetPlan("ST1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate step_id")
}

func TestPlanReloadedAfterFileChange(t *testing.T) {
	dir := t.TempDir()
	writePlan(t, dir, "ST1", `{"steps": [{"step_id": "A", "index": 1, "kind": "noop", "limits": {"limit_type": "none", "value_type": "string"}}]}`)

	store := newStore(t, dir)
	steps, err := store.GetPlan("ST1")
	require.NoError(t, err)
	require.Len(t, steps, 1)

	writePlan(t, dir, "ST1", `{"steps": [
		{"step_id": "A", "index": 1, "kind": "noop", "limits": {"limit_type": "none", "value_type": "string"}},
		{"step_id": "B", "index": 2, "kind": "noop", "limits": {"limit_type": "none", "value_type": "string"}}
	]}`)
	// mtime может иметь секундную гранулярность на некоторых ФС
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "ST1.json"), future, future))

	steps, err = store.GetPlan("ST1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
}

func TestInstrumentRegistryLookup(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "instruments.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"instruments": {
			"PSU1": {"type": "tcp", "address": "10.0.0.5:5025", "driver_type": "power_supply"},
			"DMM1": {"type": "serial", "address": "/dev/ttyUSB0", "baud": 9600, "driver_type": "dmm"}
		},
		"legacy_commands": {
			"command_test": {"path": "/opt/pdtool/bin/legacy_cmd", "args": ["--compat"]}
		}
	}`), 0644))

	cfg := &config.AppConfig{Station: config.StationConfig{InstrumentsFile: file}}
	registry, err := NewInstrumentRegistry(cfg, testLogger())
	require.NoError(t, err)

	desc, err := registry.GetDescriptor("PSU1")
	require.NoError(t, err)
	require.Equal(t, models.TransportTCP, desc.Type)
	require.Equal(t, "power_supply", desc.DriverType)

	_, err = registry.GetDescriptor("GHOST")
	require.Error(t, err)

	cmd, err := registry.GetLegacyCommand(models.KindCommandTest)
	require.NoError(t, err)
	require.Equal(t, "/opt/pdtool/bin/legacy_cmd", cmd.Path)

	_, err = registry.GetLegacyCommand(models.KindRelay)
	require.Error(t, err)

	require.Equal(t, []string{"DMM1", "PSU1"}, registry.ListInstruments())
}
