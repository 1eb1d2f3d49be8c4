package testexec

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/entities"
	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
	"github.com/stretchr/testify/require"
)

// --- Фейки внешних коллабораторов ---

type fakePlanStore struct {
	plans   map[string][]models.TestPlanStep
	options map[string]models.PlanOptions
}

func (f *fakePlanStore) GetPlan(stationID string) ([]models.TestPlanStep, error) {
	plan, ok := f.plans[stationID]
	if !ok {
		return nil, fmt.Errorf("no plan for station '%s'", stationID)
	}
	return plan, nil
}

func (f *fakePlanStore) GetPlanOptions(stationID string) (models.PlanOptions, error) {
	return f.options[stationID], nil
}

// fakeDriver отвечает на Query по таблице команда -> ответ.
type fakeDriver struct {
	mu        sync.Mutex
	responses map[string]string
	queries   []string
}

func (d *fakeDriver) Initialize(ctx context.Context) error { return nil }
func (d *fakeDriver) Reset(ctx context.Context) error      { return nil }
func (d *fakeDriver) Close() error                         { return nil }

func (d *fakeDriver) Write(ctx context.Context, command string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, command)
	return nil
}

func (d *fakeDriver) Query(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, command)
	if resp, ok := d.responses[command]; ok {
		return resp, nil
	}
	return command, nil // Эхо по умолчанию
}

type fakeInstrumentService struct {
	mu     sync.Mutex
	driver *fakeDriver
	resets []string
	legacy map[string]string
}

func (f *fakeInstrumentService) GetDriver(ctx context.Context, instrumentID string) (interfaces.Driver, error) {
	if instrumentID == "PANIC" {
		panic("driver table corrupted")
	}
	if instrumentID == "MISSING" {
		return nil, apperrors.ErrInstrumentNotFound
	}
	return f.driver, nil
}

func (f *fakeInstrumentService) Reset(ctx context.Context, instrumentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, instrumentID)
	return nil
}

func (f *fakeInstrumentService) Status(instrumentID string) (*models.InstrumentStatus, error) {
	return &models.InstrumentStatus{InstrumentID: instrumentID}, nil
}

func (f *fakeInstrumentService) RunLegacy(ctx context.Context, kind models.MeasurementKind, stepID, paramString string) (string, error) {
	if out, ok := f.legacy[stepID]; ok {
		return out, nil
	}
	return "", fmt.Errorf("no legacy command for step '%s'", stepID)
}

func (f *fakeInstrumentService) DrainAll(ctx context.Context) {}

func (f *fakeInstrumentService) resetCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resets...)
}

// fakeRepo - sink: движок обязан работать и при его отказах, но здесь он
// исправен и накапливает записи для проверок.
type fakeRepo struct {
	mu       sync.Mutex
	sessions map[string]*entities.TestSession
	results  []entities.MeasurementResult
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: make(map[string]*entities.TestSession)}
}

func (r *fakeRepo) CreateSession(s *entities.TestSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SessionID] = s
	return nil
}

func (r *fakeRepo) UpdateSessionState(sessionID, state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.State = state
	}
	return nil
}

func (r *fakeRepo) FinishSession(sessionID, state string) error {
	return r.UpdateSessionState(sessionID, state)
}

func (r *fakeRepo) GetSessionByID(sessionID string) (*entities.TestSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("not found")
}

func (r *fakeRepo) GetAllSessions() ([]entities.TestSession, error) { return nil, nil }

func (r *fakeRepo) SaveResult(res *entities.MeasurementResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, *res)
	return nil
}

func (r *fakeRepo) GetResultsBySession(sessionID string) ([]entities.MeasurementResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.MeasurementResult
	for _, res := range r.results {
		if res.SessionID == sessionID {
			out = append(out, res)
		}
	}
	return out, nil
}

// --- Сборка движка для тестов ---

type engineFixture struct {
	engine      *Engine
	instruments *fakeInstrumentService
	repo        *fakeRepo
	driver      *fakeDriver
}

func newFixture(t *testing.T, plans map[string][]models.TestPlanStep, options map[string]models.PlanOptions) *engineFixture {
	t.Helper()

	driver := &fakeDriver{responses: map[string]string{
		"READ_A": "1",
		"READ_B": "2",
		"READ_C": "3",
	}}
	instruments := &fakeInstrumentService{driver: driver}
	repo := newFakeRepo()
	logger := logging.NewLogger(&logging.Config{Enabled: false}, "TEST")

	deps := &MeasurementDeps{Instruments: instruments, Logger: logger}
	engine := NewEngine(&fakePlanStore{plans: plans, options: options}, instruments, repo, nil, nil, deps, logger)
	return &engineFixture{engine: engine, instruments: instruments, repo: repo, driver: driver}
}

func commandStep(id, command, equality string) models.TestPlanStep {
	return models.TestPlanStep{
		StepID:     id,
		Name:       "step " + id,
		Kind:       models.KindCommandTest,
		Instrument: "DMM1",
		Params:     map[string]string{"command": command},
		Limits: models.LimitSpec{
			LimitType:     models.LimitEquality,
			ValueType:     models.ValueString,
			EqualityLimit: equality,
		},
	}
}

func waitTerminal(t *testing.T, e *Engine, sessionID string) models.SessionState {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		info, err := e.GetSession(sessionID)
		require.NoError(t, err)
		if info.State.Terminal() {
			return info.State
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("сессия не достигла терминального состояния")
	return ""
}

func verdicts(results []*models.StepResult) []models.Verdict {
	out := make([]models.Verdict, 0, len(results))
	for _, r := range results {
		out = append(out, r.Verdict)
	}
	return out
}

// --- Тесты ---

func TestStopOnFailSkipsRemainingSteps(t *testing.T) {
	plan := []models.TestPlanStep{
		commandStep("A", "READ_A", "1"),   // PASS
		commandStep("B", "READ_B", "999"), // FAIL
		commandStep("C", "READ_C", "3"),   // не должен выполниться
	}
	fx := newFixture(t, map[string][]models.TestPlanStep{"ST1": plan}, nil)

	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-001"})
	require.NoError(t, err)

	state := waitTerminal(t, fx.engine, info.SessionID)
	require.Equal(t, models.SessionFailed, state)

	results, err := fx.engine.GetResults(info.SessionID)
	require.NoError(t, err)
	require.Equal(t, []models.Verdict{models.VerdictPass, models.VerdictFail, models.VerdictSkip}, verdicts(results))
}

func TestContinueOnFailRunsAllSteps(t *testing.T) {
	plan := []models.TestPlanStep{
		commandStep("A", "READ_A", "1"),
		commandStep("B", "READ_B", "999"),
		commandStep("C", "READ_C", "3"),
	}
	fx := newFixture(t, map[string][]models.TestPlanStep{"ST1": plan}, nil)

	yes := true
	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-002", ContinueOnFail: &yes})
	require.NoError(t, err)

	state := waitTerminal(t, fx.engine, info.SessionID)
	require.Equal(t, models.SessionFailed, state, "любой FAIL делает сессию FAILED")

	results, err := fx.engine.GetResults(info.SessionID)
	require.NoError(t, err)
	require.Equal(t, []models.Verdict{models.VerdictPass, models.VerdictFail, models.VerdictPass}, verdicts(results))
}

func TestEmptyPlanPassesImmediately(t *testing.T) {
	fx := newFixture(t, map[string][]models.TestPlanStep{"EMPTY": {}}, nil)

	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "EMPTY", SerialNumber: "SN-003"})
	require.NoError(t, err)

	state := waitTerminal(t, fx.engine, info.SessionID)
	require.Equal(t, models.SessionPassed, state)
}

func TestUseResultMissingFailsWithDependencyError(t *testing.T) {
	step := commandStep("B", "CHECK", "whatever")
	step.UseResult = "NEVER_RAN"
	fx := newFixture(t, map[string][]models.TestPlanStep{"ST1": {step}}, nil)

	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-004"})
	require.NoError(t, err)

	state := waitTerminal(t, fx.engine, info.SessionID)
	require.Equal(t, models.SessionError, state)

	results, err := fx.engine.GetResults(info.SessionID)
	require.NoError(t, err)
	require.Equal(t, models.VerdictError, results[0].Verdict)
	require.Contains(t, results[0].ErrorText, "unresolved step dependency")
}

func TestUseResultSubstitutesExactPriorValue(t *testing.T) {
	first := commandStep("A", "READ_A", "1")
	second := commandStep("B", "CHECK", "CHECK 1")
	second.UseResult = "A"
	fx := newFixture(t, map[string][]models.TestPlanStep{"ST1": {first, second}}, nil)

	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-005"})
	require.NoError(t, err)

	state := waitTerminal(t, fx.engine, info.SessionID)
	require.Equal(t, models.SessionPassed, state)
	require.Contains(t, fx.driver.queries, "CHECK 1", "значение шага A должно подставиться в команду шага B")
}

func TestUnknownKindIsNoopPass(t *testing.T) {
	plan := []models.TestPlanStep{{
		StepID: "X",
		Name:   "mystery step",
		Kind:   models.MeasurementKind("quantum_flux"),
		Limits: models.LimitSpec{LimitType: models.LimitBoth, ValueType: models.ValueFloat, LowerLimit: "1", UpperLimit: "2"},
	}}
	fx := newFixture(t, map[string][]models.TestPlanStep{"ST1": plan}, nil)

	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-006"})
	require.NoError(t, err)

	state := waitTerminal(t, fx.engine, info.SessionID)
	require.Equal(t, models.SessionPassed, state, "неизвестный тип измерения обязан проходить")
}

func TestMeasurementPanicBecomesErrorVerdict(t *testing.T) {
	step := commandStep("A", "READ_A", "1")
	step.Instrument = "PANIC"
	fx := newFixture(t, map[string][]models.TestPlanStep{"ST1": {step}}, nil)

	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-007"})
	require.NoError(t, err)

	state := waitTerminal(t, fx.engine, info.SessionID)
	require.Equal(t, models.SessionError, state)

	results, err := fx.engine.GetResults(info.SessionID)
	require.NoError(t, err)
	require.Contains(t, results[0].ErrorText, "measurement panic")
}

func TestDuplicateSerialRejectedWhileActive(t *testing.T) {
	plan := []models.TestPlanStep{{
		StepID: "D",
		Kind:   models.KindDelay,
		Params: map[string]string{"delay_ms": "300"},
		Limits: models.LimitSpec{LimitType: models.LimitNone, ValueType: models.ValueString},
	}}
	fx := newFixture(t, map[string][]models.TestPlanStep{"ST1": plan}, nil)

	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-008"})
	require.NoError(t, err)

	_, err = fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-008"})
	require.ErrorIs(t, err, apperrors.ErrSessionActive)

	waitTerminal(t, fx.engine, info.SessionID)

	// После завершения тот же серийный номер можно запускать снова.
	_, err = fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-008"})
	require.NoError(t, err)
}

func TestTouchedInstrumentsAreResetAtSessionEnd(t *testing.T) {
	plan := []models.TestPlanStep{commandStep("A", "READ_A", "1")}
	fx := newFixture(t, map[string][]models.TestPlanStep{"ST1": plan}, nil)

	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-009"})
	require.NoError(t, err)
	waitTerminal(t, fx.engine, info.SessionID)

	require.Equal(t, []string{"DMM1"}, fx.instruments.resetCalls())
}

func TestAbortInterruptsRunningStep(t *testing.T) {
	plan := []models.TestPlanStep{
		{
			StepID: "LONG",
			Kind:   models.KindDelay,
			Params: map[string]string{"delay_ms": "30000"},
			Limits: models.LimitSpec{LimitType: models.LimitNone, ValueType: models.ValueString},
		},
		commandStep("AFTER", "READ_A", "1"),
	}
	fx := newFixture(t, map[string][]models.TestPlanStep{"ST1": plan}, nil)

	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-010"})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond) // Даем шагу LONG начаться
	require.NoError(t, fx.engine.AbortSession(info.SessionID))

	start := time.Now()
	state := waitTerminal(t, fx.engine, info.SessionID)
	require.Equal(t, models.SessionError, state)
	require.Less(t, time.Since(start), 5*time.Second, "аборт должен прервать шаг, а не ждать его")

	results, err := fx.engine.GetResults(info.SessionID)
	require.NoError(t, err)
	require.Equal(t, models.VerdictError, results[0].Verdict)
	require.Equal(t, models.VerdictSkip, results[1].Verdict)
}

func TestResultsArePersistedToRepo(t *testing.T) {
	plan := []models.TestPlanStep{commandStep("A", "READ_A", "1")}
	fx := newFixture(t, map[string][]models.TestPlanStep{"ST1": plan}, nil)

	info, err := fx.engine.StartSession(models.StartSessionRequest{StationID: "ST1", SerialNumber: "SN-011"})
	require.NoError(t, err)
	waitTerminal(t, fx.engine, info.SessionID)

	stored, err := fx.repo.GetResultsBySession(info.SessionID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "PASS", stored[0].Verdict)
	require.Equal(t, "1", stored[0].Value)
}
