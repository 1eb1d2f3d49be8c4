package testexec

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sprigga/WebPDTool-sub005/internal/domain/entities"
	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	"github.com/sprigga/WebPDTool-sub005/internal/services/measure"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
)

// Engine - движок исполнения тест-планов. Одна логическая сессия на серийный
// номер; сессии разных станций выполняются конкурентно. Шаги внутри сессии
// строго последовательны: шаг N+1 не начинается, пока не записан результат
// шага N, потому что от него зависит use_result.
type Engine struct {
	planStore   interfaces.PlanStore
	instruments interfaces.InstrumentService
	repo        interfaces.SessionRepository
	producer    interfaces.KafkaService
	sfc         interfaces.SFCClient
	deps        *MeasurementDeps
	logger      *logging.Logger

	mu       sync.Mutex
	sessions map[string]*runtimeSession
	bySerial map[string]string // Активный серийный номер -> session id
}

var _ interfaces.TestEngine = (*Engine)(nil)

func NewEngine(
	planStore interfaces.PlanStore,
	instruments interfaces.InstrumentService,
	repo interfaces.SessionRepository,
	producer interfaces.KafkaService,
	sfc interfaces.SFCClient,
	deps *MeasurementDeps,
	logger *logging.Logger,
) *Engine {
	return &Engine{
		planStore:   planStore,
		instruments: instruments,
		repo:        repo,
		producer:    producer,
		sfc:         sfc,
		deps:        deps,
		logger:      logger.WithPrefix("ENGINE"),
		sessions:    make(map[string]*runtimeSession),
		bySerial:    make(map[string]string),
	}
}

// StartSession загружает план станции и асинхронно запускает прогон.
// Повторный запуск для серийного номера с активной сессией отклоняется.
func (e *Engine) StartSession(req models.StartSessionRequest) (*models.SessionInfo, error) {
	steps, err := e.planStore.GetPlan(req.StationID)
	if err != nil {
		return nil, fmt.Errorf("load plan for station '%s': %w", req.StationID, err)
	}

	continueOnFail := false
	if opts, err := e.planStore.GetPlanOptions(req.StationID); err == nil {
		continueOnFail = opts.ContinueOnFail
	}
	if req.ContinueOnFail != nil {
		continueOnFail = *req.ContinueOnFail
	}

	e.mu.Lock()
	if active, ok := e.bySerial[req.SerialNumber]; ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: serial '%s' is running as session %s", apperrors.ErrSessionActive, req.SerialNumber, active)
	}

	sessionID := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	sess := newRuntimeSession(models.SessionInfo{
		SessionID:    sessionID,
		StationID:    req.StationID,
		SerialNumber: req.SerialNumber,
		State:        models.SessionPending,
		StartedAt:    time.Now(),
		StepsTotal:   len(steps),
	}, steps, continueOnFail, cancel)

	e.sessions[sessionID] = sess
	e.bySerial[req.SerialNumber] = sessionID
	e.mu.Unlock()

	// Персистентность - это sink: его отказ не блокирует прогон.
	if err := e.repo.CreateSession(&entities.TestSession{
		SessionID:      sessionID,
		StationID:      req.StationID,
		SerialNumber:   req.SerialNumber,
		State:          entities.StatePending,
		ContinueOnFail: continueOnFail,
		StartedAt:      sess.info.StartedAt,
	}); err != nil {
		e.logger.Warn("Failed to persist new session", "sessionID", sessionID, "error", err)
	}

	e.logger.Info("Session started", "sessionID", sessionID, "stationID", req.StationID, "serial", req.SerialNumber, "steps", len(steps))
	go e.run(ctx, sess)

	return sess.snapshot(), nil
}

// run - главный цикл сессии. Ошибки уровня шага никогда не покидают цикл:
// каждая превращается в терминальный результат шага.
func (e *Engine) run(ctx context.Context, sess *runtimeSession) {
	sessionID := sess.info.SessionID
	sess.setState(models.SessionRunning)
	if err := e.repo.UpdateSessionState(sessionID, entities.StateRunning); err != nil {
		e.logger.Warn("Failed to persist session state", "sessionID", sessionID, "error", err)
	}

	stopped := false
	for i := range sess.steps {
		step := sess.steps[i]

		var res *models.StepResult
		var raw string
		if stopped || sess.isAborted() {
			res = &models.StepResult{
				StepID:    step.StepID,
				StepIndex: step.Index,
				Name:      step.Name,
				Verdict:   models.VerdictSkip,
				Limits:    step.Limits,
			}
		} else {
			res, raw = e.runStep(ctx, sess, &step)
		}

		sess.appendResult(res, raw)
		e.persistResult(sessionID, res)

		if !stopped && (res.Verdict == models.VerdictFail || res.Verdict == models.VerdictError) {
			if sess.isAborted() || !sess.continueOnFail {
				stopped = true
			}
		}
	}

	e.finalize(sess)
}

// runStep выполняет один шаг: разрешение use_result, выбор измерения,
// жизненный цикл prepare/execute/cleanup, валидация. Вторым значением
// возвращается сырое измеренное значение для реестра результатов: по
// use_result подставляется именно оно, а не каноничная форма после каста.
func (e *Engine) runStep(ctx context.Context, sess *runtimeSession, step *models.TestPlanStep) (*models.StepResult, string) {
	start := time.Now()
	res := &models.StepResult{
		StepID:    step.StepID,
		StepIndex: step.Index,
		Name:      step.Name,
		Limits:    step.Limits,
	}
	defer func() {
		res.Elapsed = time.Since(start).Milliseconds()
	}()

	// Шаг со ссылкой на невыполненный шаг падает сразу и явно,
	// молчаливый пропуск запрещен.
	runStep := *step
	if step.UseResult != "" {
		prior, ok := sess.lookupResult(step.UseResult)
		if !ok {
			res.Verdict = models.VerdictError
			res.ErrorText = fmt.Sprintf("%v: step '%s' requires result of step '%s' which has not run", apperrors.ErrDependency, step.StepID, step.UseResult)
			e.logger.Error("Dependency error", "sessionID", sess.info.SessionID, "stepID", step.StepID, "useResult", step.UseResult)
			return res, ""
		}
		params := make(map[string]string, len(step.Params)+1)
		for k, v := range step.Params {
			params[k] = v
		}
		params["use_result_value"] = prior
		runStep.Params = params
	}

	m, known := newMeasurement(step.Kind, e.deps)
	if !known {
		// Совместимость с PDTool4: неизвестный тип измерения всегда проходит.
		e.logger.Warn("Unknown measurement kind, using no-op", "sessionID", sess.info.SessionID, "stepID", step.StepID, "kind", step.Kind)
		res.Verdict = models.VerdictPass
		return res, ""
	}

	sess.touch(step.Instrument)

	raw, err := e.executeLifecycle(ctx, m, &runStep)
	if err != nil {
		res.Verdict = models.VerdictError
		res.ErrorText = err.Error()
		return res, ""
	}

	verdict := measure.Validate(raw, step.Limits)
	res.Value = verdict.Value
	if verdict.Passed {
		res.Verdict = models.VerdictPass
	} else {
		res.Verdict = models.VerdictFail
		res.ErrorText = verdict.Message
	}
	return res, raw
}

// executeLifecycle прогоняет prepare -> execute -> cleanup. Cleanup
// выполняется всегда; паника измерения конвертируется в ошибку и не
// роняет сессию.
func (e *Engine) executeLifecycle(ctx context.Context, m Measurement, step *models.TestPlanStep) (raw string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("measurement panic: %v", r)
		}
	}()

	defer func() {
		// Для cleanup используется отдельный контекст: он должен отработать
		// и после отмены шага оператором.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := m.Cleanup(cleanupCtx); cerr != nil {
			e.logger.Warn("Measurement cleanup failed", "stepID", step.StepID, "error", cerr)
		}
	}()

	if err := m.Prepare(ctx, step); err != nil {
		return "", err
	}
	return m.Execute(ctx, step)
}

// finalize закрывает сессию: сброс задействованных инструментов, локальный
// вердикт, консультация SFC, персистентность. Ошибки очистки логируются и
// никогда не меняют уже вычисленный вердикт.
func (e *Engine) finalize(sess *runtimeSession) {
	sessionID := sess.info.SessionID

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, id := range sess.touchedInstruments() {
		if err := e.instruments.Reset(cleanupCtx, id); err != nil {
			e.logger.Warn("Instrument cleanup failed", "sessionID", sessionID, "instrumentID", id, "error", err)
		}
	}

	state := e.localVerdict(sess)
	state = e.consultSFC(sess, state)

	sess.setState(state)
	if err := e.repo.FinishSession(sessionID, string(state)); err != nil {
		e.logger.Warn("Failed to persist terminal session state", "sessionID", sessionID, "error", err)
	}

	e.mu.Lock()
	delete(e.bySerial, sess.info.SerialNumber)
	e.mu.Unlock()

	e.logger.Info("Session finished", "sessionID", sessionID, "state", state)
}

// localVerdict: PASSED тогда и только тогда, когда каждый непропущенный шаг
// прошел. Любой FAIL дает FAILED, любой ERROR (включая аборт) дает ERROR.
func (e *Engine) localVerdict(sess *runtimeSession) models.SessionState {
	if sess.isAborted() {
		return models.SessionError
	}

	state := models.SessionPassed
	for _, res := range sess.snapshotResults() {
		switch res.Verdict {
		case models.VerdictError:
			return models.SessionError
		case models.VerdictFail:
			state = models.SessionFailed
		}
	}
	return state
}

// consultSFC запрашивает финальный вердикт у shop-floor-control. Любая
// транспортная ошибка деградирует к локальному вердикту, не блокируя сессию.
func (e *Engine) consultSFC(sess *runtimeSession, local models.SessionState) models.SessionState {
	if e.sfc == nil {
		return local
	}

	info := sess.snapshot()
	var elapsed int64
	if info.FinishedAt != nil {
		elapsed = info.FinishedAt.Sub(info.StartedAt).Milliseconds()
	} else {
		elapsed = time.Since(info.StartedAt).Milliseconds()
	}

	failureText := ""
	for _, res := range sess.snapshotResults() {
		if res.Verdict == models.VerdictFail || res.Verdict == models.VerdictError {
			failureText = fmt.Sprintf("step %s: %s", res.StepID, res.ErrorText)
			break
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	final, err := e.sfc.FinalVerdict(ctx, models.SFCReport{
		SerialNumber: info.SerialNumber,
		StationID:    info.StationID,
		Passed:       local == models.SessionPassed,
		ElapsedMs:    elapsed,
		FailureText:  failureText,
	})
	if err != nil {
		e.logger.Warn("SFC unavailable, keeping local verdict", "sessionID", info.SessionID, "error", err)
		return local
	}
	return final
}

// persistResult сохраняет результат шага в БД и публикует его в Kafka.
// Оба приемника - внешние sink-и: их отказы не прерывают сессию.
func (e *Engine) persistResult(sessionID string, res *models.StepResult) {
	if err := e.repo.SaveResult(&entities.MeasurementResult{
		SessionID: sessionID,
		StepID:    res.StepID,
		StepIndex: res.StepIndex,
		Name:      res.Name,
		Verdict:   string(res.Verdict),
		Value:     res.Value,
		LimitType: string(res.Limits.LimitType),
		Lower:     res.Limits.LowerLimit,
		Upper:     res.Limits.UpperLimit,
		Equality:  res.Limits.EqualityLimit,
		ErrorText: res.ErrorText,
		ElapsedMs: res.Elapsed,
	}); err != nil {
		e.logger.Warn("Failed to persist step result", "sessionID", sessionID, "stepID", res.StepID, "error", err)
	}

	if e.producer == nil {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		e.logger.Error("Failed to marshal step result", "stepID", res.StepID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.producer.Produce(ctx, []byte(sessionID), payload); err != nil {
		e.logger.Warn("Failed to publish step result", "sessionID", sessionID, "stepID", res.StepID, "error", err)
	}
}

// --- Запросы состояния ---

func (e *Engine) lookup(sessionID string) (*runtimeSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, ok := e.sessions[sessionID]
	return sess, ok
}

func (e *Engine) GetSession(sessionID string) (*models.SessionInfo, error) {
	if sess, ok := e.lookup(sessionID); ok {
		return sess.snapshot(), nil
	}

	// Сессия может пережить рестарт процесса только в БД.
	stored, err := e.repo.GetSessionByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", apperrors.ErrSessionNotFound, sessionID)
	}
	return sessionInfoFromEntity(stored), nil
}

func (e *Engine) GetAllSessions() []*models.SessionInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.SessionInfo, 0, len(e.sessions))
	for _, sess := range e.sessions {
		out = append(out, sess.snapshot())
	}
	return out
}

func (e *Engine) GetResults(sessionID string) ([]*models.StepResult, error) {
	if sess, ok := e.lookup(sessionID); ok {
		return sess.snapshotResults(), nil
	}

	stored, err := e.repo.GetResultsBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", apperrors.ErrSessionNotFound, sessionID)
	}
	out := make([]*models.StepResult, 0, len(stored))
	for i := range stored {
		out = append(out, stepResultFromEntity(&stored[i]))
	}
	return out, nil
}

// AbortSession прерывает выполняющийся шаг сессии (отменой его контекста
// ввода-вывода) и переводит прогон сразу к очистке инструментов.
func (e *Engine) AbortSession(sessionID string) error {
	sess, ok := e.lookup(sessionID)
	if !ok {
		return fmt.Errorf("%w: '%s'", apperrors.ErrSessionNotFound, sessionID)
	}
	if sess.state().Terminal() {
		return fmt.Errorf("session '%s' is already finished", sessionID)
	}

	e.logger.Warn("Session abort requested by operator", "sessionID", sessionID)
	sess.markAborted()
	return nil
}

func sessionInfoFromEntity(ent *entities.TestSession) *models.SessionInfo {
	return &models.SessionInfo{
		SessionID:    ent.SessionID,
		StationID:    ent.StationID,
		SerialNumber: ent.SerialNumber,
		State:        models.SessionState(ent.State),
		StartedAt:    ent.StartedAt,
		FinishedAt:   ent.FinishedAt,
	}
}

func stepResultFromEntity(ent *entities.MeasurementResult) *models.StepResult {
	return &models.StepResult{
		StepID:    ent.StepID,
		StepIndex: ent.StepIndex,
		Name:      ent.Name,
		Verdict:   models.Verdict(ent.Verdict),
		Value:     ent.Value,
		Limits: models.LimitSpec{
			LimitType:     models.LimitType(ent.LimitType),
			LowerLimit:    ent.Lower,
			UpperLimit:    ent.Upper,
			EqualityLimit: ent.Equality,
		},
		ErrorText: ent.ErrorText,
		Elapsed:   ent.ElapsedMs,
	}
}
