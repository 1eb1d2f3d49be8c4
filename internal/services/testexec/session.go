package testexec

import (
	"context"
	"sync"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
)

// runtimeSession - состояние одной выполняющейся сессии. Реестр результатов
// принадлежит только сессии: append-only пока она RUNNING, заморожен после
// достижения терминального состояния.
type runtimeSession struct {
	mu sync.RWMutex

	info           models.SessionInfo
	continueOnFail bool
	steps          []models.TestPlanStep
	results        []*models.StepResult
	registry       map[string]string   // step id -> сырое измеренное значение
	touched        map[string]struct{} // инструменты, задействованные сессией

	cancel  context.CancelFunc
	aborted bool
}

func newRuntimeSession(info models.SessionInfo, steps []models.TestPlanStep, continueOnFail bool, cancel context.CancelFunc) *runtimeSession {
	return &runtimeSession{
		info:           info,
		continueOnFail: continueOnFail,
		steps:          steps,
		registry:       make(map[string]string),
		touched:        make(map[string]struct{}),
		cancel:         cancel,
	}
}

func (s *runtimeSession) snapshot() *models.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := s.info
	return &info
}

func (s *runtimeSession) snapshotResults() []*models.StepResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.StepResult, len(s.results))
	copy(out, s.results)
	return out
}

func (s *runtimeSession) setState(state models.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.State = state
	if state.Terminal() {
		now := time.Now()
		s.info.FinishedAt = &now
	}
}

func (s *runtimeSession) state() models.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.State
}

// appendResult записывает результат шага и его сырое значение в реестр.
// SKIP-шаги значения в реестр не вносят: на них нельзя ссылаться через
// use_result.
func (s *runtimeSession) appendResult(res *models.StepResult, rawValue string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
	s.info.StepsDone = len(s.results)
	if res.Verdict != models.VerdictSkip {
		s.registry[res.StepID] = rawValue
	}
}

func (s *runtimeSession) lookupResult(stepID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.registry[stepID]
	return v, ok
}

func (s *runtimeSession) touch(instrumentID string) {
	if instrumentID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[instrumentID] = struct{}{}
}

func (s *runtimeSession) touchedInstruments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.touched))
	for id := range s.touched {
		ids = append(ids, id)
	}
	return ids
}

func (s *runtimeSession) markAborted() {
	s.mu.Lock()
	s.aborted = true
	s.mu.Unlock()
	s.cancel()
}

func (s *runtimeSession) isAborted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aborted
}
