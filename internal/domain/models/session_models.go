package models

import "time"

// SessionState - агрегатное состояние тестовой сессии.
type SessionState string

const (
	SessionPending SessionState = "PENDING"
	SessionRunning SessionState = "RUNNING"
	SessionPassed  SessionState = "PASSED"
	SessionFailed  SessionState = "FAILED"
	SessionError   SessionState = "ERROR"
)

// Terminal сообщает, достигла ли сессия конечного состояния.
func (s SessionState) Terminal() bool {
	return s == SessionPassed || s == SessionFailed || s == SessionError
}

// Verdict - результат одного шага.
type Verdict string

const (
	VerdictPass  Verdict = "PASS"
	VerdictFail  Verdict = "FAIL"
	VerdictError Verdict = "ERROR"
	VerdictSkip  Verdict = "SKIP"
)

// StepResult - результат выполнения одного шага. Создается один раз,
// после этого не изменяется.
type StepResult struct {
	StepID    string    `json:"step_id"`
	StepIndex int       `json:"step_index"`
	Name      string    `json:"name"`
	Verdict   Verdict   `json:"verdict"`
	Value     string    `json:"value"`
	Limits    LimitSpec `json:"limits"`
	ErrorText string    `json:"error_text,omitempty"`
	Elapsed   int64     `json:"elapsed_ms"`
}

// SessionInfo представляет активную или завершенную сессию в пуле движка.
type SessionInfo struct {
	SessionID    string       `json:"session_id"`
	StationID    string       `json:"station_id"`
	SerialNumber string       `json:"serial_number"`
	State        SessionState `json:"state"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	StepsTotal   int          `json:"steps_total"`
	StepsDone    int          `json:"steps_done"`
}

// SFCReport - данные, передаваемые в shop-floor-control для финального вердикта.
type SFCReport struct {
	SerialNumber string `json:"serial_number"`
	StationID    string `json:"station_id"`
	Passed       bool   `json:"passed"`
	ElapsedMs    int64  `json:"elapsed_ms"`
	FailureText  string `json:"failure_text,omitempty"`
}

// StartSessionRequest определяет структуру запроса на запуск сессии.
type StartSessionRequest struct {
	StationID      string `json:"station_id" binding:"required"`
	SerialNumber   string `json:"serial_number" binding:"required"`
	ContinueOnFail *bool  `json:"continue_on_fail,omitempty"` // nil - взять из плана
}

// SessionRequest определяет структуру для запросов, использующих SessionID.
type SessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// InstrumentRequest определяет структуру для запросов к инструменту.
type InstrumentRequest struct {
	InstrumentID string `json:"instrument_id" binding:"required"`
}
