package entities

import "time"

const (
	StatePending = "PENDING"
	StateRunning = "RUNNING"
	StatePassed  = "PASSED"
	StateFailed  = "FAILED"
	StateError   = "ERROR"
)

// TestSession - одна сессия прогона тест-плана для одного серийного номера.
type TestSession struct {
	SessionID      string     `gorm:"primaryKey;not null" json:"session_id"`
	StationID      string     `gorm:"not null;index" json:"station_id"`
	SerialNumber   string     `gorm:"not null;index" json:"serial_number"`
	State          string     `gorm:"not null" json:"state"`
	ContinueOnFail bool       `json:"continue_on_fail"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
}

// MeasurementResult - сохраненный результат одного шага сессии.
type MeasurementResult struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"not null;index" json:"session_id"`
	StepID    string    `gorm:"not null" json:"step_id"`
	StepIndex int       `json:"step_index"`
	Name      string    `json:"name"`
	Verdict   string    `gorm:"not null" json:"verdict"` // PASS / FAIL / ERROR / SKIP
	Value     string    `json:"value"`
	LimitType string    `json:"limit_type"`
	Lower     string    `json:"lower_limit"`
	Upper     string    `json:"upper_limit"`
	Equality  string    `json:"equality_limit"`
	ErrorText string    `json:"error_text"`
	ElapsedMs int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
}
