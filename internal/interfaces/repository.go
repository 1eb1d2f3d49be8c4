package interfaces

import (
	"github.com/sprigga/WebPDTool-sub005/internal/domain/entities"
)

// SessionRepository определяет контракт для работы с сохраненными сессиями в БД.
type SessionRepository interface {
	CreateSession(session *entities.TestSession) error
	UpdateSessionState(sessionID, state string) error
	FinishSession(sessionID, state string) error
	GetSessionByID(sessionID string) (*entities.TestSession, error)
	GetAllSessions() ([]entities.TestSession, error)
	SaveResult(result *entities.MeasurementResult) error
	GetResultsBySession(sessionID string) ([]entities.MeasurementResult, error)
}
