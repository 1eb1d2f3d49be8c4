package interfaces

import (
	"context"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
)

// Usecases - это агрегирующий интерфейс для всех use cases
type Usecases interface {
	StartSession(req models.StartSessionRequest) (*models.SessionInfo, error)
	GetSession(sessionID string) (*models.SessionInfo, error)
	GetAllSessions() []*models.SessionInfo
	GetResults(sessionID string) ([]*models.StepResult, error)
	AbortSession(sessionID string) error
	ResetInstrument(ctx context.Context, instrumentID string) error
	GetInstrumentStatus(instrumentID string) (*models.InstrumentStatus, error)
}
