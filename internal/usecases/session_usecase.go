package usecases

import (
	"context"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
)

type Usecase struct {
	engine      interfaces.TestEngine
	instruments interfaces.InstrumentService
}

func NewUsecase(engine interfaces.TestEngine, instruments interfaces.InstrumentService) interfaces.Usecases {
	return &Usecase{
		engine:      engine,
		instruments: instruments,
	}
}

func (u *Usecase) StartSession(req models.StartSessionRequest) (*models.SessionInfo, error) {
	return u.engine.StartSession(req)
}

func (u *Usecase) GetSession(sessionID string) (*models.SessionInfo, error) {
	return u.engine.GetSession(sessionID)
}

func (u *Usecase) GetAllSessions() []*models.SessionInfo {
	return u.engine.GetAllSessions()
}

func (u *Usecase) GetResults(sessionID string) ([]*models.StepResult, error) {
	return u.engine.GetResults(sessionID)
}

func (u *Usecase) AbortSession(sessionID string) error {
	return u.engine.AbortSession(sessionID)
}

func (u *Usecase) ResetInstrument(ctx context.Context, instrumentID string) error {
	return u.instruments.Reset(ctx, instrumentID)
}

func (u *Usecase) GetInstrumentStatus(instrumentID string) (*models.InstrumentStatus, error) {
	return u.instruments.Status(instrumentID)
}
