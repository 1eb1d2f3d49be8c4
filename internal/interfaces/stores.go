package interfaces

import (
	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
)

// PlanStore - внешнее read-only хранилище тест-планов.
// Возвращаемые шаги упорядочены по Index и неизменяемы в течение сессии.
type PlanStore interface {
	GetPlan(stationID string) ([]models.TestPlanStep, error)
	GetPlanOptions(stationID string) (models.PlanOptions, error)
}

// InstrumentConfigStore - реестр инструментов станции и legacy-команд.
type InstrumentConfigStore interface {
	GetDescriptor(instrumentID string) (*models.TransportDescriptor, error)
	GetLegacyCommand(kind models.MeasurementKind) (*models.LegacyCommand, error)
	ListInstruments() []string
}
