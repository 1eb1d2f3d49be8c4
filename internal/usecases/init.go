package usecases

import "github.com/sprigga/WebPDTool-sub005/internal/interfaces"

// UseCases - агрегатор всех use case интерфейсов
type UseCases struct {
	interfaces.Usecases
}

// NewUsecases - конструктор для UseCases
func NewUsecases(
	engine interfaces.TestEngine,
	instruments interfaces.InstrumentService,
) interfaces.Usecases {
	return NewUsecase(engine, instruments)
}
