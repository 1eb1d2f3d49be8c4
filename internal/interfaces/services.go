package interfaces

import (
	"context"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
)

// Driver - единый контракт возможностей любого драйвера инструмента.
// Legacy-fallback реализует его же и не является особым случаем для движка.
type Driver interface {
	Initialize(ctx context.Context) error
	Write(ctx context.Context, command string) error
	Query(ctx context.Context, command string) (string, error)
	Reset(ctx context.Context) error
	Close() error
}

// InstrumentService определяет контракт слоя связи с инструментами.
type InstrumentService interface {
	// GetDriver возвращает драйвер поверх пула соединений. Первое обращение
	// к инструменту открывает соединение и выполняет инициализацию ровно один раз.
	GetDriver(ctx context.Context, instrumentID string) (Driver, error)
	// Reset сбрасывает соединение; следующий GetDriver откроет его заново.
	Reset(ctx context.Context, instrumentID string) error
	Status(instrumentID string) (*models.InstrumentStatus, error)
	// RunLegacy вызывает внешнюю legacy-команду для типа измерения без
	// нативного драйвера. stdout - результат, ненулевой код выхода - ошибка.
	RunLegacy(ctx context.Context, kind models.MeasurementKind, stepID, paramString string) (string, error)
	// DrainAll закрывает все соединения пула (остановка процесса).
	DrainAll(ctx context.Context)
}

// TestEngine определяет контракт движка исполнения тест-планов.
type TestEngine interface {
	StartSession(req models.StartSessionRequest) (*models.SessionInfo, error)
	GetSession(sessionID string) (*models.SessionInfo, error)
	GetAllSessions() []*models.SessionInfo
	GetResults(sessionID string) ([]*models.StepResult, error)
	AbortSession(sessionID string) error
}

// SFCClient - контракт внешней системы shop-floor-control. При транспортной
// ошибке движок использует локально вычисленный вердикт.
type SFCClient interface {
	FinalVerdict(ctx context.Context, report models.SFCReport) (models.SessionState, error)
}
