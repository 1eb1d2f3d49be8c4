package instrument

import (
	"context"
	"fmt"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
)

// Service реализует interfaces.InstrumentService: пул соединений плюс
// legacy-fallback за одним фасадом.
type Service struct {
	pool        *ConnectionPool
	legacy      *LegacyRunner
	configStore interfaces.InstrumentConfigStore
	logger      *logging.Logger
}

var _ interfaces.InstrumentService = (*Service)(nil)

func NewService(pool *ConnectionPool, configStore interfaces.InstrumentConfigStore, legacyTimeout time.Duration, logger *logging.Logger) *Service {
	return &Service{
		pool:        pool,
		legacy:      NewLegacyRunner(legacyTimeout, logger),
		configStore: configStore,
		logger:      logger.WithPrefix("INSTRUMENT"),
	}
}

func (s *Service) GetDriver(ctx context.Context, instrumentID string) (interfaces.Driver, error) {
	return s.pool.GetDriver(ctx, instrumentID)
}

func (s *Service) Reset(ctx context.Context, instrumentID string) error {
	return s.pool.Reset(ctx, instrumentID)
}

func (s *Service) Status(instrumentID string) (*models.InstrumentStatus, error) {
	return s.pool.Status(instrumentID)
}

// RunLegacy находит в реестре legacy-команду для типа измерения и запускает ее.
func (s *Service) RunLegacy(ctx context.Context, kind models.MeasurementKind, stepID, paramString string) (string, error) {
	command, err := s.configStore.GetLegacyCommand(kind)
	if err != nil {
		return "", fmt.Errorf("%w: no legacy command for kind '%s'", apperrors.ErrInstrumentNotFound, kind)
	}
	return s.legacy.Run(ctx, command, stepID, paramString)
}

func (s *Service) DrainAll(ctx context.Context) {
	s.pool.DrainAll(ctx)
}
