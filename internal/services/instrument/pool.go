package instrument

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
)

// pooledInstrument - одна ячейка пула. Мьютекс ячейки сериализует первое
// открытие: два конкурентных GetDriver по одному id дают одно физическое
// соединение. На инструмент одновременно живет не больше одного соединения.
type pooledInstrument struct {
	mu          sync.Mutex
	desc        *models.TransportDescriptor
	transport   Transport
	driver      interfaces.Driver
	initialized bool
	lastUsed    time.Time
	useCount    int64
}

// ConnectionPool - общепроцессный пул соединений с инструментами.
// Создается на старте процесса, внедряется в движок и инструментальный
// сервис, осушается при остановке. Не синглтон.
type ConnectionPool struct {
	mu          sync.Mutex
	pool        map[string]*pooledInstrument
	configStore interfaces.InstrumentConfigStore
	open        TransportOpener
	logger      *logging.Logger
}

func NewConnectionPool(configStore interfaces.InstrumentConfigStore, open TransportOpener, logger *logging.Logger) *ConnectionPool {
	if open == nil {
		open = OpenTransport
	}
	return &ConnectionPool{
		pool:        make(map[string]*pooledInstrument),
		configStore: configStore,
		open:        open,
		logger:      logger.WithPrefix("POOL"),
	}
}

// entry возвращает ячейку пула, создавая ее при первом обращении.
// Глобальный мьютекс держится только на время работы с map.
func (cp *ConnectionPool) entry(instrumentID string) (*pooledInstrument, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if ent, ok := cp.pool[instrumentID]; ok {
		return ent, nil
	}

	desc, err := cp.configStore.GetDescriptor(instrumentID)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", apperrors.ErrInstrumentNotFound, instrumentID)
	}

	ent := &pooledInstrument{desc: desc}
	cp.pool[instrumentID] = ent
	return ent, nil
}

// GetDriver возвращает драйвер инструмента поверх пула. Соединение
// открывается лениво; одноразовая инициализация драйвера выполняется ровно
// один раз на время жизни соединения и отслеживается флагом initialized.
func (cp *ConnectionPool) GetDriver(ctx context.Context, instrumentID string) (interfaces.Driver, error) {
	ent, err := cp.entry(instrumentID)
	if err != nil {
		return nil, err
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.transport == nil {
		cp.logger.Info("Opening connection", "instrumentID", instrumentID, "transport", ent.desc.Type, "address", ent.desc.Address)
		tr, err := cp.open(ctx, ent.desc)
		if err != nil {
			return nil, err
		}
		ent.transport = tr
		ent.driver = buildDriver(instrumentID, tr, ent.desc, cp.logger)
		ent.initialized = false
	}

	if !ent.initialized {
		if err := ent.driver.Initialize(ctx); err != nil {
			// Недоинициализированное соединение не оставляем в пуле.
			_ = ent.transport.Close()
			ent.transport = nil
			ent.driver = nil
			return nil, fmt.Errorf("%w: initialize '%s': %v", apperrors.ErrInstrumentConnection, instrumentID, err)
		}
		ent.initialized = true
		cp.logger.Info("Driver initialized", "instrumentID", instrumentID, "driverType", ent.desc.DriverType)
	}

	ent.lastUsed = time.Now()
	ent.useCount++
	return ent.driver, nil
}

// Reset сбрасывает соединение инструмента: следующий GetDriver откроет его
// заново и повторит инициализацию.
func (cp *ConnectionPool) Reset(ctx context.Context, instrumentID string) error {
	ent, err := cp.entry(instrumentID)
	if err != nil {
		return err
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.transport == nil {
		return nil
	}

	if ent.driver != nil {
		if err := ent.driver.Reset(ctx); err != nil {
			cp.logger.Warn("Driver reset command failed", "instrumentID", instrumentID, "error", err)
		}
	}
	if err := ent.transport.Close(); err != nil {
		cp.logger.Warn("Connection close failed", "instrumentID", instrumentID, "error", err)
	}
	ent.transport = nil
	ent.driver = nil
	ent.initialized = false

	cp.logger.Info("Connection reset", "instrumentID", instrumentID)
	return nil
}

// Status возвращает состояние ячейки пула для get_instrument_status.
func (cp *ConnectionPool) Status(instrumentID string) (*models.InstrumentStatus, error) {
	desc, err := cp.configStore.GetDescriptor(instrumentID)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", apperrors.ErrInstrumentNotFound, instrumentID)
	}

	status := &models.InstrumentStatus{
		InstrumentID: instrumentID,
		Transport:    desc.Type,
		DriverType:   desc.DriverType,
	}

	cp.mu.Lock()
	ent, ok := cp.pool[instrumentID]
	cp.mu.Unlock()
	if !ok {
		return status, nil
	}

	ent.mu.Lock()
	status.Connected = ent.transport != nil
	status.Initialized = ent.initialized
	status.LastUsed = ent.lastUsed
	status.UseCount = ent.useCount
	ent.mu.Unlock()

	return status, nil
}

// DrainAll закрывает все соединения пула. Ошибки закрытия только логируются.
func (cp *ConnectionPool) DrainAll(ctx context.Context) {
	cp.mu.Lock()
	ids := make([]string, 0, len(cp.pool))
	for id := range cp.pool {
		ids = append(ids, id)
	}
	cp.mu.Unlock()

	for _, id := range ids {
		if err := cp.Reset(ctx, id); err != nil {
			cp.logger.Warn("Drain failed", "instrumentID", id, "error", err)
		}
	}
	cp.logger.Info("Pool drained", "instruments", len(ids))
}
