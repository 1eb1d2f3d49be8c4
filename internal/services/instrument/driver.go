package instrument

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
)

// DriverConstructor создает драйвер поверх открытого транспорта.
type DriverConstructor func(id string, tr Transport, desc *models.TransportDescriptor, logger *logging.Logger) interfaces.Driver

// driverRegistry - реестр типов драйверов. Неизвестный тип получает
// универсальный SCPI-драйвер, а не ошибку: так ведет себя PDTool4.
var driverRegistry = map[string]DriverConstructor{
	"scpi":         newSCPIDriver,
	"power_supply": newSCPIDriver,
	"dmm":          newSCPIDriver,
	"raw":          newRawDriver,
}

func buildDriver(id string, tr Transport, desc *models.TransportDescriptor, logger *logging.Logger) interfaces.Driver {
	if ctor, ok := driverRegistry[desc.DriverType]; ok {
		return ctor(id, tr, desc, logger)
	}
	logger.Warn("Unknown driver type, falling back to generic SCPI", "instrumentID", id, "driverType", desc.DriverType)
	return newSCPIDriver(id, tr, desc, logger)
}

// scpiDriver - универсальный драйвер SCPI-совместимого прибора.
// Мьютекс держится на время полного обмена запрос-ответ: обмены разных
// вызывающих никогда не перемежаются на одном соединении.
type scpiDriver struct {
	id   string
	tr   Transport
	init []string
	mu   sync.Mutex
	log  *logging.Logger
}

func newSCPIDriver(id string, tr Transport, desc *models.TransportDescriptor, logger *logging.Logger) interfaces.Driver {
	return &scpiDriver{
		id:   id,
		tr:   tr,
		init: desc.InitCommands,
		log:  logger.WithPrefix("DRV:" + id),
	}
}

func (d *scpiDriver) Initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	commands := d.init
	if len(commands) == 0 {
		commands = []string{"*CLS"}
	}
	for _, cmd := range commands {
		d.log.Debug("Init command", "command", cmd)
		if err := d.tr.Send(ctx, cmd); err != nil {
			return fmt.Errorf("init command '%s': %w", cmd, err)
		}
	}
	return nil
}

func (d *scpiDriver) Write(ctx context.Context, command string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tr.Send(ctx, command)
}

func (d *scpiDriver) Query(ctx context.Context, command string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tr.SendRecv(ctx, command)
}

func (d *scpiDriver) Reset(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tr.Send(ctx, "*RST")
}

func (d *scpiDriver) Close() error {
	return d.tr.Close()
}

// rawDriver шлет команды как есть, без SCPI-инициализации и сброса.
type rawDriver struct {
	id string
	tr Transport
	mu sync.Mutex
}

func newRawDriver(id string, tr Transport, desc *models.TransportDescriptor, logger *logging.Logger) interfaces.Driver {
	return &rawDriver{id: id, tr: tr}
}

func (d *rawDriver) Initialize(ctx context.Context) error { return nil }

func (d *rawDriver) Write(ctx context.Context, command string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tr.Send(ctx, command)
}

func (d *rawDriver) Query(ctx context.Context, command string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tr.SendRecv(ctx, command)
}

func (d *rawDriver) Reset(ctx context.Context) error { return nil }

func (d *rawDriver) Close() error { return d.tr.Close() }

// PowerSupply - типизированная обертка: переводит доменные операции
// источника питания в write/query примитивы драйвера.
type PowerSupply struct {
	d interfaces.Driver
}

func NewPowerSupply(d interfaces.Driver) *PowerSupply {
	return &PowerSupply{d: d}
}

func (p *PowerSupply) MeasureVoltage(ctx context.Context, channel int) (string, error) {
	return p.d.Query(ctx, fmt.Sprintf("MEAS:VOLT? (@%d)", channel))
}

func (p *PowerSupply) MeasureCurrent(ctx context.Context, channel int) (string, error) {
	return p.d.Query(ctx, fmt.Sprintf("MEAS:CURR? (@%d)", channel))
}

func (p *PowerSupply) SetOutput(ctx context.Context, volts, amps float64) error {
	if err := p.d.Write(ctx, fmt.Sprintf("APPL %g,%g", volts, amps)); err != nil {
		return err
	}
	return p.d.Write(ctx, "OUTP ON")
}

// DMM - типизированная обертка мультиметра.
type DMM struct {
	d interfaces.Driver
}

func NewDMM(d interfaces.Driver) *DMM {
	return &DMM{d: d}
}

func (m *DMM) MeasureVoltage(ctx context.Context) (string, error) {
	resp, err := m.d.Query(ctx, "MEAS:VOLT:DC?")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}
