package protocol

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
)

const (
	// RelayOn / RelayOff - состояния канала в текстовом протоколе платы реле.
	RelayOn  = 'o'
	RelayOff = 'f'

	// DefaultRelayBaud - фиксированная скорость платы реле.
	DefaultRelayBaud = 9600

	// defaultSettleDelay - пауза после открытия порта перед первой командой:
	// микроконтроллер платы перезагружается при поднятии DTR.
	defaultSettleDelay = 2 * time.Second
)

// RelayConfig описывает подключение к плате реле.
type RelayConfig struct {
	Device      string
	Baud        int
	SettleDelay time.Duration
}

// RelayController управляет каналами реле по текстовому протоколу
// "<канал> <состояние> ". Ответного кадра нет: успех - отсутствие
// транспортной ошибки. Порт захватывается на время одной команды.
type RelayController struct {
	cfg  RelayConfig
	open PortOpener
	log  *logrus.Logger
}

func NewRelayController(cfg RelayConfig, open PortOpener, logger *logrus.Logger) *RelayController {
	if cfg.Baud == 0 {
		cfg.Baud = DefaultRelayBaud
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if open == nil {
		open = OpenSerialPort
	}
	return &RelayController{cfg: cfg, open: open, log: logger}
}

// SetChannel включает (on=true) или выключает канал реле.
func (rc *RelayController) SetChannel(ctx context.Context, channel int, on bool) error {
	state := byte(RelayOff)
	if on {
		state = RelayOn
	}

	port, err := rc.open(rc.cfg.Device, rc.cfg.Baud)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", apperrors.ErrInstrumentConnection, rc.cfg.Device, err)
	}
	defer port.Close()

	if err := rc.settle(ctx); err != nil {
		return err
	}

	command := fmt.Sprintf("%d %c ", channel, state)
	rc.log.WithFields(logrus.Fields{"channel": channel, "state": string(state)}).Debug("relay: sending command")

	if _, err := port.Write([]byte(command)); err != nil {
		return fmt.Errorf("%w: write relay command: %v", apperrors.ErrInstrumentConnection, err)
	}
	return nil
}

// settle ждет загрузки микроконтроллера, оставаясь отменяемым.
func (rc *RelayController) settle(ctx context.Context) error {
	timer := time.NewTimer(rc.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
