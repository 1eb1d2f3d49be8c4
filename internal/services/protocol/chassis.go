package protocol

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
)

// Direction - направление вращения станины.
type Direction byte

const (
	RotateRight Direction = 0x00 // По часовой стрелке
	RotateLeft  Direction = 0x01 // Против часовой стрелки
)

const (
	// DefaultAngleDeg - угол поворота, если шаг не задал свой.
	DefaultAngleDeg = 90
	// AngleDegPerMs переводит запрошенную длительность вращения в угол.
	AngleDegPerMs = 0.09
	// DefaultChassisBaud - фиксированная скорость порта контроллера станины.
	DefaultChassisBaud = 115200

	defaultResponseTimeout = 5 * time.Second
	portPollInterval       = 50 * time.Millisecond
)

// RotatorConfig описывает подключение к контроллеру поворотной станины.
type RotatorConfig struct {
	Device          string
	Baud            int
	ResponseTimeout time.Duration
}

// Rotator управляет поворотной станиной по бинарному кадровому протоколу.
// Порт захватывается на время одной операции и гарантированно закрывается.
type Rotator struct {
	cfg  RotatorConfig
	open PortOpener
	log  *logrus.Logger
}

func NewRotator(cfg RotatorConfig, open PortOpener, logger *logrus.Logger) *Rotator {
	if cfg.Baud == 0 {
		cfg.Baud = DefaultChassisBaud
	}
	if cfg.ResponseTimeout == 0 {
		cfg.ResponseTimeout = defaultResponseTimeout
	}
	if open == nil {
		open = OpenSerialPort
	}
	return &Rotator{cfg: cfg, open: open, log: logger}
}

// AngleForDuration возвращает угол поворота для запрошенной длительности
// вращения, с округлением вниз до целого градуса.
func AngleForDuration(d time.Duration) uint16 {
	deg := float64(d.Milliseconds()) * AngleDegPerMs
	if deg < 1 {
		return 1
	}
	if deg > 360 {
		return 360
	}
	return uint16(deg)
}

// Rotate поворачивает станину на angleDeg градусов в заданном направлении и
// блокируется (с таймаутом) до ответного кадра статуса. Успех только при
// статусе SUCCESS(0). Ошибка CRC - транспортная, отличная от отказа поворота;
// решение о повторе остается за вызывающим.
func (r *Rotator) Rotate(ctx context.Context, dir Direction, angleDeg uint16) error {
	port, err := r.open(r.cfg.Device, r.cfg.Baud)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", apperrors.ErrInstrumentConnection, r.cfg.Device, err)
	}
	defer port.Close()

	payload := make([]byte, 3)
	payload[0] = byte(dir)
	binary.BigEndian.PutUint16(payload[1:3], angleDeg)

	frame := EncodeFrame(MsgRotate, payload)
	r.log.WithFields(logrus.Fields{"dir": dir, "angle": angleDeg}).Debug("chassis: sending rotate frame")

	if _, err := port.Write(frame); err != nil {
		return fmt.Errorf("%w: write rotate frame: %v", apperrors.ErrInstrumentConnection, err)
	}

	resp, err := r.awaitStatus(ctx, port)
	if err != nil {
		return err
	}

	if len(resp.Payload) < 1 {
		return fmt.Errorf("%w: empty status payload", apperrors.ErrUnexpectedResponse)
	}
	if status := resp.Payload[0]; status != StatusSuccess {
		return fmt.Errorf("chassis rotation failed: status=%d", status)
	}

	r.log.Debug("chassis: rotation acknowledged")
	return nil
}

// RotateFor поворачивает станину на угол, выведенный из длительности вращения.
func (r *Rotator) RotateFor(ctx context.Context, dir Direction, d time.Duration) error {
	return r.Rotate(ctx, dir, AngleForDuration(d))
}

// awaitStatus ждет кадр статуса известного типа, не дольше таймаута ответа.
func (r *Rotator) awaitStatus(ctx context.Context, port Port) (*Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ResponseTimeout)
	defer cancel()

	// Короткий таймаут чтения превращает блокирующий порт в опрашиваемый,
	// чтобы отмена контекста прерывала незавершенный ввод.
	_ = port.SetReadTimeout(portPollInterval)

	frame, err := DecodeFrame(&ctxReader{ctx: ctx, port: port})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: no status frame: %v", apperrors.ErrInstrumentTimeout, err)
		}
		return nil, err
	}
	if frame.MsgType != MsgStatus {
		return nil, fmt.Errorf("%w: got msg_type=0x%04x, want 0x%04x", apperrors.ErrUnexpectedResponse, frame.MsgType, MsgStatus)
	}
	return frame, nil
}

// ctxReader повторяет короткие чтения порта, пока не получит данные или
// пока не будет отменен контекст. Пустое чтение при живом контексте -
// это истекший таймаут порта, а не конец потока.
type ctxReader struct {
	ctx  context.Context
	port Port
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	for {
		if err := cr.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := cr.port.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}
