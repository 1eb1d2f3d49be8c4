package protocol

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Port - минимальный контракт последовательного порта, который нужен
// протокольному слою. Реализуется go.bug.st/serial и фейками в тестах.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// PortOpener открывает порт по имени устройства и скорости.
// Подменяется в тестах, чтобы не требовать физического порта.
type PortOpener func(device string, baud int) (Port, error)

// OpenSerialPort - боевой PortOpener поверх go.bug.st/serial.
func OpenSerialPort(device string, baud int) (Port, error) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// NewLogger создает и возвращает логгер протокольного слоя.
// Уровень "off"/"none" полностью отключает вывод.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()

	if level == "off" || level == "none" {
		logger.SetOutput(io.Discard)
		return logger
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	logger.SetOutput(os.Stdout)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		ForceColors:     true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger
}
