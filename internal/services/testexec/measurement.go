package testexec

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	"github.com/sprigga/WebPDTool-sub005/internal/services/instrument"
	"github.com/sprigga/WebPDTool-sub005/internal/services/protocol"
)

// Measurement - жизненный цикл одного шага: prepare -> execute -> cleanup.
// Cleanup вызывается движком всегда, даже если execute завершился ошибкой.
type Measurement interface {
	Prepare(ctx context.Context, step *models.TestPlanStep) error
	Execute(ctx context.Context, step *models.TestPlanStep) (string, error)
	Cleanup(ctx context.Context) error
}

// MeasurementDeps - зависимости, которые движок передает измерениям.
type MeasurementDeps struct {
	Instruments interfaces.InstrumentService
	Relay       *protocol.RelayController
	Rotator     *protocol.Rotator
	Logger      *logging.Logger
}

type measurementCtor func(deps *MeasurementDeps) Measurement

// measurementRegistry - закрытый реестр типов измерений. Динамической
// диспетчеризации по строке-имени класса, как в PDTool4, здесь нет:
// состав типов фиксирован на этапе компиляции.
var measurementRegistry = map[models.MeasurementKind]measurementCtor{
	models.KindPowerRead:       func(d *MeasurementDeps) Measurement { return &powerReadMeasurement{deps: d} },
	models.KindCommandTest:     func(d *MeasurementDeps) Measurement { return &commandTestMeasurement{deps: d} },
	models.KindRelay:           func(d *MeasurementDeps) Measurement { return &relayMeasurement{deps: d} },
	models.KindChassisRotation: func(d *MeasurementDeps) Measurement { return &chassisRotationMeasurement{deps: d} },
	models.KindDelay:           func(d *MeasurementDeps) Measurement { return &delayMeasurement{} },
}

// newMeasurement возвращает измерение для типа шага. Неизвестный тип - это
// требование совместимости, а не авария: подставляется no-op, который
// всегда проходит.
func newMeasurement(kind models.MeasurementKind, deps *MeasurementDeps) (Measurement, bool) {
	if ctor, ok := measurementRegistry[kind]; ok {
		return ctor(deps), true
	}
	return &noopMeasurement{}, false
}

// paramString собирает параметры шага в строку legacy-контракта
// "k1=v1;k2=v2" с детерминированным порядком ключей.
func paramString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, ";")
}

func intParam(params map[string]string, key string, fallback int) int {
	if raw, ok := params[key]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}

// --- power_read ---

// powerReadMeasurement читает напряжение или ток с источника питания.
type powerReadMeasurement struct {
	deps *MeasurementDeps
	psu  *instrument.PowerSupply
}

func (m *powerReadMeasurement) Prepare(ctx context.Context, step *models.TestPlanStep) error {
	driver, err := m.deps.Instruments.GetDriver(ctx, step.Instrument)
	if err != nil {
		return err
	}
	m.psu = instrument.NewPowerSupply(driver)
	return nil
}

func (m *powerReadMeasurement) Execute(ctx context.Context, step *models.TestPlanStep) (string, error) {
	channel := intParam(step.Params, "channel", 1)
	if step.Params["quantity"] == "current" {
		return m.psu.MeasureCurrent(ctx, channel)
	}
	return m.psu.MeasureVoltage(ctx, channel)
}

func (m *powerReadMeasurement) Cleanup(ctx context.Context) error { return nil }

// --- command_test ---

// commandTestMeasurement отправляет команду инструменту и возвращает ответ.
// Шаг без инструмента уходит в legacy-fallback: внешняя команда с контрактом
// (step_id, parameter_string). Значение use_result подставляется через
// типизированный параметр, а не конкатенацией в готовую командную строку.
type commandTestMeasurement struct {
	deps   *MeasurementDeps
	driver interfaces.Driver
}

func (m *commandTestMeasurement) Prepare(ctx context.Context, step *models.TestPlanStep) error {
	if step.Instrument == "" {
		return nil // Нативного драйвера нет, работаем через legacy
	}
	driver, err := m.deps.Instruments.GetDriver(ctx, step.Instrument)
	if err != nil {
		return err
	}
	m.driver = driver
	return nil
}

func (m *commandTestMeasurement) Execute(ctx context.Context, step *models.TestPlanStep) (string, error) {
	if m.driver == nil {
		return m.deps.Instruments.RunLegacy(ctx, step.Kind, step.StepID, paramString(step.Params))
	}

	command := step.Params["command"]
	if command == "" {
		return "", fmt.Errorf("step '%s': required param 'command' is missing", step.StepID)
	}
	if prior, ok := step.Params["use_result_value"]; ok {
		command = command + " " + prior
	}

	if step.Params["expect_response"] == "false" {
		if err := m.driver.Write(ctx, command); err != nil {
			return "", err
		}
		return "OK", nil
	}
	return m.driver.Query(ctx, command)
}

func (m *commandTestMeasurement) Cleanup(ctx context.Context) error { return nil }

// --- relay ---

type relayMeasurement struct {
	deps *MeasurementDeps
}

func (m *relayMeasurement) Prepare(ctx context.Context, step *models.TestPlanStep) error {
	if m.deps.Relay == nil {
		return fmt.Errorf("relay controller is not configured")
	}
	return nil
}

func (m *relayMeasurement) Execute(ctx context.Context, step *models.TestPlanStep) (string, error) {
	channel := intParam(step.Params, "channel", 1)
	on := step.Params["state"] != "off"
	if err := m.deps.Relay.SetChannel(ctx, channel, on); err != nil {
		return "", err
	}
	return "OK", nil
}

func (m *relayMeasurement) Cleanup(ctx context.Context) error { return nil }

// --- chassis_rotation ---

type chassisRotationMeasurement struct {
	deps *MeasurementDeps
}

func (m *chassisRotationMeasurement) Prepare(ctx context.Context, step *models.TestPlanStep) error {
	if m.deps.Rotator == nil {
		return fmt.Errorf("chassis rotator is not configured")
	}
	return nil
}

func (m *chassisRotationMeasurement) Execute(ctx context.Context, step *models.TestPlanStep) (string, error) {
	dir := protocol.RotateRight
	if step.Params["direction"] == "ccw" {
		dir = protocol.RotateLeft
	}

	angle := uint16(intParam(step.Params, "angle", 0))
	if angle == 0 {
		if ms := intParam(step.Params, "duration_ms", 0); ms > 0 {
			angle = protocol.AngleForDuration(time.Duration(ms) * time.Millisecond)
		} else {
			angle = protocol.DefaultAngleDeg
		}
	}

	if err := m.deps.Rotator.Rotate(ctx, dir, angle); err != nil {
		return "", err
	}
	return "SUCCESS", nil
}

func (m *chassisRotationMeasurement) Cleanup(ctx context.Context) error { return nil }

// --- delay ---

type delayMeasurement struct{}

func (m *delayMeasurement) Prepare(ctx context.Context, step *models.TestPlanStep) error { return nil }

func (m *delayMeasurement) Execute(ctx context.Context, step *models.TestPlanStep) (string, error) {
	ms := intParam(step.Params, "delay_ms", 1000)
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return strconv.Itoa(ms), nil
	}
}

func (m *delayMeasurement) Cleanup(ctx context.Context) error { return nil }

// --- no-op ---

type noopMeasurement struct{}

func (m *noopMeasurement) Prepare(ctx context.Context, step *models.TestPlanStep) error { return nil }

func (m *noopMeasurement) Execute(ctx context.Context, step *models.TestPlanStep) (string, error) {
	return "", nil
}

func (m *noopMeasurement) Cleanup(ctx context.Context) error { return nil }
