package models

// MeasurementKind - закрытый набор типов измерений, совместимый с PDTool4.
// Неизвестный тип не является ошибкой: движок подставляет no-op измерение.
type MeasurementKind string

const (
	KindPowerRead       MeasurementKind = "power_read"
	KindCommandTest     MeasurementKind = "command_test"
	KindRelay           MeasurementKind = "relay"
	KindChassisRotation MeasurementKind = "chassis_rotation"
	KindDelay           MeasurementKind = "delay"
	KindNoOp            MeasurementKind = "noop"
)

// LimitType определяет правило сравнения измеренного значения с лимитами.
type LimitType string

const (
	LimitNone       LimitType = "none"
	LimitLower      LimitType = "lower"
	LimitUpper      LimitType = "upper"
	LimitBoth       LimitType = "both"
	LimitEquality   LimitType = "equality"
	LimitInequality LimitType = "inequality"
	LimitPartial    LimitType = "partial"
)

// ValueType определяет, к какому типу приводится сырое значение перед проверкой.
type ValueType string

const (
	ValueString  ValueType = "string"
	ValueInteger ValueType = "integer"
	ValueFloat   ValueType = "float"
)

// LimitSpec описывает лимиты одного шага тест-плана.
// Обязательность полей зависит от LimitType (см. движок валидации).
type LimitSpec struct {
	LimitType     LimitType `json:"limit_type"`
	ValueType     ValueType `json:"value_type"`
	LowerLimit    string    `json:"lower_limit,omitempty"`
	UpperLimit    string    `json:"upper_limit,omitempty"`
	EqualityLimit string    `json:"equality_limit,omitempty"`
}

// PlanOptions - настройки прогона, задаваемые на уровне плана станции.
type PlanOptions struct {
	ContinueOnFail bool `json:"continue_on_fail"`
}

// TestPlanStep - одна строка тест-плана. Неизменяема в течение сессии,
// владелец - внешнее хранилище планов.
type TestPlanStep struct {
	StepID     string            `json:"step_id"`
	Index      int               `json:"index"`
	Name       string            `json:"name"`
	Kind       MeasurementKind   `json:"kind"`
	Instrument string            `json:"instrument,omitempty"` // Логический ID инструмента
	Params     map[string]string `json:"params,omitempty"`
	Limits     LimitSpec         `json:"limits"`
	UseResult  string            `json:"use_result,omitempty"` // StepID предыдущего шага
}
