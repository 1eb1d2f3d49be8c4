package measure

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
)

// Сентинельные значения PDTool4: инструмент сообщает об ошибке строкой
// вместо исключения. Проверяются до каст-а и до сравнения с лимитами.
const (
	SentinelNoInstrument = "No instrument found"
	SentinelErrorPrefix  = "Error: "
)

// Result - итог проверки одного измеренного значения.
type Result struct {
	Passed  bool
	Value   string // Каноничное представление значения после приведения типа
	Message string // Диагностика при провале, пустая строка при успехе
}

func pass(value string) Result {
	return Result{Passed: true, Value: value}
}

func fail(value, format string, args ...interface{}) Result {
	return Result{Passed: false, Value: value, Message: fmt.Sprintf(format, args...)}
}

// Validate приводит сырое значение к типу из спецификации лимитов и применяет
// одно из семи правил сравнения. Никогда не паникует и не выполняет I/O.
func Validate(raw string, spec models.LimitSpec) Result {
	// Сентинели перебивают любой limit_type, включая none.
	if raw == SentinelNoInstrument || strings.Contains(raw, SentinelErrorPrefix) {
		return fail(raw, "%s", raw)
	}

	switch spec.LimitType {
	case models.LimitNone, "":
		return pass(raw)
	case models.LimitLower:
		return checkLower(raw, spec)
	case models.LimitUpper:
		return checkUpper(raw, spec)
	case models.LimitBoth:
		r := checkLower(raw, spec)
		if !r.Passed {
			return r
		}
		return checkUpper(raw, spec)
	case models.LimitEquality:
		return checkEquality(raw, spec, true)
	case models.LimitInequality:
		return checkEquality(raw, spec, false)
	case models.LimitPartial:
		return checkPartial(raw, spec)
	default:
		return fail(raw, "Invalid limit spec: unknown limit_type '%s'", spec.LimitType)
	}
}

func checkLower(raw string, spec models.LimitSpec) Result {
	if spec.LowerLimit == "" {
		return fail(raw, "Invalid limit spec: lower_limit is required for limit_type '%s'", spec.LimitType)
	}
	v, display, err := castNumeric(raw, spec.ValueType)
	if err != nil {
		return fail(raw, "Cast failed: %v", err)
	}
	bound, _, err := castNumeric(spec.LowerLimit, spec.ValueType)
	if err != nil {
		return fail(display, "Invalid limit spec: %v", err)
	}
	if v >= bound {
		return pass(display)
	}
	return fail(display, "Lower failed: %s < %s", display, spec.LowerLimit)
}

func checkUpper(raw string, spec models.LimitSpec) Result {
	if spec.UpperLimit == "" {
		return fail(raw, "Invalid limit spec: upper_limit is required for limit_type '%s'", spec.LimitType)
	}
	v, display, err := castNumeric(raw, spec.ValueType)
	if err != nil {
		return fail(raw, "Cast failed: %v", err)
	}
	bound, _, err := castNumeric(spec.UpperLimit, spec.ValueType)
	if err != nil {
		return fail(display, "Invalid limit spec: %v", err)
	}
	if v <= bound {
		return pass(display)
	}
	return fail(display, "Upper failed: %s > %s", display, spec.UpperLimit)
}

func checkEquality(raw string, spec models.LimitSpec, wantEqual bool) Result {
	if spec.EqualityLimit == "" {
		return fail(raw, "Invalid limit spec: equality_limit is required for limit_type '%s'", spec.LimitType)
	}

	var equal bool
	display := raw

	switch spec.ValueType {
	case models.ValueInteger, models.ValueFloat:
		v, d, err := castNumeric(raw, spec.ValueType)
		if err != nil {
			return fail(raw, "Cast failed: %v", err)
		}
		bound, _, err := castNumeric(spec.EqualityLimit, spec.ValueType)
		if err != nil {
			return fail(d, "Invalid limit spec: %v", err)
		}
		equal = v == bound
		display = d
	default:
		equal = raw == spec.EqualityLimit
	}

	if equal == wantEqual {
		return pass(display)
	}
	if wantEqual {
		return fail(display, "Equality failed: %s != %s", display, spec.EqualityLimit)
	}
	return fail(display, "Inequality failed: %s == %s", display, spec.EqualityLimit)
}

func checkPartial(raw string, spec models.LimitSpec) Result {
	if spec.EqualityLimit == "" {
		return fail(raw, "Invalid limit spec: equality_limit is required for limit_type 'partial'")
	}
	if strings.Contains(raw, spec.EqualityLimit) {
		return pass(raw)
	}
	return fail(raw, "Partial failed: '%s' not in '%s'", spec.EqualityLimit, raw)
}

// castNumeric приводит строку к числу согласно value_type и возвращает
// каноничное отображение (например "0x64" -> 100). Для value_type=string
// упорядоченные сравнения тоже требуют числа - как в PDTool4.
func castNumeric(raw string, vt models.ValueType) (float64, string, error) {
	s := strings.TrimSpace(raw)
	switch vt {
	case models.ValueInteger:
		// База 0 разрешает формы с префиксом: 0x64, 0o17, 0b101.
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, raw, fmt.Errorf("cannot parse '%s' as integer", raw)
		}
		return float64(n), strconv.FormatInt(n, 10), nil
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, raw, fmt.Errorf("cannot parse '%s' as float", raw)
		}
		return f, strconv.FormatFloat(f, 'g', -1, 64), nil
	}
}
