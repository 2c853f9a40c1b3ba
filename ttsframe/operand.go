package ttsframe

import (
	"github.com/jamesrr39/goutil/errorsx"
)

// Operand is a typed cell value that can be compared against another Operand.
// Int64 and Float64 operands can be compared with each other; strings order
// lexicographically; bools support equality only.
type Operand interface {
	IsGreaterThan(val Operand) (bool, errorsx.Error)
	IsLessThan(val Operand) (bool, errorsx.Error)
	IsGreaterThanOrEqualTo(val Operand) (bool, errorsx.Error)
	IsLessThanOrEqualTo(val Operand) (bool, errorsx.Error)
	EqualTo(val Operand) (bool, errorsx.Error)
}

// OperandFromValue converts a frame cell (or a filter value supplied by the
// caller) into an Operand. Integer and float widths are normalised on frame
// load, but the caller-supplied filter values can be any Go numeric type.
func OperandFromValue(value interface{}) (Operand, errorsx.Error) {
	switch val := value.(type) {
	case int:
		return Int64Operand(val), nil
	case int32:
		return Int64Operand(val), nil
	case int64:
		return Int64Operand(val), nil
	case float32:
		return Float64Operand(val), nil
	case float64:
		return Float64Operand(val), nil
	case string:
		return StringOperand(val), nil
	case bool:
		return BoolOperand(val), nil
	default:
		return nil, errorsx.Errorf("unsupported value type: %T", value)
	}
}

func numericValue(val Operand) (float64, bool) {
	switch v := val.(type) {
	case Int64Operand:
		return float64(v), true
	case Float64Operand:
		return float64(v), true
	}

	return 0, false
}

type Int64Operand int64

func (f Int64Operand) other(val Operand) (int64, float64, bool, errorsx.Error) {
	otherInt, ok := val.(Int64Operand)
	if ok {
		return int64(otherInt), 0, true, nil
	}

	otherFloat, ok := numericValue(val)
	if !ok {
		return 0, 0, false, errorsx.Errorf("cannot compare int64 with %T", val)
	}

	return 0, otherFloat, false, nil
}

func (f Int64Operand) IsGreaterThan(val Operand) (bool, errorsx.Error) {
	otherInt, otherFloat, isInt, err := f.other(val)
	if err != nil {
		return false, err
	}
	if isInt {
		return int64(f) > otherInt, nil
	}
	return float64(f) > otherFloat, nil
}

func (f Int64Operand) IsLessThan(val Operand) (bool, errorsx.Error) {
	otherInt, otherFloat, isInt, err := f.other(val)
	if err != nil {
		return false, err
	}
	if isInt {
		return int64(f) < otherInt, nil
	}
	return float64(f) < otherFloat, nil
}

func (f Int64Operand) IsGreaterThanOrEqualTo(val Operand) (bool, errorsx.Error) {
	otherInt, otherFloat, isInt, err := f.other(val)
	if err != nil {
		return false, err
	}
	if isInt {
		return int64(f) >= otherInt, nil
	}
	return float64(f) >= otherFloat, nil
}

func (f Int64Operand) IsLessThanOrEqualTo(val Operand) (bool, errorsx.Error) {
	otherInt, otherFloat, isInt, err := f.other(val)
	if err != nil {
		return false, err
	}
	if isInt {
		return int64(f) <= otherInt, nil
	}
	return float64(f) <= otherFloat, nil
}

func (f Int64Operand) EqualTo(val Operand) (bool, errorsx.Error) {
	otherInt, otherFloat, isInt, err := f.other(val)
	if err != nil {
		return false, err
	}
	if isInt {
		return int64(f) == otherInt, nil
	}
	return float64(f) == otherFloat, nil
}

type Float64Operand float64

func (f Float64Operand) other(val Operand) (float64, errorsx.Error) {
	otherFloat, ok := numericValue(val)
	if !ok {
		return 0, errorsx.Errorf("cannot compare float64 with %T", val)
	}

	return otherFloat, nil
}

func (f Float64Operand) IsGreaterThan(val Operand) (bool, errorsx.Error) {
	other, err := f.other(val)
	if err != nil {
		return false, err
	}
	return float64(f) > other, nil
}

func (f Float64Operand) IsLessThan(val Operand) (bool, errorsx.Error) {
	other, err := f.other(val)
	if err != nil {
		return false, err
	}
	return float64(f) < other, nil
}

func (f Float64Operand) IsGreaterThanOrEqualTo(val Operand) (bool, errorsx.Error) {
	other, err := f.other(val)
	if err != nil {
		return false, err
	}
	return float64(f) >= other, nil
}

func (f Float64Operand) IsLessThanOrEqualTo(val Operand) (bool, errorsx.Error) {
	other, err := f.other(val)
	if err != nil {
		return false, err
	}
	return float64(f) <= other, nil
}

func (f Float64Operand) EqualTo(val Operand) (bool, errorsx.Error) {
	other, err := f.other(val)
	if err != nil {
		return false, err
	}
	return float64(f) == other, nil
}

type StringOperand string

func (f StringOperand) other(val Operand) (string, errorsx.Error) {
	otherString, ok := val.(StringOperand)
	if !ok {
		return "", errorsx.Errorf("cannot compare string with %T", val)
	}

	return string(otherString), nil
}

func (f StringOperand) IsGreaterThan(val Operand) (bool, errorsx.Error) {
	other, err := f.other(val)
	if err != nil {
		return false, err
	}
	return string(f) > other, nil
}

func (f StringOperand) IsLessThan(val Operand) (bool, errorsx.Error) {
	other, err := f.other(val)
	if err != nil {
		return false, err
	}
	return string(f) < other, nil
}

func (f StringOperand) IsGreaterThanOrEqualTo(val Operand) (bool, errorsx.Error) {
	other, err := f.other(val)
	if err != nil {
		return false, err
	}
	return string(f) >= other, nil
}

func (f StringOperand) IsLessThanOrEqualTo(val Operand) (bool, errorsx.Error) {
	other, err := f.other(val)
	if err != nil {
		return false, err
	}
	return string(f) <= other, nil
}

func (f StringOperand) EqualTo(val Operand) (bool, errorsx.Error) {
	other, err := f.other(val)
	if err != nil {
		return false, err
	}
	return string(f) == other, nil
}

type BoolOperand bool

func (f BoolOperand) IsGreaterThan(val Operand) (bool, errorsx.Error) {
	return false, errorsx.Errorf("bool operand is not suitable for this operator")
}

func (f BoolOperand) IsLessThan(val Operand) (bool, errorsx.Error) {
	return false, errorsx.Errorf("bool operand is not suitable for this operator")
}

func (f BoolOperand) IsGreaterThanOrEqualTo(val Operand) (bool, errorsx.Error) {
	return false, errorsx.Errorf("bool operand is not suitable for this operator")
}

func (f BoolOperand) IsLessThanOrEqualTo(val Operand) (bool, errorsx.Error) {
	return false, errorsx.Errorf("bool operand is not suitable for this operator")
}

func (f BoolOperand) EqualTo(val Operand) (bool, errorsx.Error) {
	otherBool, ok := val.(BoolOperand)
	if !ok {
		return false, errorsx.Errorf("cannot compare bool with %T", val)
	}

	return bool(f) == bool(otherBool), nil
}
