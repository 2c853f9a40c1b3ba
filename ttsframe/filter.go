package ttsframe

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/tts-data-client/tts"
)

// ApplyFilters narrows a frame to the rows matching every filter (logical AND).
// A row whose filtered cell is null never matches, whatever the operator; this
// mirrors SQL three-valued logic.
// Returns tts.ErrInvalidFilter when a filter names an unknown column or an
// unsupported operator.
func ApplyFilters(frame *Frame, filters tts.FieldFilters) (*Frame, errorsx.Error) {
	if len(filters) == 0 {
		return frame, nil
	}

	err := filters.Validate()
	if err != nil {
		return nil, err
	}

	keep := make([]bool, frame.numRows)
	for i := range keep {
		keep[i] = true
	}

	for _, filter := range filters {
		column, ok := frame.columns[filter.FieldName]
		if !ok {
			return nil, tts.ErrInvalidFilter
		}

		filterOperand, err := OperandFromValue(filter.Value)
		if err != nil {
			return nil, err
		}

		for i, cell := range column {
			if !keep[i] {
				continue
			}

			if cell == nil {
				keep[i] = false
				continue
			}

			cellOperand, err := OperandFromValue(cell)
			if err != nil {
				return nil, err
			}

			matches, err := evaluate(cellOperand, filter.Operator, filterOperand)
			if err != nil {
				return nil, err
			}

			keep[i] = matches
		}
	}

	filtered := NewFrame(frame.columnNames)
	for i := 0; i < frame.numRows; i++ {
		if !keep[i] {
			continue
		}

		for _, name := range frame.columnNames {
			filtered.columns[name] = append(filtered.columns[name], frame.columns[name][i])
		}
		filtered.numRows++
	}

	return filtered, nil
}

func evaluate(cell Operand, operator tts.ComparativeOperator, value Operand) (bool, errorsx.Error) {
	switch operator {
	case tts.ComparativeOperatorEqualTo:
		return cell.EqualTo(value)
	case tts.ComparativeOperatorNotEqualTo, tts.ComparativeOperatorNotEqualToAlt:
		equal, err := cell.EqualTo(value)
		if err != nil {
			return false, err
		}
		return !equal, nil
	case tts.ComparativeOperatorGreaterThan:
		return cell.IsGreaterThan(value)
	case tts.ComparativeOperatorGreaterThanOrEqualTo:
		return cell.IsGreaterThanOrEqualTo(value)
	case tts.ComparativeOperatorLessThan:
		return cell.IsLessThan(value)
	case tts.ComparativeOperatorLessThanOrEqualTo:
		return cell.IsLessThanOrEqualTo(value)
	default:
		return false, tts.ErrInvalidFilter
	}
}
