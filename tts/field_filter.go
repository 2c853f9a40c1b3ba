package tts

import (
	"fmt"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

type ComparativeOperator string

const (
	ComparativeOperatorEqualTo              ComparativeOperator = "=="
	ComparativeOperatorNotEqualTo           ComparativeOperator = "!="
	ComparativeOperatorNotEqualToAlt        ComparativeOperator = "<>" // alias for !=
	ComparativeOperatorGreaterThan          ComparativeOperator = ">"
	ComparativeOperatorGreaterThanOrEqualTo ComparativeOperator = ">="
	ComparativeOperatorLessThan             ComparativeOperator = "<"
	ComparativeOperatorLessThanOrEqualTo    ComparativeOperator = "<="
)

func (op ComparativeOperator) Validate() errorsx.Error {
	switch op {
	case ComparativeOperatorEqualTo,
		ComparativeOperatorNotEqualTo,
		ComparativeOperatorNotEqualToAlt,
		ComparativeOperatorGreaterThan,
		ComparativeOperatorGreaterThanOrEqualTo,
		ComparativeOperatorLessThan,
		ComparativeOperatorLessThanOrEqualTo:
		return nil
	}

	return ErrInvalidFilter
}

// FieldFilter is a post-fetch predicate over one column of the result table.
// Value must be an int64, float64, string or bool.
type FieldFilter struct {
	FieldName string
	Operator  ComparativeOperator
	Value     interface{}
}

func (f *FieldFilter) Validate() errorsx.Error {
	if f.FieldName == "" {
		return ErrInvalidFilter
	}

	return f.Operator.Validate()
}

func (f *FieldFilter) String() string {
	return fmt.Sprintf("%s %s %v", f.FieldName, f.Operator, f.Value)
}

// FieldFilters are combined with logical AND.
type FieldFilters []*FieldFilter

func (ff FieldFilters) Validate() errorsx.Error {
	for _, filter := range ff {
		err := filter.Validate()
		if err != nil {
			return err
		}
	}

	return nil
}

func (ff FieldFilters) String() string {
	var fragments []string
	for _, filter := range ff {
		fragments = append(fragments, fmt.Sprintf("(%s)", filter))
	}

	return strings.Join(fragments, " AND ")
}
