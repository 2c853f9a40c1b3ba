package ttsframe

import (
	"runtime"
	"sort"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/reader"
)

// Frame is a column-ordered in-memory table. Cell values are normalised to
// int64, float64, string or bool; a nil cell is a null.
type Frame struct {
	columnNames []string
	columns     map[string][]interface{}
	numRows     int
}

func NewFrame(columnNames []string) *Frame {
	columns := make(map[string][]interface{})
	for _, name := range columnNames {
		columns[name] = nil
	}

	return &Frame{
		columnNames: append([]string{}, columnNames...),
		columns:     columns,
	}
}

// ColumnNames returns the column names in source-schema order.
func (f *Frame) ColumnNames() []string {
	return append([]string{}, f.columnNames...)
}

func (f *Frame) NumRows() int {
	return f.numRows
}

func (f *Frame) Column(name string) ([]interface{}, bool) {
	column, ok := f.columns[name]
	return column, ok
}

func (f *Frame) Cell(rowIndex int, columnName string) (interface{}, bool) {
	column, ok := f.columns[columnName]
	if !ok || rowIndex < 0 || rowIndex >= f.numRows {
		return nil, false
	}

	return column[rowIndex], true
}

// Row returns one row in column order.
func (f *Frame) Row(rowIndex int) []interface{} {
	row := make([]interface{}, 0, len(f.columnNames))
	for _, name := range f.columnNames {
		row = append(row, f.columns[name][rowIndex])
	}

	return row
}

// FrameFromParquetBytes parses a whole parquet file held in memory.
// Repeated (list/map) fields are not supported; the TTS lake is flat tabular data.
func FrameFromParquetBytes(data []byte) (*Frame, errorsx.Error) {
	parquetFile := buffer.NewBufferFileFromBytes(data)
	defer parquetFile.Close()

	parquetReader, err := reader.NewParquetColumnReader(parquetFile, int64(runtime.NumCPU()))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	defer parquetReader.ReadStop()

	numRows := parquetReader.GetNumRows()

	frame := &Frame{
		columns: make(map[string][]interface{}),
		numRows: int(numRows),
	}

	for _, inPathStr := range parquetReader.SchemaHandler.ValueColumns {
		exPathStr, ok := parquetReader.SchemaHandler.InPathToExPath[inPathStr]
		if !ok {
			return nil, errorsx.Errorf("no external path found for column %q", inPathStr)
		}

		// strip the root schema element from the path
		columnName := strings.Join(common.StrToPath(exPathStr)[1:], ".")

		values, repetitionLevels, _, err := parquetReader.ReadColumnByPath(inPathStr, numRows)
		if err != nil {
			return nil, errorsx.Wrap(err, "column", columnName)
		}

		cells := make([]interface{}, 0, len(values))
		for i, value := range values {
			if repetitionLevels[i] != 0 {
				return nil, errorsx.Errorf("repeated field %q is not supported", columnName)
			}

			cells = append(cells, normaliseCell(value))
		}

		if len(cells) != int(numRows) {
			return nil, errorsx.Errorf("column %q has %d values, expected %d rows", columnName, len(cells), numRows)
		}

		frame.columnNames = append(frame.columnNames, columnName)
		frame.columns[columnName] = cells
	}

	return frame, nil
}

func normaliseCell(value interface{}) interface{} {
	switch val := value.(type) {
	case nil:
		return nil
	case int32:
		return int64(val)
	case int64:
		return val
	case float32:
		return float64(val)
	case float64:
		return val
	case []byte:
		return string(val)
	case string:
		return val
	case bool:
		return val
	default:
		// INT96 timestamps and fixed-length byte arrays come through as strings
		// from parquet-go already; anything else is kept as-is for display.
		return val
	}
}

// ConcatFrames concatenates frames row-wise. All frames must share the column
// set of the first one; column order is taken from the first frame.
func ConcatFrames(frames []*Frame) (*Frame, errorsx.Error) {
	if len(frames) == 0 {
		return NewFrame(nil), nil
	}

	first := frames[0]
	combined := NewFrame(first.columnNames)

	for _, frame := range frames {
		err := ensureSameColumnSet(first, frame)
		if err != nil {
			return nil, err
		}

		for _, name := range combined.columnNames {
			combined.columns[name] = append(combined.columns[name], frame.columns[name]...)
		}
		combined.numRows += frame.numRows
	}

	return combined, nil
}

func ensureSameColumnSet(a, b *Frame) errorsx.Error {
	if len(a.columnNames) != len(b.columnNames) {
		return errorsx.Errorf("schema mismatch: %d columns vs %d columns", len(a.columnNames), len(b.columnNames))
	}

	aNames := append([]string{}, a.columnNames...)
	bNames := append([]string{}, b.columnNames...)
	sort.Strings(aNames)
	sort.Strings(bNames)

	for i := range aNames {
		if aNames[i] != bNames[i] {
			return errorsx.Errorf("schema mismatch: column %q vs %q", aNames[i], bNames[i])
		}
	}

	return nil
}
