package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidTable is returned when a table breaks the row/column invariant
var ErrInvalidTable = goerr.New("invalid table")

// CellKind discriminates CellValue
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
)

// CellValue is a table cell: a string, a number or empty
type CellValue struct {
	kind CellKind
	str  string
	num  float64
}

func EmptyCell() CellValue           { return CellValue{} }
func StringCell(s string) CellValue  { return CellValue{kind: CellString, str: s} }
func NumberCell(n float64) CellValue { return CellValue{kind: CellNumber, num: n} }

// CellFromAny converts a decoded JSON, TOML or Firestore value into a CellValue. Unsupported
// values are kept as their string form.
func CellFromAny(v any) CellValue {
	switch x := v.(type) {
	case nil:
		return EmptyCell()
	case CellValue:
		return x
	case string:
		if x == "" {
			return EmptyCell()
		}
		return StringCell(x)
	case float64:
		return NumberCell(x)
	case float32:
		return NumberCell(float64(x))
	case int:
		return NumberCell(float64(x))
	case int64:
		return NumberCell(float64(x))
	case int32:
		return NumberCell(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return NumberCell(f)
		}
		return StringCell(x.String())
	case bool:
		return StringCell(strconv.FormatBool(x))
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return EmptyCell()
		}
		return StringCell(string(b))
	}
}

func (c CellValue) Kind() CellKind { return c.kind }
func (c CellValue) IsEmpty() bool  { return c.kind == CellEmpty }

// Any returns the cell as string, float64 or nil
func (c CellValue) Any() any {
	switch c.kind {
	case CellString:
		return c.str
	case CellNumber:
		return c.num
	default:
		return nil
	}
}

// Number returns the numeric value of the cell. Strings holding a number also count.
func (c CellValue) Number() (float64, bool) {
	switch c.kind {
	case CellNumber:
		return c.num, true
	case CellString:
		f, err := strconv.ParseFloat(strings.TrimSpace(c.str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (c CellValue) String() string {
	switch c.kind {
	case CellString:
		return c.str
	case CellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	default:
		return ""
	}
}

func (c CellValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Any())
}

func (c *CellValue) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return goerr.Wrap(err, "failed to decode cell value")
	}
	*c = CellFromAny(v)
	return nil
}

// Table is a user data table. Every row has exactly len(Columns) cells.
type Table struct {
	ID        string
	Name      string
	Columns   []string
	Rows      [][]CellValue
	UpdatedAt time.Time
}

// NewTable builds a table from loosely typed rows, padding short rows with empty cells and
// dropping cells beyond the last column.
func NewTable(id, name string, columns []string, rows [][]any) *Table {
	t := &Table{
		ID:      id,
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    make([][]CellValue, 0, len(rows)),
	}
	for _, row := range rows {
		cells := make([]CellValue, len(columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = CellFromAny(row[i])
			}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// Validate checks the row/column invariant
func (t *Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return goerr.Wrap(ErrInvalidTable, "table name is required", goerr.V("id", t.ID))
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return goerr.Wrap(ErrInvalidTable, "row length does not match columns",
				goerr.V("id", t.ID),
				goerr.V("row", i),
				goerr.V("cells", len(row)),
				goerr.V("columns", len(t.Columns)))
		}
	}
	return nil
}

// Copy returns a deep copy of t
func (t *Table) Copy() *Table {
	copied := &Table{
		ID:        t.ID,
		Name:      t.Name,
		Columns:   append([]string(nil), t.Columns...),
		Rows:      make([][]CellValue, len(t.Rows)),
		UpdatedAt: t.UpdatedAt,
	}
	for i, row := range t.Rows {
		copied.Rows[i] = append([]CellValue(nil), row...)
	}
	return copied
}

// AnyRows returns the rows as plain values for storage encoders
func (t *Table) AnyRows() [][]any {
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]any, len(row))
		for j, c := range row {
			rows[i][j] = c.Any()
		}
	}
	return rows
}
