package grid

import "fmt"

// Primitive represents basic cell value types.
// types:
//   - float64: numeric values (integers are converted to float64)
//   - string: text values
//   - bool: boolean values (TRUE/FALSE)
//   - nil: empty cells
//   - *EvalError: error values (#DIV/0!, #VALUE!, etc.)
type Primitive any

// ErrorCode identifies the class of an evaluation error value
type ErrorCode uint8

const (
	ErrorCodeDiv0     ErrorCode = 1 // #DIV/0! - division by zero
	ErrorCodeValue    ErrorCode = 2 // #VALUE! - wrong type of argument or operand
	ErrorCodeCircular ErrorCode = 3 // #CIRC! - cell participates in a reference cycle
	ErrorCodeName     ErrorCode = 4 // #NAME? - unrecognized function name
	ErrorCodeParse    ErrorCode = 5 // #PARSE! - formula text could not be parsed
	ErrorCodeLimit    ErrorCode = 6 // #LIMIT! - range exceeds the configured cell cap
	ErrorCodeRef      ErrorCode = 7 // #REF! - reference outside the grid bounds
)

// ErrorMapper maps error codes to their display strings
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeDiv0:     "#DIV/0!",
	ErrorCodeValue:    "#VALUE!",
	ErrorCodeCircular: "#CIRC!",
	ErrorCodeName:     "#NAME?",
	ErrorCodeParse:    "#PARSE!",
	ErrorCodeLimit:    "#LIMIT!",
	ErrorCodeRef:      "#REF!",
}

// EvalError is an evaluation error carried as a cell value. it flows through
// dependent formulas like any other computed value and never aborts an
// evaluation pass.
type EvalError struct {
	Code    ErrorCode
	Message string
}

func (e *EvalError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.Code]
}

// Display returns the short #CODE! form shown in the cell
func (e *EvalError) Display() string {
	return ErrorMapper[e.Code]
}

func NewEvalError(code ErrorCode, message string) *EvalError {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &EvalError{
		Code:    code,
		Message: message,
	}
}

// ValueType represents numeric constants for computed cell value
// types (external API)
type ValueType uint8

const (
	ValueTypeEmpty   ValueType = 0
	ValueTypeNumber  ValueType = 1
	ValueTypeText    ValueType = 2
	ValueTypeBoolean ValueType = 3
	ValueTypeError   ValueType = 4
)

// Key identifies a grid position. rows and columns are zero-based.
type Key struct {
	Row uint32
	Col uint32
}

// Less orders keys row-major, which is the deterministic order used by the
// evaluator and by change notifications
func (k Key) Less(other Key) bool {
	if k.Row != other.Row {
		return k.Row < other.Row
	}
	return k.Col < other.Col
}

// String renders the key in column-letter+row-number form, e.g. {0,0} -> "A1"
func (k Key) String() string {
	col := ""
	n := k.Col + 1
	for n > 0 {
		n--
		col = string(rune('A'+(n%26))) + col
		n /= 26
	}
	return fmt.Sprintf("%s%d", col, k.Row+1)
}

// Cell represents one grid cell: the raw input as typed, the last computed
// value, and the compiled expression tree when the raw input is a formula.
// the expression tree is immutable and rebuilt whenever Raw changes.
type Cell struct {
	Raw   string    // raw input as typed by the user
	Value Primitive // last computed value (or *EvalError)
	Type  ValueType // type of Value
	expr  Expr      // non-nil only for well-formed formulas
	dirty bool
}

// IsFormula reports whether the cell's raw input is formula text
func (c *Cell) IsFormula() bool {
	return len(c.Raw) > 0 && c.Raw[0] == '='
}

// Snapshot captures one cell's full state for undo/redo. restoring a
// snapshot does not require re-parsing or re-evaluating the cell itself,
// only its dependents.
type Snapshot struct {
	Raw    string
	Value  Primitive
	Type   ValueType
	Exists bool // false when the key had no cell at capture time
}

// CellView is the read surface exposed to the table view layer
type CellView struct {
	Raw   string
	Value Primitive
	Type  ValueType
}

// valueTypeOf classifies a computed primitive
func valueTypeOf(v Primitive) ValueType {
	switch v.(type) {
	case nil:
		return ValueTypeEmpty
	case float64:
		return ValueTypeNumber
	case bool:
		return ValueTypeBoolean
	case string:
		return ValueTypeText
	case *EvalError:
		return ValueTypeError
	default:
		return ValueTypeText
	}
}
