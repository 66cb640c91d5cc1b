package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// BuiltinFunction is a function callable from formulas
type BuiltinFunction func(args ...Primitive) (Primitive, error)

// FunctionTable resolves function names at evaluation time. names are
// matched case-insensitively. an unknown name yields #NAME? for the
// calling cell only.
type FunctionTable struct {
	funcs map[string]BuiltinFunction
}

// NewFunctionTable returns a table preloaded with the builtin functions
func NewFunctionTable() *FunctionTable {
	t := &FunctionTable{funcs: make(map[string]BuiltinFunction)}
	t.Register("SUM", builtinSum)
	t.Register("AVERAGE", builtinAverage)
	t.Register("AVG", builtinAverage)
	t.Register("COUNT", builtinCount)
	t.Register("MIN", builtinMin)
	t.Register("MAX", builtinMax)
	t.Register("IF", builtinIf)
	return t
}

// Register adds or replaces a function under the given name
func (t *FunctionTable) Register(name string, fn BuiltinFunction) {
	t.funcs[strings.ToUpper(name)] = fn
}

// Call invokes the named function with the given arguments
func (t *FunctionTable) Call(name string, args ...Primitive) (Primitive, error) {
	fn, ok := t.funcs[strings.ToUpper(name)]
	if !ok {
		return nil, NewEvalError(ErrorCodeName, fmt.Sprintf("unknown function: %s", name))
	}
	return fn(args...)
}

// collectNumbers flattens arguments into the numeric values the aggregates
// operate on. range arguments are iterated in row-major order; non-numeric
// non-error values inside ranges are skipped. any error value poisons the
// whole collection and is returned as-is.
func collectNumbers(args []Primitive) ([]float64, *EvalError) {
	numbers := []float64{}
	for _, arg := range args {
		switch v := arg.(type) {
		case *EvalError:
			return nil, v
		case Range:
			for value := range v.IterateValues() {
				if err, ok := value.(*EvalError); ok {
					return nil, err
				}
				if value == nil {
					continue
				}
				if num, ok := toNumber(value); ok {
					numbers = append(numbers, num)
				}
			}
		case nil:
			// empty direct arguments contribute nothing
		default:
			if num, ok := toNumber(v); ok {
				numbers = append(numbers, num)
			}
		}
	}
	return numbers, nil
}

func builtinSum(args ...Primitive) (Primitive, error) {
	numbers, evalErr := collectNumbers(args)
	if evalErr != nil {
		return nil, evalErr
	}
	sum := 0.0
	for _, n := range numbers {
		sum += n
	}
	return sum, nil
}

func builtinAverage(args ...Primitive) (Primitive, error) {
	numbers, evalErr := collectNumbers(args)
	if evalErr != nil {
		return nil, evalErr
	}
	if len(numbers) == 0 {
		return nil, NewEvalError(ErrorCodeDiv0, "AVERAGE over no numeric values")
	}
	sum := 0.0
	for _, n := range numbers {
		sum += n
	}
	return sum / float64(len(numbers)), nil
}

func builtinCount(args ...Primitive) (Primitive, error) {
	numbers, evalErr := collectNumbers(args)
	if evalErr != nil {
		return nil, evalErr
	}
	return float64(len(numbers)), nil
}

func builtinMin(args ...Primitive) (Primitive, error) {
	numbers, evalErr := collectNumbers(args)
	if evalErr != nil {
		return nil, evalErr
	}
	if len(numbers) == 0 {
		return 0.0, nil
	}
	min := numbers[0]
	for _, n := range numbers[1:] {
		if n < min {
			min = n
		}
	}
	return min, nil
}

func builtinMax(args ...Primitive) (Primitive, error) {
	numbers, evalErr := collectNumbers(args)
	if evalErr != nil {
		return nil, evalErr
	}
	if len(numbers) == 0 {
		return 0.0, nil
	}
	max := numbers[0]
	for _, n := range numbers[1:] {
		if n > max {
			max = n
		}
	}
	return max, nil
}

func builtinIf(args ...Primitive) (Primitive, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, NewEvalError(ErrorCodeValue, "IF requires 2 or 3 arguments")
	}
	if err, ok := args[0].(*EvalError); ok {
		return nil, err
	}
	if isTruthy(args[0]) {
		return args[1], nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return false, nil
}

// toNumber attempts to coerce a primitive to a float64. numeric text is
// accepted, matching how non-formula numeric input is classified.
func toNumber(v Primitive) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, false
		}
		num, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return num, true
	case nil:
		return 0, true // empty cells act as zero in arithmetic
	default:
		return 0, false
	}
}

// toString renders a primitive the way the cell displays it
func toString(v Primitive) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case *EvalError:
		return val.Display()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// isTruthy evaluates a primitive as a condition. zero, empty string,
// FALSE and empty cells are false; everything else is true.
func isTruthy(v Primitive) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return false
	}
}
