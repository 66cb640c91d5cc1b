package grid

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
)

type NodePosition struct {
	Start int
	End   int
}

// Expr is one node of a compiled formula. the tree enables dependency
// extraction and evaluation through traversal rather than string
// manipulation. trees are immutable: a cell's tree is rebuilt from scratch
// whenever its raw input changes.
type Expr interface {
	Eval(g *Grid) (Primitive, error)
	GetPosition() NodePosition
	ToString() string
}

// Parser parses tokens into an expression tree
type Parser struct {
	tokens []Token
	pos    int
}

// StringNode represents a string literal
type StringNode struct {
	Value    string
	Position NodePosition
}

func (n *StringNode) Eval(g *Grid) (Primitive, error) {
	return n.Value, nil
}

func (n *StringNode) GetPosition() NodePosition {
	return n.Position
}

func (n *StringNode) ToString() string {
	escaped := strings.ReplaceAll(n.Value, "\"", "\"\"")
	return fmt.Sprintf("\"%s\"", escaped)
}

// NumberNode represents a numeric literal
type NumberNode struct {
	Value    float64
	Position NodePosition
}

func (n *NumberNode) Eval(g *Grid) (Primitive, error) {
	return n.Value, nil
}

func (n *NumberNode) GetPosition() NodePosition {
	return n.Position
}

func (n *NumberNode) ToString() string {
	// format number without unnecessary decimals
	if n.Value == float64(int64(n.Value)) {
		return fmt.Sprintf("%d", int64(n.Value))
	}
	return fmt.Sprintf("%g", n.Value)
}

// BooleanNode represents a boolean literal
type BooleanNode struct {
	Value    bool
	Position NodePosition
}

func (n *BooleanNode) Eval(g *Grid) (Primitive, error) {
	return n.Value, nil
}

func (n *BooleanNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BooleanNode) ToString() string {
	if n.Value {
		return "TRUE"
	}
	return "FALSE"
}

// CellRefNode represents an absolute cell reference
type CellRefNode struct {
	Key      Key
	Position NodePosition
}

func (n *CellRefNode) Eval(g *Grid) (Primitive, error) {
	// dependencies are already final by the time we evaluate, thanks to
	// topological ordering in EvaluateDirty
	cell := g.cell(n.Key)
	if cell == nil {
		return nil, nil // empty cell
	}
	return cell.Value, nil
}

func (n *CellRefNode) GetPosition() NodePosition {
	return n.Position
}

func (n *CellRefNode) ToString() string {
	return n.Key.String()
}

// RangeNode represents a rectangular range of cells
type RangeNode struct {
	Start    Key
	End      Key
	Position NodePosition
}

func (n *RangeNode) Eval(g *Grid) (Primitive, error) {
	return &cellRange{grid: g, start: n.Start, end: n.End}, nil
}

func (n *RangeNode) GetPosition() NodePosition {
	return n.Position
}

func (n *RangeNode) ToString() string {
	return n.Start.String() + ":" + n.End.String()
}

// CellCount returns the number of cells the range covers
func (n *RangeNode) CellCount() int {
	rows := int(n.End.Row-n.Start.Row) + 1
	cols := int(n.End.Col-n.Start.Col) + 1
	return rows * cols
}

// Range is the lazy range type passed into aggregate functions
type Range interface {
	IterateValues() iter.Seq[Primitive]
}

// cellRange implements Range over the grid's computed values
type cellRange struct {
	grid  *Grid
	start Key
	end   Key
}

// IterateValues yields the computed value of every covered cell in
// row-major order. empty cells yield nil.
func (r *cellRange) IterateValues() iter.Seq[Primitive] {
	return func(yield func(Primitive) bool) {
		for row := r.start.Row; row <= r.end.Row; row++ {
			for col := r.start.Col; col <= r.end.Col; col++ {
				var value Primitive
				if cell := r.grid.cell(Key{Row: row, Col: col}); cell != nil {
					value = cell.Value
				}
				if !yield(value) {
					return
				}
			}
		}
	}
}

// BinaryOpNode represents a binary operation
type BinaryOpNode struct {
	Op       BinaryOp
	Left     Expr
	Right    Expr
	Position NodePosition
}

func (n *BinaryOpNode) Eval(g *Grid) (Primitive, error) {
	// evaluate left and right operands.
	// errors from evaluation are converted to error values
	leftVal, err := n.Left.Eval(g)
	if err != nil {
		leftVal = asEvalError(err)
	}

	rightVal, err := n.Right.Eval(g)
	if err != nil {
		rightVal = asEvalError(err)
	}

	// propagate errors: once any direct input is an error, the result is
	// that same error, never a silent coercion
	if err, ok := leftVal.(*EvalError); ok {
		return err, nil
	}
	if err, ok := rightVal.(*EvalError); ok {
		return err, nil
	}

	switch n.Op {
	case BinOpAdd:
		leftNum, leftOk := toNumber(leftVal)
		rightNum, rightOk := toNumber(rightVal)
		if !leftOk || !rightOk {
			return nil, NewEvalError(ErrorCodeValue, "addition requires numeric values")
		}
		return leftNum + rightNum, nil

	case BinOpSubtract:
		leftNum, leftOk := toNumber(leftVal)
		rightNum, rightOk := toNumber(rightVal)
		if !leftOk || !rightOk {
			return nil, NewEvalError(ErrorCodeValue, "subtraction requires numeric values")
		}
		return leftNum - rightNum, nil

	case BinOpMultiply:
		leftNum, leftOk := toNumber(leftVal)
		rightNum, rightOk := toNumber(rightVal)
		if !leftOk || !rightOk {
			return nil, NewEvalError(ErrorCodeValue, "multiplication requires numeric values")
		}
		return leftNum * rightNum, nil

	case BinOpDivide:
		leftNum, leftOk := toNumber(leftVal)
		rightNum, rightOk := toNumber(rightVal)
		if !leftOk || !rightOk {
			return nil, NewEvalError(ErrorCodeValue, "division requires numeric values")
		}
		if rightNum == 0 {
			return nil, NewEvalError(ErrorCodeDiv0, "division by zero")
		}
		return leftNum / rightNum, nil

	case BinOpPower:
		leftNum, leftOk := toNumber(leftVal)
		rightNum, rightOk := toNumber(rightVal)
		if !leftOk || !rightOk {
			return nil, NewEvalError(ErrorCodeValue, "power requires numeric values")
		}
		return math.Pow(leftNum, rightNum), nil

	case BinOpConcat:
		return toString(leftVal) + toString(rightVal), nil

	case BinOpEqual:
		return comparePrimitives(leftVal, rightVal) == 0, nil

	case BinOpNotEqual:
		return comparePrimitives(leftVal, rightVal) != 0, nil

	case BinOpLess:
		cmp := comparePrimitives(leftVal, rightVal)
		if cmp == -2 {
			return nil, NewEvalError(ErrorCodeValue, "cannot compare these values")
		}
		return cmp < 0, nil

	case BinOpLessEqual:
		cmp := comparePrimitives(leftVal, rightVal)
		if cmp == -2 {
			return nil, NewEvalError(ErrorCodeValue, "cannot compare these values")
		}
		return cmp <= 0, nil

	case BinOpGreater:
		cmp := comparePrimitives(leftVal, rightVal)
		if cmp == -2 {
			return nil, NewEvalError(ErrorCodeValue, "cannot compare these values")
		}
		return cmp > 0, nil

	case BinOpGreaterEqual:
		cmp := comparePrimitives(leftVal, rightVal)
		if cmp == -2 {
			return nil, NewEvalError(ErrorCodeValue, "cannot compare these values")
		}
		return cmp >= 0, nil

	default:
		return nil, NewEvalError(ErrorCodeValue, "unknown operator")
	}
}

func (n *BinaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BinaryOpNode) ToString() string {
	opStr := ""
	switch n.Op {
	case BinOpAdd:
		opStr = "+"
	case BinOpSubtract:
		opStr = "-"
	case BinOpMultiply:
		opStr = "*"
	case BinOpDivide:
		opStr = "/"
	case BinOpPower:
		opStr = "^"
	case BinOpConcat:
		opStr = "&"
	case BinOpEqual:
		opStr = "="
	case BinOpNotEqual:
		opStr = "<>"
	case BinOpLess:
		opStr = "<"
	case BinOpLessEqual:
		opStr = "<="
	case BinOpGreater:
		opStr = ">"
	case BinOpGreaterEqual:
		opStr = ">="
	}
	return fmt.Sprintf("(%s%s%s)", n.Left.ToString(), opStr, n.Right.ToString())
}

// UnaryOpNode represents a unary operation
type UnaryOpNode struct {
	Op       UnaryOp
	Operand  Expr
	Position NodePosition
}

func (n *UnaryOpNode) Eval(g *Grid) (Primitive, error) {
	val, err := n.Operand.Eval(g)
	if err != nil {
		val = asEvalError(err)
	}

	// propagate error values
	if err, ok := val.(*EvalError); ok {
		return err, nil
	}

	switch n.Op {
	case UnaryOpPlus:
		num, ok := toNumber(val)
		if !ok {
			return nil, NewEvalError(ErrorCodeValue, "unary plus requires a numeric value")
		}
		return num, nil

	case UnaryOpMinus:
		num, ok := toNumber(val)
		if !ok {
			return nil, NewEvalError(ErrorCodeValue, "negation requires a numeric value")
		}
		return -num, nil

	default:
		return nil, NewEvalError(ErrorCodeValue, "unknown unary operator")
	}
}

func (n *UnaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *UnaryOpNode) ToString() string {
	opStr := "+"
	if n.Op == UnaryOpMinus {
		opStr = "-"
	}
	return fmt.Sprintf("%s%s", opStr, n.Operand.ToString())
}

// FunctionCallNode represents a function call. the name is resolved against
// the grid's function table at evaluation time, never in the grammar, so new
// functions are added by extending the table.
type FunctionCallNode struct {
	Name     string
	Args     []Expr
	Position NodePosition
}

func (n *FunctionCallNode) Eval(g *Grid) (Primitive, error) {
	// evaluate arguments. error values are passed to the function as
	// arguments; the function decides how to handle them
	args := make([]Primitive, len(n.Args))
	for i, argNode := range n.Args {
		argVal, err := argNode.Eval(g)
		if err != nil {
			args[i] = asEvalError(err)
		} else {
			args[i] = argVal
		}
	}

	result, err := g.funcs.Call(n.Name, args...)
	if err != nil {
		return nil, asEvalError(err)
	}
	return result, nil
}

func (n *FunctionCallNode) GetPosition() NodePosition {
	return n.Position
}

func (n *FunctionCallNode) ToString() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.ToString()
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ","))
}

// asEvalError coerces any error to an *EvalError value
func asEvalError(err error) *EvalError {
	if evalErr, ok := err.(*EvalError); ok {
		return evalErr
	}
	return NewEvalError(ErrorCodeValue, err.Error())
}

// NewParser creates a new parser with the given tokens
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens: tokens,
		pos:    0,
	}
}

// ParseFormula compiles formula text (including the leading '=') into an
// expression tree
func ParseFormula(text string) (Expr, error) {
	lexer := NewLexer(text)
	tokens, lexErrors := lexer.Tokenize()
	if len(lexErrors) > 0 {
		return nil, NewEvalError(ErrorCodeParse, strings.Join(lexErrors, "; "))
	}
	return NewParser(tokens).Parse()
}

// Parse parses the tokens into an expression tree
func (p *Parser) Parse() (Expr, error) {
	if len(p.tokens) == 0 {
		return nil, NewEvalError(ErrorCodeParse, "no tokens to parse")
	}

	// expect and skip the equals prefix
	if p.tokens[p.pos].Type != TokenEquals {
		return nil, NewEvalError(ErrorCodeParse, "formula must start with '='")
	}
	p.pos++ // consume the equals token

	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	// ensure we've consumed all tokens except EOF
	if p.pos < len(p.tokens) && p.tokens[p.pos].Type != TokenEOF {
		return nil, NewEvalError(ErrorCodeParse, fmt.Sprintf("unexpected token after expression: %s", p.tokens[p.pos].Value))
	}

	return node, nil
}

// parseComparison handles comparison operators (lowest precedence)
func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseConcatenation()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "=":
			op = BinOpEqual
		case "<>":
			op = BinOpNotEqual
		case "<":
			op = BinOpLess
		case "<=":
			op = BinOpLessEqual
		case ">":
			op = BinOpGreater
		case ">=":
			op = BinOpGreaterEqual
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseConcatenation()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseConcatenation handles the string concatenation operator
func (p *Parser) parseConcatenation() (Expr, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp || tok.Value != "&" {
			break
		}

		p.pos++
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       BinOpConcat,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseAddition handles addition and subtraction
func (p *Parser) parseAddition() (Expr, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "+":
			op = BinOpAdd
		case "-":
			op = BinOpSubtract
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseMultiplication handles multiplication and division
func (p *Parser) parseMultiplication() (Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "*":
			op = BinOpMultiply
		case "/":
			op = BinOpDivide
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parsePower handles exponentiation
func (p *Parser) parsePower() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	// right-associative
	if p.pos < len(p.tokens) && p.tokens[p.pos].Type == TokenBinaryOp && p.tokens[p.pos].Value == "^" {
		p.pos++
		right, err := p.parsePower() // recursive for right-associativity
		if err != nil {
			return nil, err
		}

		return &BinaryOpNode{
			Op:       BinOpPower,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}, nil
	}

	return left, nil
}

// parseUnary handles unary operators
func (p *Parser) parseUnary() (Expr, error) {
	if p.pos >= len(p.tokens) {
		return nil, NewEvalError(ErrorCodeParse, "unexpected end of expression")
	}

	tok := p.tokens[p.pos]

	if tok.Type == TokenUnaryPrefixOp {
		var op UnaryOp
		switch tok.Value {
		case "+":
			op = UnaryOpPlus
		case "-":
			op = UnaryOpMinus
		default:
			return nil, NewEvalError(ErrorCodeParse, "unknown unary operator: "+tok.Value)
		}

		startPos := tok.Pos
		p.pos++
		operand, err := p.parseUnary() // recurse for chained unary operators
		if err != nil {
			return nil, err
		}

		return &UnaryOpNode{
			Op:       op,
			Operand:  operand,
			Position: NodePosition{Start: startPos, End: operand.GetPosition().End},
		}, nil
	}

	return p.parsePrimary()
}

// parsePrimary handles primary expressions (literals, references,
// functions, parentheses)
func (p *Parser) parsePrimary() (Expr, error) {
	if p.pos >= len(p.tokens) {
		return nil, NewEvalError(ErrorCodeParse, "unexpected end of expression")
	}

	tok := p.tokens[p.pos]

	switch tok.Type {
	case TokenNumber:
		p.pos++
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, NewEvalError(ErrorCodeParse, fmt.Sprintf("invalid number: %s", tok.Value))
		}
		return &NumberNode{
			Value:    val,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenString:
		p.pos++
		return &StringNode{
			Value:    tok.Value,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value) + 2}, // +2 for quotes
		}, nil

	case TokenBoolean:
		p.pos++
		return &BooleanNode{
			Value:    tok.Value == "TRUE",
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenCell:
		p.pos++
		key, err := ParseKey(tok.Value)
		if err != nil {
			return nil, err
		}
		return &CellRefNode{
			Key:      key,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenRange:
		p.pos++
		return parseRangeToken(tok)

	case TokenFunction:
		return p.parseFunctionCall()

	case TokenLeftParen:
		p.pos++
		node, err := p.parseComparison()
		if err != nil {
			return nil, err
		}

		if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenRightParen {
			return nil, NewEvalError(ErrorCodeParse, "expected closing parenthesis")
		}
		p.pos++

		return node, nil

	default:
		return nil, NewEvalError(ErrorCodeParse, fmt.Sprintf("unexpected token: %s", tok.Value))
	}
}

// parseFunctionCall parses a function call
func (p *Parser) parseFunctionCall() (Expr, error) {
	funcTok := p.tokens[p.pos]
	funcName := funcTok.Value
	startPos := funcTok.Pos
	p.pos++

	// expect opening parenthesis
	if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenLeftParen {
		return nil, NewEvalError(ErrorCodeParse, "expected '(' after function name")
	}
	p.pos++

	args := []Expr{}

	// empty argument list
	if p.pos < len(p.tokens) && p.tokens[p.pos].Type == TokenRightParen {
		p.pos++
		return &FunctionCallNode{
			Name:     funcName,
			Args:     args,
			Position: NodePosition{Start: startPos, End: p.tokens[p.pos-1].Pos + 1},
		}, nil
	}

	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.pos >= len(p.tokens) {
			return nil, NewEvalError(ErrorCodeParse, "unexpected end in function arguments")
		}

		if p.tokens[p.pos].Type == TokenRightParen {
			p.pos++
			break
		}

		if p.tokens[p.pos].Type != TokenComma {
			return nil, NewEvalError(ErrorCodeParse, "expected ',' or ')' in function arguments")
		}
		p.pos++
	}

	return &FunctionCallNode{
		Name:     funcName,
		Args:     args,
		Position: NodePosition{Start: startPos, End: p.tokens[p.pos-1].Pos + 1},
	}, nil
}

// parseRangeToken parses a range token like "A1:B10" into a RangeNode with
// normalized corners (start is always the top-left)
func parseRangeToken(tok Token) (Expr, error) {
	parts := strings.Split(tok.Value, ":")
	if len(parts) != 2 {
		return nil, NewEvalError(ErrorCodeParse, fmt.Sprintf("invalid range format: %s", tok.Value))
	}

	start, err := ParseKey(parts[0])
	if err != nil {
		return nil, NewEvalError(ErrorCodeParse, fmt.Sprintf("invalid start cell in range: %s", parts[0]))
	}

	end, err := ParseKey(parts[1])
	if err != nil {
		return nil, NewEvalError(ErrorCodeParse, fmt.Sprintf("invalid end cell in range: %s", parts[1]))
	}

	// normalize so start is always top-left
	if end.Row < start.Row {
		start.Row, end.Row = end.Row, start.Row
	}
	if end.Col < start.Col {
		start.Col, end.Col = end.Col, start.Col
	}

	return &RangeNode{
		Start:    start,
		End:      end,
		Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
	}, nil
}

// ParseKey parses a cell address like "A1" or "BC12" into a Key
func ParseKey(cell string) (Key, error) {
	if len(cell) < 2 {
		return Key{}, NewEvalError(ErrorCodeParse, fmt.Sprintf("invalid cell reference: %s", cell))
	}

	// find where letters end and numbers begin
	letterEnd := 0
	for i, ch := range cell {
		if ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' {
			letterEnd = i + 1
		} else {
			break
		}
	}

	if letterEnd == 0 || letterEnd == len(cell) {
		return Key{}, NewEvalError(ErrorCodeParse, fmt.Sprintf("invalid cell reference: %s", cell))
	}

	// parse column (A=0, B=1, ..., Z=25, AA=26, AB=27, ...)
	colStr := strings.ToUpper(cell[:letterEnd])
	col := uint32(0)
	for i, ch := range colStr {
		col = col*26 + uint32(ch-'A')
		if i < len(colStr)-1 {
			col++ // account for positional notation
		}
	}

	// parse row (1-based in notation, but we want 0-based)
	rowStr := cell[letterEnd:]
	rowNum, err := strconv.ParseUint(rowStr, 10, 32)
	if err != nil {
		return Key{}, NewEvalError(ErrorCodeParse, fmt.Sprintf("invalid row number: %s", rowStr))
	}

	if rowNum < 1 {
		return Key{}, NewEvalError(ErrorCodeParse, fmt.Sprintf("row number must be positive: %d", rowNum))
	}

	return Key{Row: uint32(rowNum - 1), Col: col}, nil
}

// collectRefs walks an expression tree and reports every referenced cell
// key. range references report every covered cell. the walk order is
// deterministic (tree order, then row-major within ranges).
func collectRefs(node Expr, visit func(Key)) {
	switch n := node.(type) {
	case *CellRefNode:
		visit(n.Key)

	case *RangeNode:
		for row := n.Start.Row; row <= n.End.Row; row++ {
			for col := n.Start.Col; col <= n.End.Col; col++ {
				visit(Key{Row: row, Col: col})
			}
		}

	case *BinaryOpNode:
		collectRefs(n.Left, visit)
		collectRefs(n.Right, visit)

	case *UnaryOpNode:
		collectRefs(n.Operand, visit)

	case *FunctionCallNode:
		for _, arg := range n.Args {
			collectRefs(arg, visit)
		}

	case *StringNode, *NumberNode, *BooleanNode:
		// literal nodes have no dependencies
	}
}

// maxRangeFanOut returns the size of the largest range in the tree, for
// enforcing the configured range cap at link time
func maxRangeFanOut(node Expr) int {
	switch n := node.(type) {
	case *RangeNode:
		return n.CellCount()
	case *BinaryOpNode:
		return max(maxRangeFanOut(n.Left), maxRangeFanOut(n.Right))
	case *UnaryOpNode:
		return maxRangeFanOut(n.Operand)
	case *FunctionCallNode:
		fanOut := 0
		for _, arg := range n.Args {
			fanOut = max(fanOut, maxRangeFanOut(arg))
		}
		return fanOut
	default:
		return 0
	}
}

// comparePrimitives compares two primitive values. returns -1 if left < right,
// 0 if equal, 1 if left > right, -2 if not comparable
func comparePrimitives(left, right Primitive) int {
	// handle nil values
	if left == nil && right == nil {
		return 0
	}
	if left == nil {
		return -1
	}
	if right == nil {
		return 1
	}

	// try numeric comparison first
	leftNum, leftIsNum := toNumber(left)
	rightNum, rightIsNum := toNumber(right)

	if leftIsNum && rightIsNum {
		if leftNum < rightNum {
			return -1
		} else if leftNum > rightNum {
			return 1
		}
		return 0
	}

	// try boolean comparison
	leftBool, leftIsBool := left.(bool)
	rightBool, rightIsBool := right.(bool)

	if leftIsBool && rightIsBool {
		if leftBool == rightBool {
			return 0
		} else if !leftBool && rightBool {
			return -1
		}
		return 1
	}

	// string comparison
	leftStr := toString(left)
	rightStr := toString(right)

	if leftStr < rightStr {
		return -1
	} else if leftStr > rightStr {
		return 1
	}
	return 0
}
