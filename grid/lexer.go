package grid

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenEquals
	TokenNumber
	TokenString
	TokenBoolean
	TokenCell
	TokenRange
	TokenFunction
	TokenUnaryPrefixOp
	TokenBinaryOp
	TokenComma
	TokenLeftParen
	TokenRightParen
	TokenWhitespace
	TokenError
)

// BinaryOp represents binary operators in expression nodes
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpPower
	BinOpConcat
	BinOpEqual
	BinOpNotEqual
	BinOpLess
	BinOpLessEqual
	BinOpGreater
	BinOpGreaterEqual
)

// UnaryOp represents unary operators in expression nodes
type UnaryOp int

const (
	UnaryOpPlus UnaryOp = iota
	UnaryOpMinus
)

// character classification constants. slightly easier to read.
const (
	charNull      = 0
	charTab       = '\t'
	charNewline   = '\n'
	charReturn    = '\r'
	charSpace     = ' '
	charQuote     = '"'
	charAmpersand = '&'
	charLParen    = '('
	charRParen    = ')'
	charAsterisk  = '*'
	charPlus      = '+'
	charComma     = ','
	charMinus     = '-'
	charPeriod    = '.'
	charSlash     = '/'
	charColon     = ':'
	charLess      = '<'
	charEqual     = '='
	charGreater   = '>'
	charCaret     = '^'
)

// TokenState represents the lexer state for validation
type TokenState int

const (
	StateStart TokenState = iota
	StateAfterEquals
	StateAfterValue
	StateAfterOperator
	StateAfterLeftParen
	StateAfterRightParen
	StateAfterComma
)

// tokenTransitions maps the current state to valid next token types
var tokenTransitions = map[TokenState]map[TokenType]bool{
	StateStart: {
		TokenEquals: true, // formula prefix
	},
	StateAfterEquals: {
		TokenNumber:        true,
		TokenString:        true,
		TokenBoolean:       true,
		TokenCell:          true,
		TokenRange:         true,
		TokenFunction:      true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true, // unary +/-
	},
	StateAfterValue: { // after number, string, cell, range
		TokenBinaryOp:   true,
		TokenRightParen: true,
		TokenComma:      true, // only if in function
		TokenEOF:        true,
		// whitespace is significant - no consecutive values
	},
	StateAfterOperator: {
		TokenNumber:        true,
		TokenString:        true,
		TokenBoolean:       true,
		TokenCell:          true,
		TokenRange:         true,
		TokenFunction:      true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true, // only unary after binary
	},
	StateAfterLeftParen: {
		TokenNumber:        true,
		TokenString:        true,
		TokenBoolean:       true,
		TokenCell:          true,
		TokenRange:         true, // ranges in function arguments
		TokenFunction:      true,
		TokenLeftParen:     true, // nested
		TokenUnaryPrefixOp: true,
		TokenRightParen:    true, // empty parens for arg-less functions
	},
	StateAfterRightParen: {
		TokenBinaryOp:   true,
		TokenRightParen: true, // if nested
		TokenComma:      true, // if in function
		TokenEOF:        true,
	},
	StateAfterComma: { // only valid in function context
		TokenNumber:        true,
		TokenString:        true,
		TokenBoolean:       true,
		TokenCell:          true,
		TokenRange:         true,
		TokenFunction:      true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true,
	},
}

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune position in input
}

// Lexer tokenizes formula expressions
type Lexer struct {
	input      string
	runes      []rune // UTF-8 aware representation
	pos        int
	state      TokenState
	parenDepth int
	inString   bool
	tokens     []Token
	error      string
}

// NewLexer creates a new lexer for the given formula input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		runes:  []rune(input), // runes for UTF-8 support. could do without but a real pain
		pos:    0,
		state:  StateStart,
		tokens: []Token{},
		error:  "",
	}
}

// Tokenize tokenizes the entire input and returns tokens and any error
func (l *Lexer) Tokenize() ([]Token, []string) {
	// full formula lexer - must start with =
	if len(l.runes) == 0 || l.runes[0] != '=' {
		l.error = "formula must start with '='"
		return nil, []string{l.error}
	}

	for l.pos < len(l.runes) {
		tok := l.nextToken()
		if tok.Type == TokenError {
			l.error = tok.Value
			return nil, []string{l.error}
		}
		if tok.Type != TokenWhitespace {
			// validate state transition
			if !l.validateTransition(tok.Type) {
				l.error = "unexpected token: " + tok.Value
				return nil, []string{l.error}
			}
			l.tokens = append(l.tokens, tok)
			l.updateState(tok.Type)
		}
	}

	// check for unbalanced parentheses (only if no error already)
	if l.error == "" && l.parenDepth > 0 {
		l.error = "unbalanced parentheses: missing closing parenthesis"
		return nil, []string{l.error}
	}

	// check for unclosed string (only if no error already)
	if l.error == "" && l.inString {
		l.error = "unclosed string literal"
		return nil, []string{l.error}
	}

	// add EOF token
	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos})

	return l.tokens, nil
}

// validateTransition checks if the token type is valid in current state
func (l *Lexer) validateTransition(tokenType TokenType) bool {
	validTokens, exists := tokenTransitions[l.state]
	if !exists {
		return false
	}
	return validTokens[tokenType]
}

// updateState updates the lexer state based on the token type
func (l *Lexer) updateState(tokenType TokenType) {
	switch tokenType {
	case TokenEquals:
		l.state = StateAfterEquals
	case TokenNumber, TokenString, TokenBoolean, TokenCell, TokenRange:
		l.state = StateAfterValue
	case TokenUnaryPrefixOp, TokenBinaryOp:
		l.state = StateAfterOperator
	case TokenLeftParen:
		l.state = StateAfterLeftParen
	case TokenRightParen:
		l.state = StateAfterRightParen
	case TokenComma:
		l.state = StateAfterComma
	case TokenFunction:
		// the function's own '(' drives the next transition
	}
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.runes) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	startPos := l.pos
	ch := l.current()

	// string literals
	if ch == charQuote {
		return l.scanString()
	}

	// numbers
	if l.isDigit(ch) || (ch == charPeriod && l.isDigit(l.peek(1))) {
		return l.scanNumber()
	}

	// operators and special characters
	switch ch {
	case charLParen:
		l.pos++
		l.parenDepth++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}
	case charRParen:
		l.pos++
		l.parenDepth--
		if l.parenDepth < 0 {
			return Token{Type: TokenError, Value: "unexpected closing parenthesis", Pos: startPos}
		}
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}
	case charComma:
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: startPos}
	case charPlus, charMinus:
		return l.scanUnaryPrefixOrBinaryOp()
	case charAsterisk, charSlash, charCaret, charAmpersand:
		return l.scanBinaryOp()
	case charEqual:
		// distinguish between formula prefix = and comparison operator =
		l.pos++
		if startPos == 0 {
			return Token{Type: TokenEquals, Value: "=", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: "=", Pos: startPos}
	case charLess, charGreater:
		return l.scanBinaryOp()
	}

	// identifiers, functions, cells, booleans
	if l.isAlpha(ch) {
		return l.scanIdentifierOrCell()
	}

	// unknown character
	l.pos++
	return Token{Type: TokenError, Value: "unexpected character: " + string(ch), Pos: startPos}
}

// helper methods for character navigation and classification

// substring returns a substring of the original input based on rune positions
func (l *Lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) {
		ch := l.current()
		if ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn {
			l.pos++
		} else {
			break
		}
	}
}

func (l *Lexer) isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func (l *Lexer) isAlphaNumeric(ch rune) bool {
	return l.isAlpha(ch) || l.isDigit(ch)
}

// scanNumber scans a number token including decimals and scientific notation
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	// scan integer part
	for l.pos < len(l.runes) && l.isDigit(l.current()) {
		l.pos++
	}

	// check for decimal part
	if l.current() == charPeriod && l.isDigit(l.peek(1)) {
		l.pos++ // consume '.'
		for l.pos < len(l.runes) && l.isDigit(l.current()) {
			l.pos++
		}
	}

	// check for scientific notation (e or E)
	if l.current() == 'e' || l.current() == 'E' {
		savedPos := l.pos
		l.pos++ // consume 'e' or 'E'

		// optional + or - sign
		if l.current() == charPlus || l.current() == charMinus {
			l.pos++
		}

		// must have at least one digit after e/E
		if !l.isDigit(l.current()) {
			// not scientific notation, restore position
			l.pos = savedPos
		} else {
			for l.pos < len(l.runes) && l.isDigit(l.current()) {
				l.pos++
			}
		}
	}

	value := l.substring(startPos, l.pos)
	return Token{Type: TokenNumber, Value: value, Pos: startPos}
}

// scanString scans a string literal with support for double-quote escapes
func (l *Lexer) scanString() Token {
	startPos := l.pos
	l.pos++ // consume opening quote
	l.inString = true

	var result []rune

	for l.pos < len(l.runes) {
		ch := l.current()

		if ch == charQuote {
			// check if it's an escape sequence (double quote)
			if l.peek(1) == charQuote {
				result = append(result, charQuote)
				l.pos += 2 // consume both quotes
			} else {
				l.pos++ // consume closing quote
				l.inString = false
				return Token{Type: TokenString, Value: string(result), Pos: startPos}
			}
		} else {
			result = append(result, ch)
			l.pos++
		}
	}

	l.inString = false
	return Token{Type: TokenError, Value: "unclosed string literal", Pos: startPos}
}

// scanIdentifierOrCell scans functions, cells, ranges, and booleans
func (l *Lexer) scanIdentifierOrCell() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && l.isAlphaNumeric(l.current()) {
		l.pos++
	}

	value := l.substring(startPos, l.pos)
	upperValue := toUpper(value)

	// boolean literals
	if upperValue == "TRUE" || upperValue == "FALSE" {
		return Token{Type: TokenBoolean, Value: upperValue, Pos: startPos}
	}

	// cell reference
	if isCellWord(value) {
		// check for range (A1:B2)
		if l.current() == charColon {
			savedPos := l.pos
			l.pos++ // consume ':'

			// try to scan another cell
			cellStart := l.pos
			for l.pos < len(l.runes) && l.isAlphaNumeric(l.current()) {
				l.pos++
			}

			secondCell := l.substring(cellStart, l.pos)
			if isCellWord(secondCell) {
				rangeValue := l.substring(startPos, l.pos)
				return Token{Type: TokenRange, Value: rangeValue, Pos: startPos}
			}
			// not a valid range, restore position and return just the cell
			l.pos = savedPos
			return Token{Type: TokenCell, Value: value, Pos: startPos}
		}
		return Token{Type: TokenCell, Value: value, Pos: startPos}
	}

	// function name (must be followed by open paren)
	if l.current() == charLParen {
		return Token{Type: TokenFunction, Value: upperValue, Pos: startPos}
	}

	return Token{Type: TokenError, Value: "unknown identifier: " + value, Pos: startPos}
}

// isCellWord checks if a string is a valid cell reference (e.g., A1, BC12)
func isCellWord(s string) bool {
	if len(s) < 2 {
		return false
	}

	// find where letters end and numbers begin
	letterEnd := 0
	for i, ch := range s {
		if ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' {
			letterEnd = i + 1
		} else {
			break
		}
	}

	// must have at least one letter and one digit
	if letterEnd == 0 || letterEnd == len(s) {
		return false
	}

	// check remaining characters are all digits
	for i := letterEnd; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// toUpper converts an ASCII identifier to uppercase
func toUpper(s string) string {
	result := make([]rune, len(s))
	for i, ch := range s {
		if ch >= 'a' && ch <= 'z' {
			result[i] = ch - 32
		} else {
			result[i] = ch
		}
	}
	return string(result)
}

// scanUnaryPrefixOrBinaryOp scans + and - which can be either unary
// prefix or binary
func (l *Lexer) scanUnaryPrefixOrBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	if l.isUnaryContext() {
		return Token{Type: TokenUnaryPrefixOp, Value: string(ch), Pos: startPos}
	}
	return Token{Type: TokenBinaryOp, Value: string(ch), Pos: startPos}
}

// scanBinaryOp scans binary operators
func (l *Lexer) scanBinaryOp() Token {
	startPos := l.pos
	ch := l.current()

	// two-character operators first
	if ch == charLess {
		l.pos++
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "<=", Pos: startPos}
		} else if l.current() == charGreater {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "<>", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: "<", Pos: startPos}
	}

	if ch == charGreater {
		l.pos++
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: ">=", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: ">", Pos: startPos}
	}

	// single character binary operators
	switch ch {
	case charAsterisk:
		l.pos++
		return Token{Type: TokenBinaryOp, Value: "*", Pos: startPos}
	case charSlash:
		l.pos++
		return Token{Type: TokenBinaryOp, Value: "/", Pos: startPos}
	case charCaret:
		l.pos++
		return Token{Type: TokenBinaryOp, Value: "^", Pos: startPos}
	case charAmpersand:
		l.pos++
		return Token{Type: TokenBinaryOp, Value: "&", Pos: startPos}
	}

	return Token{Type: TokenError, Value: "unknown operator", Pos: startPos}
}

// isUnaryContext checks if the current context allows for unary operators
func (l *Lexer) isUnaryContext() bool {
	// unary operators are allowed after:
	// - equals (=)
	// - another operator
	// - left paren
	// - comma
	switch l.state {
	case StateStart, StateAfterEquals, StateAfterOperator, StateAfterLeftParen, StateAfterComma:
		return true
	default:
		return false
	}
}
