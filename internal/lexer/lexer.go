package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/source"
)

// Lexer tokenizes blood source text. It never fails fatally: invalid
// characters and unterminated strings become ILLEGAL tokens with a span,
// and a diagnostic is emitted to the attached Context (spec.md §4.1).
type Lexer struct {
	input        string
	file         source.FileID
	srcs         *source.Map
	diags        *diag.Context
	position     int
	readPosition int
	ch           rune
	pending      []Trivia
}

// New creates a Lexer over content already registered in srcs as file.
func New(content string, file source.FileID, srcs *source.Map, diags *diag.Context) *Lexer {
	l := &Lexer{input: content, file: file, srcs: srcs, diags: diags}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) span(start int) source.Span {
	return l.srcs.MakeSpan(l.file, start, l.position)
}

func (l *Lexer) emit(code diag.Code, msg string, span source.Span) {
	if l.diags == nil {
		return
	}
	l.diags.Emit(&diag.Report{Severity: diag.SeverityError, Code: code, Message: msg, Span: span})
}

// Tokens lexes the entire input and returns the resulting token stream,
// terminated by a single EOF token.
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

// Next returns the next token, consuming leading trivia (comments and
// whitespace) along the way.
func (l *Lexer) Next() Token {
	l.skipTrivia()

	start := l.position
	trivia := l.pending
	l.pending = nil

	if l.ch == 0 {
		return Token{Kind: EOF, Span: l.span(start), Trivia: trivia}
	}

	switch {
	case isIdentStart(l.ch):
		return l.lexIdent(start, trivia)
	case unicode.IsDigit(l.ch):
		return l.lexNumber(start, trivia)
	case l.ch == '"':
		return l.lexString(start, trivia)
	case l.ch == '\'':
		return l.lexChar(start, trivia)
	}

	return l.lexOperator(start, trivia)
}

func (l *Lexer) skipTrivia() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			start := l.position
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			l.pending = append(l.pending, Trivia{Kind: "line-comment", Text: l.input[start:l.position], Span: l.span(start)})
		case l.ch == '/' && l.peekChar() == '*':
			start := l.position
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') && l.ch != 0 {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
			l.pending = append(l.pending, Trivia{Kind: "block-comment", Text: l.input[start:l.position], Span: l.span(start)})
		default:
			return
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) lexIdent(start int, trivia []Trivia) Token {
	for isIdentCont(l.ch) {
		l.readChar()
	}
	text := norm.NFC.String(l.input[start:l.position])
	return Token{Kind: LookupIdent(text), Text: text, Span: l.span(start), Trivia: trivia}
}

func (l *Lexer) lexNumber(start int, trivia []Trivia) Token {
	kind := INT
	for unicode.IsDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		kind = FLOAT
		l.readChar()
		for unicode.IsDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		kind = FLOAT
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	// optional type suffix: i8, i16, i32, i64, i128, u8.., f32, f64
	if isIdentStart(l.ch) {
		for isIdentCont(l.ch) {
			l.readChar()
		}
	}
	text := strings.ReplaceAll(l.input[start:l.position], "_", "")
	return Token{Kind: kind, Text: text, Span: l.span(start), Trivia: trivia}
}

func (l *Lexer) lexString(start int, trivia []Trivia) Token {
	l.readChar() // consume opening quote
	var b strings.Builder
	for l.ch != '"' {
		if l.ch == 0 || l.ch == '\n' {
			sp := l.span(start)
			l.emit(diag.ELexUnterminatedString, "unterminated string literal", sp)
			return Token{Kind: ILLEGAL, Text: b.String(), Span: sp, Trivia: trivia}
		}
		if l.ch == '\\' {
			l.readChar()
			esc, ok := decodeEscape(l.ch)
			if !ok {
				l.emit(diag.ELexInvalidEscape, "invalid escape sequence", l.span(l.position))
			}
			b.WriteRune(esc)
			l.readChar()
			continue
		}
		b.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // consume closing quote
	return Token{Kind: STRING, Text: norm.NFC.String(b.String()), Span: l.span(start), Trivia: trivia}
}

func (l *Lexer) lexChar(start int, trivia []Trivia) Token {
	l.readChar() // consume opening quote
	var r rune
	if l.ch == '\\' {
		l.readChar()
		var ok bool
		r, ok = decodeEscape(l.ch)
		if !ok {
			l.emit(diag.ELexInvalidEscape, "invalid escape sequence", l.span(l.position))
		}
		l.readChar()
	} else {
		r = l.ch
		l.readChar()
	}
	if l.ch != '\'' {
		sp := l.span(start)
		l.emit(diag.ELexInvalidChar, "unterminated char literal", sp)
		return Token{Kind: ILLEGAL, Text: string(r), Span: sp, Trivia: trivia}
	}
	l.readChar()
	return Token{Kind: CHAR, Text: string(r), Span: l.span(start), Trivia: trivia}
}

func decodeEscape(r rune) (rune, bool) {
	switch r {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	case '"':
		return '"', true
	default:
		return r, false
	}
}

func (l *Lexer) two(k2 Kind, second rune, k1 Kind, start int, trivia []Trivia) Token {
	if l.peekChar() == second {
		l.readChar()
		l.readChar()
		return Token{Kind: k2, Text: l.input[start:l.position], Span: l.span(start), Trivia: trivia}
	}
	l.readChar()
	return Token{Kind: k1, Text: l.input[start:l.position], Span: l.span(start), Trivia: trivia}
}

func (l *Lexer) lexOperator(start int, trivia []Trivia) Token {
	ch := l.ch
	switch ch {
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Kind: EQEQ, Text: "==", Span: l.span(start), Trivia: trivia}
		}
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return Token{Kind: FATARROW, Text: "=>", Span: l.span(start), Trivia: trivia}
		}
		l.readChar()
		return Token{Kind: ASSIGN, Text: "=", Span: l.span(start), Trivia: trivia}
	case '!':
		return l.two(NEQ, '=', BANG, start, trivia)
	case '<':
		if l.peekChar() == '<' {
			l.readChar()
			l.readChar()
			return Token{Kind: SHL, Text: "<<", Span: l.span(start), Trivia: trivia}
		}
		return l.two(LE, '=', LT, start, trivia)
	case '>':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return Token{Kind: SHR, Text: ">>", Span: l.span(start), Trivia: trivia}
		}
		return l.two(GE, '=', GT, start, trivia)
	case '&':
		return l.two(ANDAND, '&', AMP, start, trivia)
	case '|':
		return l.two(OROR, '|', PIPE, start, trivia)
	case '-':
		return l.two(ARROW, '>', MINUS, start, trivia)
	case ':':
		return l.two(COLONCOLON, ':', COLON, start, trivia)
	case '.':
		if l.peekChar() == '.' {
			l.readChar()
			l.readChar()
			return Token{Kind: DOTDOT, Text: "..", Span: l.span(start), Trivia: trivia}
		}
		l.readChar()
		return Token{Kind: DOT, Text: ".", Span: l.span(start), Trivia: trivia}
	}

	single := map[rune]Kind{
		'+': PLUS, '*': STAR, '/': SLASH, '%': PERCENT, '^': CARET,
		'?': QUESTION, ',': COMMA, ';': SEMI,
		'(': LPAREN, ')': RPAREN, '{': LBRACE, '}': RBRACE, '[': LBRACKET, ']': RBRACKET,
	}
	if k, ok := single[ch]; ok {
		l.readChar()
		return Token{Kind: k, Text: string(ch), Span: l.span(start), Trivia: trivia}
	}

	sp := l.span(start)
	l.emit(diag.ELexInvalidChar, "invalid character '"+string(ch)+"'", sp)
	l.readChar()
	return Token{Kind: ILLEGAL, Text: string(ch), Span: sp, Trivia: trivia}
}
