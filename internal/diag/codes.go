// Package diag implements the structured diagnostic system shared by every
// compiler phase: error codes, a phase-tagged Report type, and both the
// text and JSON renderings from spec.md §6.
package diag

// Code is one of the E0001-E9999 error codes from spec.md §7. Codes are
// partitioned by phase: lexer (E00xx), parser (E01xx), resolver (E02xx),
// type (E03xx), effect (E04xx), pattern (E05xx), codegen (E06xx), and
// internal compiler error (E9xxx).
type Code string

const (
	// Lexer: E0001-E0099
	ELexUnterminatedString Code = "E0001"
	ELexInvalidChar        Code = "E0002"
	ELexInvalidEscape      Code = "E0003"
	ELexInvalidNumber      Code = "E0004"

	// Parser: E0100-E0199
	EParseUnexpectedToken Code = "E0100"
	EParseMissingDelim    Code = "E0101"
	EParseInvalidFuncDecl Code = "E0102"
	EParseInvalidPattern  Code = "E0103"
	EParseInvalidType     Code = "E0104"
	EParseInvalidEffect   Code = "E0105"

	// Name resolution: E0200-E0299
	EResolveUnresolvedName Code = "E0200"
	EResolveDuplicateDef   Code = "E0201"
	EResolveAmbiguousImport Code = "E0202"
	EResolvePrivateAccess  Code = "E0203"
	EResolveImportCycle    Code = "E0204"

	// Type: E0300-E0399
	ETypeMismatch        Code = "E0300"
	ETypeOccursCheck     Code = "E0301"
	ETypeAmbiguity       Code = "E0302"
	ETypeUnresolvedObligation Code = "E0303"
	ETypeClosedRowMismatch Code = "E0304"

	// Effect: E0400-E0499
	EEffectRowMismatch  Code = "E0400"
	EEffectUnhandled    Code = "E0401"

	// Pattern: E0500-E0599
	EPatternNonExhaustive Code = "E0500"
	EPatternUnreachable   Code = "E0501"
	EPatternUseAfterMove  Code = "E0502"

	// Codegen: E0600-E0699
	ECodegenUnsupported Code = "E0600"

	// Internal compiler error: E9000-E9999
	EInternal Code = "E9000"
)

// CodeInfo describes a code's phase, category, and short message, as
// looked up through Registry and Phase.
type CodeInfo struct {
	Code        Code
	Phase       string
	Category    string
	Description string
}

// Registry maps every known code to its descriptive info.
var Registry = map[Code]CodeInfo{
	ELexUnterminatedString: {ELexUnterminatedString, "lexer", "syntax", "unterminated string literal"},
	ELexInvalidChar:        {ELexInvalidChar, "lexer", "syntax", "invalid character"},
	ELexInvalidEscape:      {ELexInvalidEscape, "lexer", "syntax", "invalid escape sequence"},
	ELexInvalidNumber:      {ELexInvalidNumber, "lexer", "syntax", "invalid numeric literal"},

	EParseUnexpectedToken: {EParseUnexpectedToken, "parser", "syntax", "unexpected token"},
	EParseMissingDelim:    {EParseMissingDelim, "parser", "syntax", "missing closing delimiter"},
	EParseInvalidFuncDecl: {EParseInvalidFuncDecl, "parser", "syntax", "invalid function declaration"},
	EParseInvalidPattern:  {EParseInvalidPattern, "parser", "syntax", "invalid pattern"},
	EParseInvalidType:     {EParseInvalidType, "parser", "syntax", "invalid type annotation"},
	EParseInvalidEffect:   {EParseInvalidEffect, "parser", "syntax", "invalid effect annotation"},

	EResolveUnresolvedName:  {EResolveUnresolvedName, "resolve", "scope", "unresolved name"},
	EResolveDuplicateDef:    {EResolveDuplicateDef, "resolve", "scope", "duplicate definition in scope"},
	EResolveAmbiguousImport: {EResolveAmbiguousImport, "resolve", "import", "ambiguous import"},
	EResolvePrivateAccess:   {EResolvePrivateAccess, "resolve", "visibility", "private item used across module"},
	EResolveImportCycle:     {EResolveImportCycle, "resolve", "import", "import cycle"},

	ETypeMismatch:             {ETypeMismatch, "typecheck", "unify", "type mismatch"},
	ETypeOccursCheck:          {ETypeOccursCheck, "typecheck", "unify", "occurs check failed"},
	ETypeAmbiguity:            {ETypeAmbiguity, "typecheck", "infer", "type ambiguity"},
	ETypeUnresolvedObligation: {ETypeUnresolvedObligation, "typecheck", "trait", "unresolved trait obligation"},
	ETypeClosedRowMismatch:    {ETypeClosedRowMismatch, "typecheck", "row", "closed row field-set mismatch"},

	EEffectRowMismatch: {EEffectRowMismatch, "effect", "row", "effect row mismatch"},
	EEffectUnhandled:   {EEffectUnhandled, "effect", "handler", "effect performed without a handler"},

	EPatternNonExhaustive: {EPatternNonExhaustive, "pattern", "exhaustiveness", "non-exhaustive patterns"},
	EPatternUnreachable:   {EPatternUnreachable, "pattern", "exhaustiveness", "unreachable pattern"},
	EPatternUseAfterMove:  {EPatternUseAfterMove, "pattern", "ownership", "use after move"},

	ECodegenUnsupported: {ECodegenUnsupported, "codegen", "lowering", "construct has no codegen lowering"},

	EInternal: {EInternal, "ice", "internal", "internal compiler error"},
}

// Phase returns the owning phase for a code, or "" if unknown.
func Phase(c Code) string {
	if info, ok := Registry[c]; ok {
		return info.Phase
	}
	return ""
}
