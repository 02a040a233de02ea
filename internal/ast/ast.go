// Package ast defines the surface syntax tree produced by the parser
// (spec.md §4.2). Every node carries a source.Span so later phases can
// report diagnostics against the original text.
package ast

import (
	"fmt"
	"strings"

	"github.com/jkindrix/blood/internal/source"
)

// Node is the base interface for all AST nodes.
type Node interface {
	String() string
	Position() source.Span
}

// Expr nodes appear anywhere a value is produced.
type Expr interface {
	Node
	exprNode()
}

// Stmt nodes appear inside a Block.
type Stmt interface {
	Node
	stmtNode()
}

// Item nodes are top-level (or module-nested) declarations.
type Item interface {
	Node
	itemNode()
}

// Ty is a syntactic type expression, pre-resolution.
type Ty interface {
	Node
	typeNode()
}

// Pattern nodes appear in let-bindings, match arms, and parameters.
type Pattern interface {
	Node
	patternNode()
}

// File is a single parsed source file: an optional module path, uses,
// and a sequence of items.
type File struct {
	Path  string
	Mod   *ModDecl
	Uses  []*UseDecl
	Items []Item
	Span  source.Span
}

func (f *File) Position() source.Span { return f.Span }
func (f *File) String() string {
	var parts []string
	for _, it := range f.Items {
		parts = append(parts, it.String())
	}
	return strings.Join(parts, "\n")
}

// ModDecl declares the module path a file belongs to: `mod foo::bar;`
type ModDecl struct {
	Path []string
	Span source.Span
}

func (m *ModDecl) Position() source.Span { return m.Span }
func (m *ModDecl) String() string        { return "mod " + strings.Join(m.Path, "::") }
func (m *ModDecl) itemNode()             {}

// UseDecl imports names from another module, with optional selective
// symbols and a glob form (`use foo::*;`).
type UseDecl struct {
	Path    []string
	Symbols []string // empty + Glob false => import the path itself
	Alias   string
	Glob    bool
	Span    source.Span
}

func (u *UseDecl) Position() source.Span { return u.Span }
func (u *UseDecl) String() string {
	path := strings.Join(u.Path, "::")
	if u.Glob {
		return fmt.Sprintf("use %s::*", path)
	}
	if len(u.Symbols) > 0 {
		return fmt.Sprintf("use %s::{%s}", path, strings.Join(u.Symbols, ", "))
	}
	return "use " + path
}
func (u *UseDecl) itemNode() {}

// Visibility marks an item pub or private.
type Visibility int

const (
	Private Visibility = iota
	Public
)

// Param is a single function parameter: a pattern plus optional type.
type Param struct {
	Pattern Pattern
	Type    Ty
	Span    source.Span
}

// TypeParam is a generic type parameter, optionally trait-bounded.
type TypeParam struct {
	Name   string
	Bounds []string
	Span   source.Span
}

// EffectRowSyntax is the surface syntax for an effect annotation on a
// function or closure: `! {IO, State | rho}`.
type EffectRowSyntax struct {
	Labels []string
	Var    string // row variable name, "" if closed
	Span   source.Span
}

func (e *EffectRowSyntax) String() string {
	if e == nil {
		return ""
	}
	body := strings.Join(e.Labels, ", ")
	if e.Var != "" {
		if body != "" {
			body += " | " + e.Var
		} else {
			body = "| " + e.Var
		}
	}
	return fmt.Sprintf(" ! {%s}", body)
}

// FuncDecl is a top-level or trait/impl-nested function definition.
type FuncDecl struct {
	Name       string
	TypeParams []*TypeParam
	Params     []*Param
	ReturnType Ty
	Effects    *EffectRowSyntax
	Body       *Block
	Vis        Visibility
	Span       source.Span
}

func (f *FuncDecl) Position() source.Span { return f.Span }
func (f *FuncDecl) String() string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Pattern.String()
	}
	return fmt.Sprintf("fn %s(%s)%s", f.Name, strings.Join(names, ", "), f.Effects.String())
}
func (f *FuncDecl) itemNode() {}

// StructDecl declares a nominal record type.
type StructDecl struct {
	Name       string
	TypeParams []*TypeParam
	Fields     []*StructField
	Vis        Visibility
	Span       source.Span
}

type StructField struct {
	Name string
	Type Ty
	Vis  Visibility
	Span source.Span
}

func (s *StructDecl) Position() source.Span { return s.Span }
func (s *StructDecl) String() string        { return "struct " + s.Name }
func (s *StructDecl) itemNode()             {}

// EnumDecl declares a sum type.
type EnumDecl struct {
	Name       string
	TypeParams []*TypeParam
	Variants   []*EnumVariant
	Vis        Visibility
	Span       source.Span
}

type EnumVariant struct {
	Name   string
	Fields []Ty // positional payload; empty for a unit variant
	Span   source.Span
}

func (e *EnumDecl) Position() source.Span { return e.Span }
func (e *EnumDecl) String() string        { return "enum " + e.Name }
func (e *EnumDecl) itemNode()             {}

// EffectDecl declares an algebraic effect and its operations.
type EffectDecl struct {
	Name       string
	TypeParams []*TypeParam
	Ops        []*EffectOp
	Vis        Visibility
	Span       source.Span
}

type EffectOp struct {
	Name       string
	Params     []*Param
	ReturnType Ty
	Span       source.Span
}

func (e *EffectDecl) Position() source.Span { return e.Span }
func (e *EffectDecl) String() string        { return "effect " + e.Name }
func (e *EffectDecl) itemNode()             {}

// TraitDecl declares a trait (method signatures, optional defaults).
type TraitDecl struct {
	Name       string
	TypeParam  string
	Methods    []*TraitMethod
	Vis        Visibility
	Span       source.Span
}

type TraitMethod struct {
	Name       string
	Params     []*Param
	ReturnType Ty
	Effects    *EffectRowSyntax
	Default    *Block // nil if no default body
	Span       source.Span
}

func (t *TraitDecl) Position() source.Span { return t.Span }
func (t *TraitDecl) String() string        { return "trait " + t.Name }
func (t *TraitDecl) itemNode()             {}

// ImplDecl implements a trait for a concrete type, or an inherent impl
// block when Trait == "".
type ImplDecl struct {
	Trait      string
	TypeParams []*TypeParam
	ForType    Ty
	Methods    []*FuncDecl
	Span       source.Span
}

func (i *ImplDecl) Position() source.Span { return i.Span }
func (i *ImplDecl) String() string {
	if i.Trait == "" {
		return fmt.Sprintf("impl %s", i.ForType)
	}
	return fmt.Sprintf("impl %s for %s", i.Trait, i.ForType)
}
func (i *ImplDecl) itemNode() {}

// ConstDecl and StaticDecl declare module-level bindings; Const values
// must be foldable at compile time, Static values may have runtime
// initializers.
type ConstDecl struct {
	Name  string
	Type  Ty
	Value Expr
	Vis   Visibility
	Span  source.Span
}

func (c *ConstDecl) Position() source.Span { return c.Span }
func (c *ConstDecl) String() string        { return "const " + c.Name }
func (c *ConstDecl) itemNode()             {}

type StaticDecl struct {
	Name  string
	Type  Ty
	Value Expr
	Vis   Visibility
	Span  source.Span
}

func (s *StaticDecl) Position() source.Span { return s.Span }
func (s *StaticDecl) String() string        { return "static " + s.Name }
func (s *StaticDecl) itemNode()             {}

// ---- Statements ----

// LetStmt binds a pattern to a value within a block.
type LetStmt struct {
	Pattern Pattern
	Type    Ty
	Value   Expr
	Span    source.Span
}

func (l *LetStmt) Position() source.Span { return l.Span }
func (l *LetStmt) String() string        { return fmt.Sprintf("let %s = %s", l.Pattern, l.Value) }
func (l *LetStmt) stmtNode()             {}

// ExprStmt is an expression evaluated for effect; its value is
// discarded unless it is the final statement of a block.
type ExprStmt struct {
	X    Expr
	Span source.Span
}

func (e *ExprStmt) Position() source.Span { return e.Span }
func (e *ExprStmt) String() string        { return e.X.String() }
func (e *ExprStmt) stmtNode()             {}

// ItemStmt allows a local item (commonly a nested fn) inside a block.
type ItemStmt struct {
	It   Item
	Span source.Span
}

func (i *ItemStmt) Position() source.Span { return i.Span }
func (i *ItemStmt) String() string        { return i.It.String() }
func (i *ItemStmt) stmtNode()             {}

// ---- Expressions ----

type Ident struct {
	Name string
	Span source.Span
}

func (i *Ident) Position() source.Span { return i.Span }
func (i *Ident) String() string        { return i.Name }
func (i *Ident) exprNode()             {}
func (i *Ident) patternNode()          {}

// Path is a qualified name, e.g. `std::io::print`.
type Path struct {
	Segments []string
	Span     source.Span
}

func (p *Path) Position() source.Span { return p.Span }
func (p *Path) String() string        { return strings.Join(p.Segments, "::") }
func (p *Path) exprNode()             {}
func (p *Path) typeNode()             {}

type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	CharLit
	BoolLit
	UnitLit
)

type Literal struct {
	Kind  LitKind
	Value interface{}
	Span  source.Span
}

func (l *Literal) Position() source.Span { return l.Span }
func (l *Literal) String() string        { return fmt.Sprintf("%v", l.Value) }
func (l *Literal) exprNode()             {}
func (l *Literal) patternNode()          {}

type BinaryExpr struct {
	Left  Expr
	Op    string
	Right Expr
	Span  source.Span
}

func (b *BinaryExpr) Position() source.Span { return b.Span }
func (b *BinaryExpr) String() string        { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }
func (b *BinaryExpr) exprNode()             {}

type UnaryExpr struct {
	Op   string
	X    Expr
	Span source.Span
}

func (u *UnaryExpr) Position() source.Span { return u.Span }
func (u *UnaryExpr) String() string        { return fmt.Sprintf("(%s%s)", u.Op, u.X) }
func (u *UnaryExpr) exprNode()             {}

type AssignExpr struct {
	Target Expr
	Op     string // "=", "+=", ...
	Value  Expr
	Span   source.Span
}

func (a *AssignExpr) Position() source.Span { return a.Span }
func (a *AssignExpr) String() string        { return fmt.Sprintf("(%s %s %s)", a.Target, a.Op, a.Value) }
func (a *AssignExpr) exprNode()             {}

// CallExpr applies a callee to arguments. Multiple-dispatch resolution
// happens later (resolve/types); at parse time this is just a call.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Span   source.Span
}

func (c *CallExpr) Position() source.Span { return c.Span }
func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(args, ", "))
}
func (c *CallExpr) exprNode() {}

// MethodCallExpr is `recv.name(args)`, distinct from CallExpr because
// method resolution consults the receiver's trait impls.
type MethodCallExpr struct {
	Receiver Expr
	Name     string
	Args     []Expr
	Span     source.Span
}

func (m *MethodCallExpr) Position() source.Span { return m.Span }
func (m *MethodCallExpr) String() string {
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s.%s(%s)", m.Receiver, m.Name, strings.Join(args, ", "))
}
func (m *MethodCallExpr) exprNode() {}

type FieldExpr struct {
	X     Expr
	Field string
	Span  source.Span
}

func (f *FieldExpr) Position() source.Span { return f.Span }
func (f *FieldExpr) String() string        { return fmt.Sprintf("%s.%s", f.X, f.Field) }
func (f *FieldExpr) exprNode()             {}

type IndexExpr struct {
	X     Expr
	Index Expr
	Span  source.Span
}

func (i *IndexExpr) Position() source.Span { return i.Span }
func (i *IndexExpr) String() string        { return fmt.Sprintf("%s[%s]", i.X, i.Index) }
func (i *IndexExpr) exprNode()             {}

// Block is a brace-delimited sequence of statements with an optional
// trailing tail expression supplying the block's value.
type Block struct {
	Stmts []Stmt
	Tail  Expr // nil => unit
	Span  source.Span
}

func (b *Block) Position() source.Span { return b.Span }
func (b *Block) String() string {
	parts := make([]string, 0, len(b.Stmts)+1)
	for _, s := range b.Stmts {
		parts = append(parts, s.String())
	}
	if b.Tail != nil {
		parts = append(parts, b.Tail.String())
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}
func (b *Block) exprNode() {}

type IfExpr struct {
	Cond Expr
	Then *Block
	Else Expr // *Block or *IfExpr or nil
	Span source.Span
}

func (i *IfExpr) Position() source.Span { return i.Span }
func (i *IfExpr) String() string {
	if i.Else != nil {
		return fmt.Sprintf("if %s %s else %s", i.Cond, i.Then, i.Else)
	}
	return fmt.Sprintf("if %s %s", i.Cond, i.Then)
}
func (i *IfExpr) exprNode() {}

type WhileExpr struct {
	Cond Expr
	Body *Block
	Span source.Span
}

func (w *WhileExpr) Position() source.Span { return w.Span }
func (w *WhileExpr) String() string        { return fmt.Sprintf("while %s %s", w.Cond, w.Body) }
func (w *WhileExpr) exprNode()             {}

// ForExpr desugars at HIR lowering into a WhileExpr over an iterator
// (spec.md §4.4); the parser keeps it as its own node for diagnostics.
type ForExpr struct {
	Pattern Pattern
	Iter    Expr
	Body    *Block
	Span    source.Span
}

func (f *ForExpr) Position() source.Span { return f.Span }
func (f *ForExpr) String() string        { return fmt.Sprintf("for %s in %s %s", f.Pattern, f.Iter, f.Body) }
func (f *ForExpr) exprNode()             {}

type LoopExpr struct {
	Body *Block
	Span source.Span
}

func (l *LoopExpr) Position() source.Span { return l.Span }
func (l *LoopExpr) String() string        { return fmt.Sprintf("loop %s", l.Body) }
func (l *LoopExpr) exprNode()             {}

type BreakExpr struct {
	Value Expr // nil => break with unit
	Span  source.Span
}

func (b *BreakExpr) Position() source.Span { return b.Span }
func (b *BreakExpr) String() string        { return "break" }
func (b *BreakExpr) exprNode()             {}

type ContinueExpr struct {
	Span source.Span
}

func (c *ContinueExpr) Position() source.Span { return c.Span }
func (c *ContinueExpr) String() string        { return "continue" }
func (c *ContinueExpr) exprNode()             {}

type ReturnExpr struct {
	Value Expr
	Span  source.Span
}

func (r *ReturnExpr) Position() source.Span { return r.Span }
func (r *ReturnExpr) String() string        { return "return " + r.Value.String() }
func (r *ReturnExpr) exprNode()             {}

// MatchArm is one `pattern [if guard] => body` arm of a Match.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr
	Body    Expr
	Span    source.Span
}

type MatchExpr struct {
	Scrutinee Expr
	Arms      []*MatchArm
	Span      source.Span
}

func (m *MatchExpr) Position() source.Span { return m.Span }
func (m *MatchExpr) String() string {
	arms := make([]string, len(m.Arms))
	for i, a := range m.Arms {
		arms[i] = fmt.Sprintf("%s => %s", a.Pattern, a.Body)
	}
	return fmt.Sprintf("match %s { %s }", m.Scrutinee, strings.Join(arms, ", "))
}
func (m *MatchExpr) exprNode() {}

// ClosureExpr is a capturing lambda; captures are inferred at HIR
// lowering, not syntactically declared.
type ClosureExpr struct {
	Params  []*Param
	Effects *EffectRowSyntax
	Body    Expr
	Span    source.Span
}

func (c *ClosureExpr) Position() source.Span { return c.Span }
func (c *ClosureExpr) String() string {
	names := make([]string, len(c.Params))
	for i, p := range c.Params {
		names[i] = p.Pattern.String()
	}
	return fmt.Sprintf("|%s|%s %s", strings.Join(names, ", "), c.Effects.String(), c.Body)
}
func (c *ClosureExpr) exprNode() {}

// PerformExpr invokes an effect operation: `perform State.get()`.
type PerformExpr struct {
	Effect string
	Op     string
	Args   []Expr
	Span   source.Span
}

func (p *PerformExpr) Position() source.Span { return p.Span }
func (p *PerformExpr) String() string {
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("perform %s.%s(%s)", p.Effect, p.Op, strings.Join(args, ", "))
}
func (p *PerformExpr) exprNode() {}

// ResumeExpr resumes a suspended handler continuation with a value.
type ResumeExpr struct {
	Value Expr
	Span  source.Span
}

func (r *ResumeExpr) Position() source.Span { return r.Span }
func (r *ResumeExpr) String() string        { return "resume(" + r.Value.String() + ")" }
func (r *ResumeExpr) exprNode()             {}

// HandlerArm is one `Effect.op(params) => body` clause of a handler,
// or the distinguished `return(x) => body` clause.
type HandlerArm struct {
	Effect   string // "" for the return clause
	Op       string
	IsReturn bool
	Params   []*Param
	Body     Expr
	Span     source.Span
}

// HandlerExpr is a handler literal: `handler { ... arms ... }`. Deep by
// default; Shallow marks a one-shot (non-reinstalling) handler.
type HandlerExpr struct {
	Arms    []*HandlerArm
	Shallow bool
	Span    source.Span
}

func (h *HandlerExpr) Position() source.Span { return h.Span }
func (h *HandlerExpr) String() string        { return "handler { ... }" }
func (h *HandlerExpr) exprNode()             {}

// TryExpr runs Body under Handler, per spec.md §4.1/§4.6 effect rows.
type TryExpr struct {
	Body    *Block
	Handler Expr
	Span    source.Span
}

func (t *TryExpr) Position() source.Span { return t.Span }
func (t *TryExpr) String() string        { return fmt.Sprintf("try %s with %s", t.Body, t.Handler) }
func (t *TryExpr) exprNode()             {}

// CastExpr is `x as T`, the highest-precedence binary-looking form
// (spec.md §4.2: "cast `as`" sits between multiplicative and unary).
type CastExpr struct {
	X    Expr
	Type Ty
	Span source.Span
}

func (c *CastExpr) Position() source.Span { return c.Span }
func (c *CastExpr) String() string        { return fmt.Sprintf("(%s as %s)", c.X, c.Type) }
func (c *CastExpr) exprNode()             {}

// PropagateExpr is the postfix `?` error-propagation operator: it
// unwraps X's Ok/Some payload or returns early with the Err/None case
// (spec.md §4.2 lists `?` among the postfix operators).
type PropagateExpr struct {
	X    Expr
	Span source.Span
}

func (p *PropagateExpr) Position() source.Span { return p.Span }
func (p *PropagateExpr) String() string        { return p.X.String() + "?" }
func (p *PropagateExpr) exprNode()             {}

type ArrayExpr struct {
	Elements []Expr
	Span     source.Span
}

func (a *ArrayExpr) Position() source.Span { return a.Span }
func (a *ArrayExpr) String() string {
	elems := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		elems[i] = e.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}
func (a *ArrayExpr) exprNode() {}

type TupleExpr struct {
	Elements []Expr
	Span     source.Span
}

func (t *TupleExpr) Position() source.Span { return t.Span }
func (t *TupleExpr) String() string {
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.String()
	}
	return "(" + strings.Join(elems, ", ") + ")"
}
func (t *TupleExpr) exprNode() {}

// RangeExpr is `lo..hi` or `lo..=hi` (Inclusive).
type RangeExpr struct {
	Lo        Expr
	Hi        Expr
	Inclusive bool
	Span      source.Span
}

func (r *RangeExpr) Position() source.Span { return r.Span }
func (r *RangeExpr) String() string {
	op := ".."
	if r.Inclusive {
		op = "..="
	}
	return fmt.Sprintf("%s%s%s", r.Lo, op, r.Hi)
}
func (r *RangeExpr) exprNode() {}

// FieldInit is one `name: value` field of a struct or record literal.
type FieldInit struct {
	Name  string
	Value Expr
	Span  source.Span
}

// StructLit constructs a nominal struct value: `Point { x: 1, y: 2 }`.
type StructLit struct {
	Name   string
	Fields []*FieldInit
	Span   source.Span
}

func (s *StructLit) Position() source.Span { return s.Span }
func (s *StructLit) String() string        { return s.Name + " { ... }" }
func (s *StructLit) exprNode()             {}

// RecordLit constructs a structurally-typed row-polymorphic record:
// `{ x: 1, y: 2 }`, with an optional functional-update base
// `{ base | x: 1 }`.
type RecordLit struct {
	Base   Expr // nil if not an update
	Fields []*FieldInit
	Span   source.Span
}

func (r *RecordLit) Position() source.Span { return r.Span }
func (r *RecordLit) String() string {
	fields := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Value)
	}
	if r.Base != nil {
		return fmt.Sprintf("{ %s | %s }", r.Base, strings.Join(fields, ", "))
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}
func (r *RecordLit) exprNode() {}

// EnumLit constructs an enum variant: `Option::Some(1)`.
type EnumLit struct {
	Enum    string // "" when inferred from context
	Variant string
	Args    []Expr
	Span    source.Span
}

func (e *EnumLit) Position() source.Span { return e.Span }
func (e *EnumLit) String() string        { return e.Enum + "::" + e.Variant }
func (e *EnumLit) exprNode()             {}

// ErrorExpr is a parser error-recovery placeholder: the parser
// swallowed malformed input up to a synchronization token and produced
// this node so later phases see a well-formed (if meaningless) tree.
type ErrorExpr struct {
	Msg  string
	Span source.Span
}

func (e *ErrorExpr) Position() source.Span { return e.Span }
func (e *ErrorExpr) String() string        { return "<error: " + e.Msg + ">" }
func (e *ErrorExpr) exprNode()             {}

// ---- Types ----

// NamedType is a path possibly applied to type arguments: `Vec<int>`.
type NamedType struct {
	Path []string
	Args []Ty
	Span source.Span
}

func (n *NamedType) Position() source.Span { return n.Span }
func (n *NamedType) String() string {
	base := strings.Join(n.Path, "::")
	if len(n.Args) == 0 {
		return base
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", base, strings.Join(args, ", "))
}
func (n *NamedType) typeNode() {}

// Ownership qualifies a RefType: owned values move, shared references
// alias immutably, mut references alias uniquely (spec.md §3 "generational references").
type Ownership int

const (
	Owned Ownership = iota
	Shared
	Unique
)

// RefType is `&T` / `&mut T`, a reference to a generational allocation.
type RefType struct {
	Qualifier Ownership
	Elem      Ty
	Span      source.Span
}

func (r *RefType) Position() source.Span { return r.Span }
func (r *RefType) String() string {
	if r.Qualifier == Unique {
		return "&mut " + r.Elem.String()
	}
	return "&" + r.Elem.String()
}
func (r *RefType) typeNode() {}

type ArrayType struct {
	Elem Ty
	Span source.Span
}

func (a *ArrayType) Position() source.Span { return a.Span }
func (a *ArrayType) String() string        { return "[" + a.Elem.String() + "]" }
func (a *ArrayType) typeNode()             {}

type TupleType struct {
	Elements []Ty
	Span     source.Span
}

func (t *TupleType) Position() source.Span { return t.Span }
func (t *TupleType) String() string {
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.String()
	}
	return "(" + strings.Join(elems, ", ") + ")"
}
func (t *TupleType) typeNode() {}

// FnType is a function type with an effect row: `fn(int) -> int ! {IO}`.
type FnType struct {
	Params  []Ty
	Ret     Ty
	Effects *EffectRowSyntax
	Span    source.Span
}

func (f *FnType) Position() source.Span { return f.Span }
func (f *FnType) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("fn(%s) -> %s%s", strings.Join(params, ", "), f.Ret, f.Effects.String())
}
func (f *FnType) typeNode() {}

// RecordTypeExpr is a row-polymorphic record type: `{ x: int, y: int | rho }`.
type RecordTypeExpr struct {
	Fields []*RecordFieldType
	Var    string // row variable name, "" if closed
	Span   source.Span
}

type RecordFieldType struct {
	Name string
	Type Ty
	Span source.Span
}

func (r *RecordTypeExpr) Position() source.Span { return r.Span }
func (r *RecordTypeExpr) String() string {
	fields := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	body := strings.Join(fields, ", ")
	if r.Var != "" {
		body += " | " + r.Var
	}
	return "{ " + body + " }"
}
func (r *RecordTypeExpr) typeNode() {}

// ForallType universally quantifies a type over type parameters,
// surfaced explicitly when a signature needs disambiguation.
type ForallType struct {
	TypeParams []*TypeParam
	Body       Ty
	Span       source.Span
}

func (f *ForallType) Position() source.Span { return f.Span }
func (f *ForallType) String() string        { return "forall " + f.Body.String() }
func (f *ForallType) typeNode()             {}

// ---- Patterns ----

type WildcardPattern struct {
	Span source.Span
}

func (w *WildcardPattern) Position() source.Span { return w.Span }
func (w *WildcardPattern) String() string        { return "_" }
func (w *WildcardPattern) patternNode()           {}

// BindingPattern binds Name, optionally further constrained by Sub
// (an `@`-pattern: `n @ 1..=9`).
type BindingPattern struct {
	Name string
	Sub  Pattern
	Span source.Span
}

func (b *BindingPattern) Position() source.Span { return b.Span }
func (b *BindingPattern) String() string {
	if b.Sub != nil {
		return fmt.Sprintf("%s @ %s", b.Name, b.Sub)
	}
	return b.Name
}
func (b *BindingPattern) patternNode() {}

type TuplePattern struct {
	Elements []Pattern
	Span     source.Span
}

func (t *TuplePattern) Position() source.Span { return t.Span }
func (t *TuplePattern) String() string {
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.String()
	}
	return "(" + strings.Join(elems, ", ") + ")"
}
func (t *TuplePattern) patternNode() {}

// StructPattern matches a nominal struct, e.g. `Point { x, y }`.
type StructPattern struct {
	Name   string
	Fields []*FieldPattern
	Rest   bool
	Span   source.Span
}

type FieldPattern struct {
	Name    string
	Pattern Pattern
	Span    source.Span
}

func (s *StructPattern) Position() source.Span { return s.Span }
func (s *StructPattern) String() string        { return s.Name + " { ... }" }
func (s *StructPattern) patternNode()          {}

// RecordPattern matches a structural row-polymorphic record, with an
// optional `..` rest marker absorbing remaining fields.
type RecordPattern struct {
	Fields []*FieldPattern
	Rest   bool
	Span   source.Span
}

func (r *RecordPattern) Position() source.Span { return r.Span }
func (r *RecordPattern) String() string {
	fields := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Pattern)
	}
	if r.Rest {
		fields = append(fields, "..")
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}
func (r *RecordPattern) patternNode() {}

// EnumPattern matches an enum variant: `Option::Some(x)`.
type EnumPattern struct {
	Enum     string
	Variant  string
	Elements []Pattern
	Span     source.Span
}

func (e *EnumPattern) Position() source.Span { return e.Span }
func (e *EnumPattern) String() string {
	if len(e.Elements) == 0 {
		return e.Enum + "::" + e.Variant
	}
	elems := make([]string, len(e.Elements))
	for i, p := range e.Elements {
		elems[i] = p.String()
	}
	return fmt.Sprintf("%s::%s(%s)", e.Enum, e.Variant, strings.Join(elems, ", "))
}
func (e *EnumPattern) patternNode() {}

// OrPattern matches if any alternative matches: `0 | 1 | 2`. All
// alternatives must bind the same set of names (checked in resolve).
type OrPattern struct {
	Alternatives []Pattern
	Span         source.Span
}

func (o *OrPattern) Position() source.Span { return o.Span }
func (o *OrPattern) String() string {
	alts := make([]string, len(o.Alternatives))
	for i, a := range o.Alternatives {
		alts[i] = a.String()
	}
	return strings.Join(alts, " | ")
}
func (o *OrPattern) patternNode() {}

// RangePattern matches `lo..=hi` (or an open-ended `lo..`/`..hi`).
type RangePattern struct {
	Lo        Expr
	Hi        Expr
	Inclusive bool
	Span      source.Span
}

func (r *RangePattern) Position() source.Span { return r.Span }
func (r *RangePattern) String() string        { return "range pattern" }
func (r *RangePattern) patternNode()          {}

// Program is the root of a fully-loaded compilation: the entry file
// plus every file pulled in transitively by `mod`/`use` resolution
// (populated by internal/loader).
type Program struct {
	Files []*File
}

func (p *Program) String() string {
	if len(p.Files) == 0 {
		return "empty program"
	}
	return p.Files[0].String()
}
