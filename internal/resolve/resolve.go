// Package resolve walks a parsed file, allocates a DefId for every
// top-level and nested definition, and attaches a DefId to every name
// reference (spec.md §4.3). Its output feeds internal/hir, which lowers
// the AST into HIR under the resolved-name environment this package
// produces.
package resolve

import (
	"fmt"
	"strings"

	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/source"
)

// scope is one entry in the resolver's scope stack. Kinds mirror
// spec.md §4.3: module, function, block, impl-item, type-parameters,
// and pattern-binding.
type scope struct {
	parent   *scope
	kind     string
	bindings map[string]defid.ID
}

func newScope(parent *scope, kind string) *scope {
	return &scope{parent: parent, kind: kind, bindings: make(map[string]defid.ID)}
}

func (s *scope) define(name string, id defid.ID) (defid.ID, bool) {
	if prev, ok := s.bindings[name]; ok {
		return prev, false
	}
	s.bindings[name] = id
	return id, true
}

func (s *scope) lookup(name string) (defid.ID, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if id, ok := sc.bindings[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// Result is the resolver's output: every name reference in the file
// mapped to the DefId it resolved to. Nodes not present in Refs either
// didn't need resolution (literals, operators) or failed to resolve (a
// diagnostic was already emitted).
type Result struct {
	Refs map[ast.Node]defid.ID
	// Defs maps each definition-introducing node to its own allocated
	// DefId, so internal/hir can look up a FuncDecl/StructDecl/etc.'s id
	// without re-deriving it.
	Defs map[ast.Node]defid.ID
}

// Resolver attaches DefIds to an already-parsed file. One Resolver
// handles exactly one module. The driver compiles a single file and so
// creates one Resolver, sharing its defid.Registry and diag.Context with
// the later phases.
type Resolver struct {
	Reg    *defid.Registry
	Diags  *diag.Context
	Module string
	file   source.FileID

	result *Result
}

// New creates a Resolver for a module's parsed file.
func New(reg *defid.Registry, diags *diag.Context, module string, file source.FileID) *Resolver {
	return &Resolver{Reg: reg, Diags: diags, Module: module, file: file,
		result: &Result{Refs: make(map[ast.Node]defid.ID), Defs: make(map[ast.Node]defid.ID)}}
}

func (r *Resolver) alloc(parent defid.ID, kind defid.Kind, name string, span source.Span) defid.ID {
	return r.Reg.Alloc(parent, kind, name, r.Module, span.Start, span.End, nil)
}

func (r *Resolver) errorf(code diag.Code, span source.Span, format string, args ...interface{}) {
	r.Diags.Emit(&diag.Report{Severity: diag.SeverityError, Code: code, Span: span,
		Message: fmt.Sprintf(format, args...)})
}

// ResolveFile is the entry point: it registers every top-level item as a
// module-scope binding, then walks each item's body resolving references.
func (r *Resolver) ResolveFile(file *ast.File) *Result {
	mod := newScope(nil, "module")

	// Pass 1: register every item so forward references within the
	// module (a function calling one declared later) resolve.
	for _, it := range file.Items {
		r.declareItem(mod, it)
	}
	// Imports bind aliases into the module scope; unresolved targets are
	// reported but don't block resolution of the rest of the file.
	for _, u := range file.Uses {
		r.declareUse(mod, u)
	}

	// Pass 2: walk bodies.
	for _, it := range file.Items {
		r.resolveItem(mod, it)
	}

	return r.result
}

func (r *Resolver) declareItem(mod *scope, it ast.Item) {
	switch d := it.(type) {
	case *ast.FuncDecl:
		id := r.alloc(0, defid.KindFunc, d.Name, d.Span)
		if _, ok := mod.define(d.Name, id); !ok {
			r.errorf(diag.EResolveDuplicateDef, d.Span, "duplicate definition of %q", d.Name)
		}
		r.result.Defs[d] = id
	case *ast.StructDecl:
		id := r.alloc(0, defid.KindStruct, d.Name, d.Span)
		if _, ok := mod.define(d.Name, id); !ok {
			r.errorf(diag.EResolveDuplicateDef, d.Span, "duplicate definition of %q", d.Name)
		}
		r.result.Defs[d] = id
		for _, v := range d.Fields {
			_ = v
		}
	case *ast.EnumDecl:
		id := r.alloc(0, defid.KindEnum, d.Name, d.Span)
		if _, ok := mod.define(d.Name, id); !ok {
			r.errorf(diag.EResolveDuplicateDef, d.Span, "duplicate definition of %q", d.Name)
		}
		r.result.Defs[d] = id
		for _, v := range d.Variants {
			vid := r.alloc(id, defid.KindEnumVariant, v.Name, v.Span)
			mod.define(d.Name+"::"+v.Name, vid)
			r.result.Defs[v] = vid
		}
	case *ast.EffectDecl:
		id := r.alloc(0, defid.KindEffect, d.Name, d.Span)
		mod.define(d.Name, id)
		r.result.Defs[d] = id
		for _, op := range d.Ops {
			oid := r.alloc(id, defid.KindEffectOp, op.Name, op.Span)
			r.result.Defs[op] = oid
		}
	case *ast.TraitDecl:
		id := r.alloc(0, defid.KindTrait, d.Name, d.Span)
		mod.define(d.Name, id)
		r.result.Defs[d] = id
		for _, m := range d.Methods {
			mid := r.alloc(id, defid.KindTraitMethod, m.Name, m.Span)
			r.result.Defs[m] = mid
		}
	case *ast.ImplDecl:
		id := r.alloc(0, defid.KindImplMethod, d.Trait+" for "+d.ForType.String(), d.Span)
		r.result.Defs[d] = id
		for _, m := range d.Methods {
			mid := r.alloc(id, defid.KindImplMethod, m.Name, m.Span)
			r.result.Defs[m] = mid
		}
	case *ast.ConstDecl:
		id := r.alloc(0, defid.KindConst, d.Name, d.Span)
		mod.define(d.Name, id)
		r.result.Defs[d] = id
	case *ast.StaticDecl:
		id := r.alloc(0, defid.KindStatic, d.Name, d.Span)
		mod.define(d.Name, id)
		r.result.Defs[d] = id
	}
}

func (r *Resolver) declareUse(mod *scope, u *ast.UseDecl) {
	if u.Glob || len(u.Symbols) > 0 {
		// Glob and selective imports require the target module's export
		// table (internal/iface), which isn't available mid-resolve for
		// a single module in isolation; they bind no names here, and no
		// later pass binds them either.
		return
	}
	if len(u.Path) == 0 {
		return
	}
	name := u.Path[len(u.Path)-1]
	// A bare `use a::b;` binds `b` locally with the zero DefId; nothing
	// later replaces it with the dependency's real DefId.
	mod.define(name, 0)
}

func (r *Resolver) resolveItem(mod *scope, it ast.Item) {
	switch d := it.(type) {
	case *ast.FuncDecl:
		r.resolveFunc(mod, d)
	case *ast.ImplDecl:
		implScope := newScope(mod, "impl-item")
		for _, tp := range d.TypeParams {
			implScope.define(tp.Name, r.alloc(0, defid.KindTypeParam, tp.Name, tp.Span))
		}
		for _, m := range d.Methods {
			r.resolveFunc(implScope, m)
		}
	case *ast.TraitDecl:
		for _, m := range d.Methods {
			if m.Default == nil {
				continue
			}
			fscope := newScope(mod, "function")
			if d.TypeParam != "" {
				fscope.define(d.TypeParam, r.alloc(0, defid.KindTypeParam, d.TypeParam, d.Span))
			}
			for _, p := range m.Params {
				r.bindParam(fscope, p)
			}
			r.resolveBlock(fscope, m.Default)
		}
	case *ast.ConstDecl:
		r.resolveExpr(mod, d.Value)
	case *ast.StaticDecl:
		r.resolveExpr(mod, d.Value)
	}
}

func (r *Resolver) resolveFunc(mod *scope, fn *ast.FuncDecl) {
	fscope := newScope(mod, "type-parameters")
	for _, tp := range fn.TypeParams {
		fscope.define(tp.Name, r.alloc(0, defid.KindTypeParam, tp.Name, tp.Span))
	}
	bodyScope := newScope(fscope, "function")
	for _, p := range fn.Params {
		r.bindParam(bodyScope, p)
	}
	r.resolveBlock(bodyScope, fn.Body)
}

func (r *Resolver) bindParam(s *scope, p *ast.Param) {
	r.bindPattern(s, p.Pattern, defid.KindParam)
}

func (r *Resolver) bindPattern(s *scope, pat ast.Pattern, kind defid.Kind) {
	switch p := pat.(type) {
	case *ast.BindingPattern:
		id := r.alloc(0, kind, p.Name, p.Span)
		s.define(p.Name, id)
		r.result.Defs[p] = id
		if p.Sub != nil {
			r.bindPattern(s, p.Sub, kind)
		}
	case *ast.TuplePattern:
		for _, e := range p.Elements {
			r.bindPattern(s, e, kind)
		}
	case *ast.StructPattern:
		for _, f := range p.Fields {
			r.bindPattern(s, f.Pattern, kind)
		}
	case *ast.RecordPattern:
		for _, f := range p.Fields {
			r.bindPattern(s, f.Pattern, kind)
		}
	case *ast.EnumPattern:
		for _, e := range p.Elements {
			r.bindPattern(s, e, kind)
		}
	case *ast.OrPattern:
		for _, alt := range p.Alternatives {
			r.bindPattern(s, alt, kind)
		}
	}
}

func (r *Resolver) resolveBlock(s *scope, b *ast.Block) {
	block := newScope(s, "block")
	for _, stmt := range b.Stmts {
		switch st := stmt.(type) {
		case *ast.LetStmt:
			r.resolveExpr(block, st.Value)
			r.bindPattern(block, st.Pattern, defid.KindLocal)
		case *ast.ExprStmt:
			r.resolveExpr(block, st.X)
		case *ast.ItemStmt:
			r.declareItem(block, st.It)
			r.resolveItem(block, st.It)
		}
	}
	if b.Tail != nil {
		r.resolveExpr(block, b.Tail)
	}
}

func (r *Resolver) resolveExpr(s *scope, e ast.Expr) {
	if e == nil {
		return
	}
	switch x := e.(type) {
	case *ast.Ident:
		r.refer(s, x.Name, x, x.Span)
	case *ast.Path:
		if len(x.Segments) > 0 {
			r.refer(s, x.Segments[0], x, x.Span)
		}
	case *ast.BinaryExpr:
		r.resolveExpr(s, x.Left)
		r.resolveExpr(s, x.Right)
	case *ast.UnaryExpr:
		r.resolveExpr(s, x.X)
	case *ast.AssignExpr:
		r.resolveExpr(s, x.Target)
		r.resolveExpr(s, x.Value)
	case *ast.CallExpr:
		r.resolveExpr(s, x.Callee)
		for _, a := range x.Args {
			r.resolveExpr(s, a)
		}
	case *ast.MethodCallExpr:
		r.resolveExpr(s, x.Receiver)
		for _, a := range x.Args {
			r.resolveExpr(s, a)
		}
	case *ast.FieldExpr:
		r.resolveExpr(s, x.X)
	case *ast.IndexExpr:
		r.resolveExpr(s, x.X)
		r.resolveExpr(s, x.Index)
	case *ast.Block:
		r.resolveBlock(s, x)
	case *ast.IfExpr:
		r.resolveExpr(s, x.Cond)
		r.resolveBlock(s, x.Then)
		r.resolveExpr(s, x.Else)
	case *ast.WhileExpr:
		r.resolveExpr(s, x.Cond)
		r.resolveBlock(s, x.Body)
	case *ast.ForExpr:
		r.resolveExpr(s, x.Iter)
		loopScope := newScope(s, "block")
		r.bindPattern(loopScope, x.Pattern, defid.KindLocal)
		r.resolveBlock(loopScope, x.Body)
	case *ast.LoopExpr:
		r.resolveBlock(s, x.Body)
	case *ast.BreakExpr:
		r.resolveExpr(s, x.Value)
	case *ast.ReturnExpr:
		r.resolveExpr(s, x.Value)
	case *ast.MatchExpr:
		r.resolveExpr(s, x.Scrutinee)
		for _, arm := range x.Arms {
			armScope := newScope(s, "pattern-binding")
			r.bindPattern(armScope, arm.Pattern, defid.KindLocal)
			r.resolveExpr(armScope, arm.Guard)
			r.resolveExpr(armScope, arm.Body)
		}
	case *ast.ClosureExpr:
		cscope := newScope(s, "function")
		for _, p := range x.Params {
			r.bindParam(cscope, p)
		}
		r.resolveExpr(cscope, x.Body)
	case *ast.PerformExpr:
		for _, a := range x.Args {
			r.resolveExpr(s, a)
		}
	case *ast.ResumeExpr:
		r.resolveExpr(s, x.Value)
	case *ast.HandlerExpr:
		for _, arm := range x.Arms {
			hscope := newScope(s, "function")
			for _, p := range arm.Params {
				r.bindParam(hscope, p)
			}
			r.resolveExpr(hscope, arm.Body)
		}
	case *ast.TryExpr:
		r.resolveBlock(s, x.Body)
		r.resolveExpr(s, x.Handler)
	case *ast.ArrayExpr:
		for _, el := range x.Elements {
			r.resolveExpr(s, el)
		}
	case *ast.TupleExpr:
		for _, el := range x.Elements {
			r.resolveExpr(s, el)
		}
	case *ast.RangeExpr:
		r.resolveExpr(s, x.Lo)
		r.resolveExpr(s, x.Hi)
	case *ast.StructLit:
		for _, f := range x.Fields {
			r.resolveExpr(s, f.Value)
		}
	case *ast.RecordLit:
		r.resolveExpr(s, x.Base)
		for _, f := range x.Fields {
			r.resolveExpr(s, f.Value)
		}
	case *ast.EnumLit:
		for _, a := range x.Args {
			r.resolveExpr(s, a)
		}
	case *ast.CastExpr:
		r.resolveExpr(s, x.X)
	case *ast.PropagateExpr:
		r.resolveExpr(s, x.X)
	}
}

func (r *Resolver) refer(s *scope, name string, node ast.Node, span source.Span) {
	if strings.HasPrefix(name, "_") {
		return
	}
	id, ok := s.lookup(name)
	if !ok {
		r.errorf(diag.EResolveUnresolvedName, span, "unresolved name %q", name)
		return
	}
	if id != 0 {
		r.result.Refs[node] = id
	}
}
