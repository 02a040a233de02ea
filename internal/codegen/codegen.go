// Package codegen emits LLVM 18 IR text from a lowered mir.Program
// (spec.md §4.7). It follows the corpus's buffer-emission idiom
// (other_examples/.../mir2llvm-generator.go.go: a strings.Builder, an
// `emit` line helper, and a sequence of emit* passes for the module
// header, runtime declarations, type definitions, functions, and finally
// the deduplicated string table) but walks blood's own MIR shape —
// Local/BasicBlock/Statement/Terminator/Rvalue/Place — rather than the
// grounding file's Value/BasicBlock/Function model.
//
// Every non-temporary value lives in a stack slot: each mir.Local gets
// an `alloca` at function entry, Copy/Move operands `load` from a
// place's address, and Assign statements `store` back into it. This
// matches spec.md §4.7's "Copy(Place) emits load from the place's
// address" literally, at the cost of leaving SSA-form register
// allocation to a later optimization pass (not part of this tier).
package codegen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/hir"
	"github.com/jkindrix/blood/internal/mir"
	"github.com/jkindrix/blood/internal/types"
)

type pendingFunc struct {
	name string
	body *mir.Body
}

// Generator lowers one blood.Program's HIR (for names and type
// definitions) and MIR (for function bodies) into LLVM IR text.
type Generator struct {
	hirProg *hir.Program
	mirProg *mir.Program

	out strings.Builder

	structsByName map[string]*hir.StructDef
	enumsByName   map[string]*hir.EnumDef
	fnNameByID    map[defid.ID]string
	fnIDByName    map[string]defid.ID
	effectIDs     map[string]int

	strTable map[string]string
	strOrder []string

	regCount   int
	labelCount int

	handlerCount        int
	pendingHandlerFuncs []pendingFunc
	pendingHandlerDescs []string
}

// New builds a Generator over a fully-typed hir.Program and its
// corresponding lowered mir.Program.
func New(hirProg *hir.Program, mirProg *mir.Program) *Generator {
	g := &Generator{
		hirProg:       hirProg,
		mirProg:       mirProg,
		structsByName: make(map[string]*hir.StructDef),
		enumsByName:   make(map[string]*hir.EnumDef),
		fnNameByID:    make(map[defid.ID]string),
		fnIDByName:    make(map[string]defid.ID),
		strTable:      make(map[string]string),
	}
	for _, s := range hirProg.Structs {
		g.structsByName[s.Name] = s
	}
	for _, e := range hirProg.Enums {
		g.enumsByName[e.Name] = e
	}
	for id, fn := range hirProg.Funcs {
		g.fnNameByID[id] = fn.Name
		g.fnIDByName[fn.Name] = id
	}
	return g
}

func (g *Generator) emit(line string) {
	g.out.WriteString(line)
	g.out.WriteByte('\n')
}

func (g *Generator) emitf(format string, args ...interface{}) {
	g.emit(fmt.Sprintf(format, args...))
}

// Generate lowers the whole program into LLVM IR text.
func (g *Generator) Generate() string {
	g.emitHeader()
	g.emitRuntimeDeclarations()
	g.emitTypeDefinitions()

	ids := sortedFuncIDs(g.mirProg.Funcs)
	for _, id := range ids {
		g.emitFunction(g.mangleFunc(id), g.mirProg.Funcs[id])
	}
	for i, body := range g.mirProg.Closures {
		g.emitFunction(fmt.Sprintf("closure%d", i), body)
	}
	for len(g.pendingHandlerFuncs) > 0 {
		pf := g.pendingHandlerFuncs[0]
		g.pendingHandlerFuncs = g.pendingHandlerFuncs[1:]
		g.emitFunction(pf.name, pf.body)
	}

	g.emitHandlerDescriptors()
	g.emitStringTable()
	return g.out.String()
}

func (g *Generator) emitHeader() {
	g.emit("; ModuleID = 'blood'")
	g.emit(`source_filename = "blood"`)
	g.emit(`target triple = "x86_64-unknown-linux-gnu"`)
	g.emit("")
}

// emitRuntimeDeclarations declares the runtime shims spec.md §6 names.
func (g *Generator) emitRuntimeDeclarations() {
	g.emit("; runtime declarations (spec.md §6)")
	g.emit("declare ptr @blood_alloc(i64)")
	g.emit("declare void @blood_free(ptr)")
	g.emit("declare ptr @blood_region_alloc(ptr, i64)")
	g.emit("declare void @blood_push_handler(i32, ptr)")
	g.emit("declare void @blood_pop_handler()")
	g.emit("declare i64 @blood_perform(i32, i32, ...)")
	g.emit("declare i64 @blood_resume(ptr, i64)")
	g.emit("declare void @blood_panic(ptr, i64)")
	g.emit("declare i32 @puts(ptr)")
	g.emit("declare void @llvm.trap()")
	for _, w := range []string{"i32", "i64"} {
		for _, op := range []string{"sadd", "ssub", "smul"} {
			g.emitf("declare {%s, i1} @llvm.%s.with.overflow.%s(%s, %s)", w, op, w, w, w)
		}
	}
	g.emit("")
}

func (g *Generator) emitTypeDefinitions() {
	if len(g.hirProg.Structs) > 0 {
		g.emit("; struct definitions")
		for _, id := range sortedStructIDs(g.hirProg.Structs) {
			s := g.hirProg.Structs[id]
			fields := make([]string, len(s.Fields))
			for i, f := range s.Fields {
				fields[i] = g.llvmType(f.Type)
			}
			g.emitf("%%struct.%s = type { %s }", s.Name, strings.Join(fields, ", "))
		}
		g.emit("")
	}
	if len(g.hirProg.Enums) > 0 {
		g.emit("; enum definitions — tag plus an i64-unit payload slab sized")
		g.emit("; to the largest variant (spec.md §4.7)")
		for _, id := range sortedEnumIDs(g.hirProg.Enums) {
			e := g.hirProg.Enums[id]
			max := 0
			for _, v := range e.Variants {
				if len(v.Fields) > max {
					max = len(v.Fields)
				}
			}
			g.emitf("%%enum.%s = type { i32, [%d x i64] }", e.Name, max)
		}
		g.emit("")
	}
}

// ---- function emission ----

func (g *Generator) emitFunction(name string, body *mir.Body) {
	g.regCount = 0
	g.labelCount = 0

	retTy := "void"
	if body.ReturnLocal >= 0 && body.ReturnLocal < len(body.Locals) {
		retTy = g.llvmType(body.Locals[body.ReturnLocal].Ty)
	}

	params := make([]string, 0, body.ArgCount)
	argIdx := 0
	for _, l := range body.Locals {
		if l.Kind == mir.LocalArg {
			params = append(params, fmt.Sprintf("%s %%arg%d", g.llvmType(l.Ty), argIdx))
			argIdx++
		}
	}

	g.emitf("define %s @%s(%s) {", retTy, name, strings.Join(params, ", "))
	g.emit("entry:")
	for i, l := range body.Locals {
		g.emitf("  %%local.%d = alloca %s", i, g.llvmType(l.Ty))
	}
	argIdx = 0
	for i, l := range body.Locals {
		if l.Kind == mir.LocalArg {
			g.emitf("  store %s %%arg%d, ptr %%local.%d", g.llvmType(l.Ty), argIdx, i)
			argIdx++
		}
	}
	if len(body.Blocks) > 0 {
		g.emit("  br label %bb0")
	}

	for bi, block := range body.Blocks {
		g.emitf("bb%d:", bi)
		for _, stmt := range block.Statements {
			g.emitStatement(body, stmt)
		}
		g.emitTerminator(body, block.Terminator)
	}
	g.emit("}")
	g.emit("")
}

func (g *Generator) emitStatement(body *mir.Body, stmt mir.Statement) {
	switch s := stmt.(type) {
	case mir.Assign:
		ptr, ty := g.placeAddr(body, s.Place)
		val := g.genRvalue(body, s.Rvalue, ty)
		g.emitf("  store %s %s, ptr %s", g.llvmType(ty), val, ptr)
	case mir.StorageLive, mir.StorageDead:
		// Every local already owns a function-lifetime alloca; liveness
		// bracketing is consumed by the MIR validator, not this codegen
		// tier, so these markers are no-ops here.
	case mir.PushHandler:
		g.emitPushHandler(s.Descriptor)
	case mir.PopHandler:
		g.emit("  call void @blood_pop_handler()")
	}
}

func (g *Generator) emitPushHandler(desc *mir.HandlerDescriptor) {
	handlerID := g.handlerCount
	g.handlerCount++

	opNames := make([]string, 0, len(desc.Ops))
	for op := range desc.Ops {
		opNames = append(opNames, op)
	}
	sort.Strings(opNames)
	for _, op := range opNames {
		fnName := fmt.Sprintf("handler%d_%s_%s", handlerID, desc.Effect, op)
		g.pendingHandlerFuncs = append(g.pendingHandlerFuncs, pendingFunc{name: fnName, body: desc.Ops[op]})
	}
	if desc.ReturnOp != nil {
		fnName := fmt.Sprintf("handler%d_%s_return", handlerID, desc.Effect)
		g.pendingHandlerFuncs = append(g.pendingHandlerFuncs, pendingFunc{name: fnName, body: desc.ReturnOp})
	}

	descGlobal := fmt.Sprintf("@handler.desc.%d", handlerID)
	g.pendingHandlerDescs = append(g.pendingHandlerDescs, descGlobal)
	g.emitf("  call void @blood_push_handler(i32 %d, ptr %s)", g.effectID(desc.Effect), descGlobal)
}

// emitHandlerDescriptors emits a placeholder global per pushed handler.
// The global holds only the handler's index; it carries no per-op
// function pointers.
func (g *Generator) emitHandlerDescriptors() {
	if len(g.pendingHandlerDescs) == 0 {
		return
	}
	g.emit("; handler descriptors (spec.md §4.6, §4.7)")
	for i, name := range g.pendingHandlerDescs {
		g.emitf("%s = private constant i32 %d", name, i)
	}
	g.emit("")
}

func (g *Generator) emitTerminator(body *mir.Body, term mir.Terminator) {
	switch t := term.(type) {
	case mir.Goto:
		g.emitf("  br label %%bb%d", t.Target)

	case mir.SwitchInt:
		val, ty := g.genOperand(body, t.Discriminant)
		keys := make([]interface{}, 0, len(t.Targets))
		for k := range t.Targets {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
		enumDef := g.enumForVariantKeys(keys)
		llty := g.llvmType(ty)
		if enumDef != nil {
			llty = "i32"
		}
		g.emitf("  switch %s %s, label %%bb%d [", llty, val, t.Fallback)
		for _, k := range keys {
			g.emitf("    %s %s, label %%bb%d", llty, switchKeyLiteral(k, enumDef), t.Targets[k])
		}
		g.emit("  ]")

	case mir.Return:
		if body.ReturnLocal < 0 || body.ReturnLocal >= len(body.Locals) {
			g.emit("  ret void")
			return
		}
		retTy := g.llvmType(body.Locals[body.ReturnLocal].Ty)
		reg := g.nextReg()
		g.emitf("  %s = load %s, ptr %%local.%d", reg, retTy, body.ReturnLocal)
		g.emitf("  ret %s %s", retTy, reg)

	case mir.Unreachable:
		g.emit("  unreachable")

	case mir.Call:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			v, vty := g.genOperand(body, a)
			args[i] = fmt.Sprintf("%s %s", g.llvmType(vty), v)
		}
		destTy := g.destType(body, t.Destination)
		callExpr := fmt.Sprintf("call %s %s(%s)", destTy, g.calleeSymbol(t.Func), strings.Join(args, ", "))
		g.emitCallResult(body, t.Destination, callExpr)
		g.emitf("  br label %%bb%d", t.Next)

	case mir.Perform:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			v, vty := g.genOperand(body, a)
			args[i] = fmt.Sprintf("%s %s", g.llvmType(vty), v)
		}
		allArgs := append([]string{
			fmt.Sprintf("i32 %d", g.effectID(t.Effect)),
			fmt.Sprintf("i32 %d", g.opID(t.Effect, t.Op)),
		}, args...)
		reg := g.nextReg()
		g.emitf("  %s = call i64 @blood_perform(%s)", reg, strings.Join(allArgs, ", "))
		g.emitf("  store i64 %s, ptr %%local.%d", reg, t.ResumeLocal)
		g.emitf("  br label %%bb%d", t.ResumeTarget)

	case mir.Assert:
		cond, _ := g.genOperand(body, t.Cond)
		trap := g.nextLabel("assertfail")
		g.emitf("  br i1 %s, label %%bb%d, label %%%s", cond, t.Next, trap)
		g.emitf("%s:", trap)
		g.emitPanic(t.Msg)
	}
}

func (g *Generator) emitPanic(msg string) {
	name := g.internString(msg)
	ptr := g.nextReg()
	g.emitf("  %s = getelementptr inbounds [%d x i8], ptr %s, i64 0, i64 0", ptr, len(msg)+1, name)
	g.emitf("  call void @blood_panic(ptr %s, i64 %d)", ptr, len(msg))
	g.emit("  call void @llvm.trap()")
	g.emit("  unreachable")
}

func (g *Generator) emitCallResult(body *mir.Body, dest mir.Destination, callExpr string) {
	switch d := dest.(type) {
	case mir.DestIgnore:
		g.emitf("  %s", callExpr)
	case mir.DestReturn:
		reg := g.nextReg()
		g.emitf("  %s = %s", reg, callExpr)
		g.emitf("  store %s %s, ptr %%local.%d", g.llvmType(body.Locals[body.ReturnLocal].Ty), reg, body.ReturnLocal)
	case mir.DestLocal:
		reg := g.nextReg()
		g.emitf("  %s = %s", reg, callExpr)
		g.emitf("  store %s %s, ptr %%local.%d", g.llvmType(body.Locals[d.Local].Ty), reg, d.Local)
	case mir.DestSubPlace:
		reg := g.nextReg()
		g.emitf("  %s = %s", reg, callExpr)
		ptr, ty := g.placeAddr(body, d.Place)
		g.emitf("  store %s %s, ptr %s", g.llvmType(ty), reg, ptr)
	}
}

func (g *Generator) destType(body *mir.Body, dest mir.Destination) string {
	switch d := dest.(type) {
	case mir.DestLocal:
		return g.llvmType(body.Locals[d.Local].Ty)
	case mir.DestReturn:
		return g.llvmType(body.Locals[body.ReturnLocal].Ty)
	case mir.DestSubPlace:
		return g.llvmType(g.placeType(body, d.Place))
	case mir.DestIgnore:
		return "void"
	}
	return "void"
}

// calleeSymbol resolves a Call terminator's bare or pre-mangled Func
// name into an LLVM global symbol. hir.Resume already produces
// "@blood_resume"; ordinary calls carry a surface name that either
// names a known blood function (mangled through mangleFunc) or an
// external/builtin runtime symbol (passed through as "@name").
func (g *Generator) calleeSymbol(name string) string {
	if strings.HasPrefix(name, "@") {
		return name
	}
	if id, ok := g.fnIDByName[name]; ok {
		return "@" + g.mangleFunc(id)
	}
	return "@" + name
}

func (g *Generator) mangleFunc(id defid.ID) string {
	return fmt.Sprintf("def%d_%s", id, g.fnNameByID[id])
}

func (g *Generator) effectID(name string) int {
	if g.effectIDs == nil {
		g.effectIDs = make(map[string]int)
		names := make([]string, 0, len(g.hirProg.Effects))
		for _, e := range g.hirProg.Effects {
			names = append(names, e.Name)
		}
		sort.Strings(names)
		for i, n := range names {
			g.effectIDs[n] = i
		}
	}
	return g.effectIDs[name]
}

func (g *Generator) opID(effect, op string) int {
	for _, e := range g.hirProg.Effects {
		if e.Name != effect {
			continue
		}
		for i, o := range e.Ops {
			if o.Name == op {
				return i
			}
		}
	}
	return 0
}

func (g *Generator) enumForVariantKeys(keys []interface{}) *hir.EnumDef {
	for _, e := range g.hirProg.Enums {
		match := true
		for _, k := range keys {
			name, ok := k.(string)
			if !ok {
				match = false
				break
			}
			found := false
			for _, v := range e.Variants {
				if v.Name == name {
					found = true
					break
				}
			}
			if !found {
				match = false
				break
			}
		}
		if match {
			return e
		}
	}
	return nil
}

func switchKeyLiteral(k interface{}, enumDef *hir.EnumDef) string {
	switch v := k.(type) {
	case string:
		if enumDef != nil {
			for i, variant := range enumDef.Variants {
				if variant.Name == v {
					return strconv.Itoa(i)
				}
			}
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return "0"
	}
}

func (g *Generator) nextReg() string {
	g.regCount++
	return fmt.Sprintf("%%v%d", g.regCount)
}

func (g *Generator) nextLabel(prefix string) string {
	g.labelCount++
	return fmt.Sprintf("%s%d", prefix, g.labelCount)
}

func sortedFuncIDs(m map[defid.ID]*mir.Body) []defid.ID {
	ids := make([]defid.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedStructIDs(m map[defid.ID]*hir.StructDef) []defid.ID {
	ids := make([]defid.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedEnumIDs(m map[defid.ID]*hir.EnumDef) []defid.ID {
	ids := make([]defid.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ---- type mapping (spec.md §4.7) ----

func (g *Generator) llvmType(ty types.Ty) string {
	switch t := ty.(type) {
	case *types.TCon:
		switch t.Name {
		case "i8", "u8":
			return "i8"
		case "i16", "u16":
			return "i16"
		case "i32", "u32":
			return "i32"
		case "i64", "u64":
			return "i64"
		case "f32":
			return "float"
		case "f64":
			return "double"
		case "bool":
			return "i1"
		case "char":
			return "i32"
		case "()":
			return "{}"
		case "String":
			return "{ptr, i64}"
		default:
			if _, ok := g.structsByName[t.Name]; ok {
				return "%struct." + t.Name
			}
			if _, ok := g.enumsByName[t.Name]; ok {
				return "%enum." + t.Name
			}
			return "i64"
		}
	case *types.TApp:
		return "{ptr, i64}"
	case *types.TTuple:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = g.llvmType(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *types.TArray:
		return "{ptr, i64}"
	case *types.TRecord:
		names := make([]string, 0, len(t.Fields))
		for n := range t.Fields {
			names = append(names, n)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = g.llvmType(t.Fields[n])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *types.TRef:
		return "ptr"
	case *types.TFunc:
		return "ptr"
	case *types.TForall:
		return g.llvmType(t.Body)
	case *types.TErr:
		return "i64"
	case *types.TVar:
		// Monomorphization is assumed complete by the time MIR reaches
		// codegen; an unresolved type variable here falls back to a
		// word-sized slot rather than failing emission outright.
		return "i64"
	default:
		return "i64"
	}
}

func isFloatType(ty types.Ty) bool {
	if f, ok := ty.(*types.TForall); ok {
		return isFloatType(f.Body)
	}
	if c, ok := ty.(*types.TCon); ok {
		return c.Name == "f32" || c.Name == "f64"
	}
	return false
}

func llvmBitWidth(llty string) int {
	switch llty {
	case "float":
		return 32
	case "double":
		return 64
	}
	if strings.HasPrefix(llty, "i") {
		if n, err := strconv.Atoi(llty[1:]); err == nil {
			return n
		}
	}
	return 64
}

// ---- place resolution ----

func (g *Generator) fieldTypeOf(base types.Ty, proj mir.FieldProj) types.Ty {
	switch t := base.(type) {
	case *types.TTuple:
		if proj.Index < len(t.Elements) {
			return t.Elements[proj.Index]
		}
	case *types.TRecord:
		if proj.Name != "" {
			if ft, ok := t.Fields[proj.Name]; ok {
				return ft
			}
		}
	case *types.TCon:
		if sd, ok := g.structsByName[t.Name]; ok && proj.Index < len(sd.Fields) {
			return sd.Fields[proj.Index].Type
		}
	}
	return types.I64
}

func elementTypeOf(base types.Ty) types.Ty {
	if a, ok := base.(*types.TArray); ok {
		return a.Elem
	}
	return types.I64
}

func derefTypeOf(base types.Ty) types.Ty {
	if r, ok := base.(*types.TRef); ok {
		return r.Elem
	}
	return base
}

// variantTypeOf models a downcast as a synthetic tuple of the named
// variant's field types, so a following FieldProj indexes it the same
// way it would index any other tuple place.
func (g *Generator) variantTypeOf(base types.Ty, variant string) types.Ty {
	if c, ok := base.(*types.TCon); ok {
		if ed, ok := g.enumsByName[c.Name]; ok {
			for _, v := range ed.Variants {
				if v.Name == variant {
					return &types.TTuple{Elements: v.Fields}
				}
			}
		}
	}
	return types.I64
}

// placeAddr walks a Place's projection chain, emitting the
// getelementptr/load sequence needed to resolve its address, and
// returns that address alongside the place's resolved type.
func (g *Generator) placeAddr(body *mir.Body, p mir.Place) (string, types.Ty) {
	addr := fmt.Sprintf("%%local.%d", p.Local)
	curTy := body.Locals[p.Local].Ty

	for _, proj := range p.Projections {
		switch pr := proj.(type) {
		case mir.FieldProj:
			fieldTy := g.fieldTypeOf(curTy, pr)
			reg := g.nextReg()
			g.emitf("  %s = getelementptr inbounds %s, ptr %s, i32 0, i32 %d", reg, g.llvmType(curTy), addr, pr.Index)
			addr, curTy = reg, fieldTy

		case mir.IndexProj:
			elemTy := elementTypeOf(curTy)
			ptrFieldPtr := g.nextReg()
			g.emitf("  %s = getelementptr inbounds %s, ptr %s, i32 0, i32 0", ptrFieldPtr, g.llvmType(curTy), addr)
			dataPtr := g.nextReg()
			g.emitf("  %s = load ptr, ptr %s", dataPtr, ptrFieldPtr)
			idx := g.nextReg()
			g.emitf("  %s = load i64, ptr %%local.%d", idx, pr.IndexLocal)
			elemAddr := g.nextReg()
			g.emitf("  %s = getelementptr inbounds %s, ptr %s, i64 %s", elemAddr, g.llvmType(elemTy), dataPtr, idx)
			addr, curTy = elemAddr, elemTy

		case mir.DerefProj:
			loaded := g.nextReg()
			g.emitf("  %s = load ptr, ptr %s", loaded, addr)
			addr, curTy = loaded, derefTypeOf(curTy)

		case mir.DowncastProj:
			variantTy := g.variantTypeOf(curTy, pr.Variant)
			reg := g.nextReg()
			g.emitf("  %s = getelementptr inbounds %s, ptr %s, i32 0, i32 1", reg, g.llvmType(curTy), addr)
			addr, curTy = reg, variantTy
		}
	}
	return addr, curTy
}

func (g *Generator) placeType(body *mir.Body, p mir.Place) types.Ty {
	ty := body.Locals[p.Local].Ty
	for _, proj := range p.Projections {
		switch pr := proj.(type) {
		case mir.FieldProj:
			ty = g.fieldTypeOf(ty, pr)
		case mir.IndexProj:
			ty = elementTypeOf(ty)
		case mir.DerefProj:
			ty = derefTypeOf(ty)
		case mir.DowncastProj:
			ty = g.variantTypeOf(ty, pr.Variant)
		}
	}
	return ty
}

// ---- operands and rvalues ----

func (g *Generator) genOperand(body *mir.Body, op mir.Operand) (string, types.Ty) {
	switch o := op.(type) {
	case mir.CopyOperand:
		addr, ty := g.placeAddr(body, o.Place)
		reg := g.nextReg()
		g.emitf("  %s = load %s, ptr %s", reg, g.llvmType(ty), addr)
		return reg, ty
	case mir.MoveOperand:
		addr, ty := g.placeAddr(body, o.Place)
		reg := g.nextReg()
		g.emitf("  %s = load %s, ptr %s", reg, g.llvmType(ty), addr)
		return reg, ty
	case mir.ConstantOperand:
		return g.constantLiteral(o), o.Ty
	}
	return "0", types.I64
}

func (g *Generator) constantLiteral(o mir.ConstantOperand) string {
	switch t := o.Ty.(type) {
	case *types.TCon:
		switch t.Name {
		case "bool":
			if b, ok := o.Value.(bool); ok && b {
				return "1"
			}
			return "0"
		case "f32", "f64":
			f, _ := toFloat64(o.Value)
			return strconv.FormatFloat(f, 'g', -1, 64)
		case "String":
			s, _ := o.Value.(string)
			name := g.internString(s)
			return fmt.Sprintf("{ptr %s, i64 %d}", name, len(s))
		case "char":
			switch v := o.Value.(type) {
			case rune:
				return strconv.Itoa(int(v))
			case int32:
				return strconv.Itoa(int(v))
			case int:
				return strconv.Itoa(v)
			}
			return "0"
		default:
			n, _ := toInt64(o.Value)
			return strconv.FormatInt(n, 10)
		}
	case *types.TRef:
		return "null"
	default:
		n, _ := toInt64(o.Value)
		return strconv.FormatInt(n, 10)
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case uint64:
		return int64(x), true
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func (g *Generator) genRvalue(body *mir.Body, rv mir.Rvalue, destTy types.Ty) string {
	switch r := rv.(type) {
	case mir.Use:
		v, _ := g.genOperand(body, r.Operand)
		return v
	case mir.BinOp:
		l, lty := g.genOperand(body, r.L)
		rr, _ := g.genOperand(body, r.R)
		return g.emitBinOp(r.Op, l, rr, lty)
	case mir.CheckedBinOp:
		l, lty := g.genOperand(body, r.L)
		rr, _ := g.genOperand(body, r.R)
		return g.emitCheckedBinOp(r.Op, l, rr, lty)
	case mir.UnaryOp:
		v, vty := g.genOperand(body, r.Operand)
		return g.emitUnaryOp(r.Op, v, vty)
	case mir.Ref:
		addr, _ := g.placeAddr(body, r.Place)
		return addr
	case mir.Cast:
		v, srcTy := g.genOperand(body, r.Operand)
		return g.emitCast(v, srcTy, r.Target)
	case mir.Discriminant:
		addr, ty := g.placeAddr(body, r.Place)
		tagPtr := g.nextReg()
		g.emitf("  %s = getelementptr inbounds %s, ptr %s, i32 0, i32 0", tagPtr, g.llvmType(ty), addr)
		reg := g.nextReg()
		g.emitf("  %s = load i32, ptr %s", reg, tagPtr)
		return reg
	case mir.Aggregate:
		return g.genAggregate(body, r)
	}
	_ = destTy
	return "0"
}

func intPred(op string) string {
	switch op {
	case "==":
		return "eq"
	case "!=":
		return "ne"
	case "<":
		return "slt"
	case "<=":
		return "sle"
	case ">":
		return "sgt"
	case ">=":
		return "sge"
	}
	return "eq"
}

func floatPred(op string) string {
	switch op {
	case "==":
		return "oeq"
	case "!=":
		return "one"
	case "<":
		return "olt"
	case "<=":
		return "ole"
	case ">":
		return "ogt"
	case ">=":
		return "oge"
	}
	return "oeq"
}

func (g *Generator) emitBinOp(op, l, r string, ty types.Ty) string {
	llty := g.llvmType(ty)
	float := isFloatType(ty)
	reg := g.nextReg()
	switch op {
	case "+":
		instr := "add"
		if float {
			instr = "fadd"
		}
		g.emitf("  %s = %s %s %s, %s", reg, instr, llty, l, r)
	case "-":
		instr := "sub"
		if float {
			instr = "fsub"
		}
		g.emitf("  %s = %s %s %s, %s", reg, instr, llty, l, r)
	case "*":
		instr := "mul"
		if float {
			instr = "fmul"
		}
		g.emitf("  %s = %s %s %s, %s", reg, instr, llty, l, r)
	case "/":
		instr := "sdiv"
		if float {
			instr = "fdiv"
		}
		g.emitf("  %s = %s %s %s, %s", reg, instr, llty, l, r)
	case "%":
		instr := "srem"
		if float {
			instr = "frem"
		}
		g.emitf("  %s = %s %s %s, %s", reg, instr, llty, l, r)
	case "&", "&&":
		g.emitf("  %s = and %s %s, %s", reg, llty, l, r)
	case "|", "||":
		g.emitf("  %s = or %s %s, %s", reg, llty, l, r)
	case "^":
		g.emitf("  %s = xor %s %s, %s", reg, llty, l, r)
	case "<<":
		g.emitf("  %s = shl %s %s, %s", reg, llty, l, r)
	case ">>":
		g.emitf("  %s = ashr %s %s, %s", reg, llty, l, r)
	case "==", "!=", "<", "<=", ">", ">=":
		if float {
			g.emitf("  %s = fcmp %s %s %s, %s", reg, floatPred(op), llty, l, r)
		} else {
			g.emitf("  %s = icmp %s %s %s, %s", reg, intPred(op), llty, l, r)
		}
	default:
		g.emitf("  %s = add %s %s, %s", reg, llty, l, r)
	}
	return reg
}

// emitCheckedBinOp expands a checked signed arithmetic op into its
// llvm.{sadd,ssub,smul}.with.overflow intrinsic and a trap block on
// overflow (spec.md §4.6). Only i32/i64 operands get the checked form;
// every other width or operator falls back to emitBinOp, matching the
// overflow-intrinsic declarations this generator actually emits.
func (g *Generator) emitCheckedBinOp(op, l, r string, ty types.Ty) string {
	llty := g.llvmType(ty)
	intrinsic, ok := map[string]string{"+": "sadd", "-": "ssub", "*": "smul"}[op]
	if !ok || isFloatType(ty) || (llty != "i32" && llty != "i64") {
		return g.emitBinOp(op, l, r, ty)
	}

	structTy := fmt.Sprintf("{%s, i1}", llty)
	structReg := g.nextReg()
	g.emitf("  %s = call %s @llvm.%s.with.overflow.%s(%s %s, %s %s)", structReg, structTy, intrinsic, llty, llty, l, llty, r)
	valReg := g.nextReg()
	g.emitf("  %s = extractvalue %s %s, 0", valReg, structTy, structReg)
	overflowReg := g.nextReg()
	g.emitf("  %s = extractvalue %s %s, 1", overflowReg, structTy, structReg)

	trapLabel := g.nextLabel("overflow")
	contLabel := g.nextLabel("cont")
	g.emitf("  br i1 %s, label %%%s, label %%%s", overflowReg, trapLabel, contLabel)
	g.emitf("%s:", trapLabel)
	g.emitPanic("integer overflow")
	g.emitf("%s:", contLabel)
	return valReg
}

func (g *Generator) emitUnaryOp(op, v string, ty types.Ty) string {
	llty := g.llvmType(ty)
	reg := g.nextReg()
	switch op {
	case "-":
		if isFloatType(ty) {
			g.emitf("  %s = fneg %s %s", reg, llty, v)
		} else {
			g.emitf("  %s = sub %s 0, %s", reg, llty, v)
		}
	case "!":
		g.emitf("  %s = xor %s %s, 1", reg, llty, v)
	case "~":
		g.emitf("  %s = xor %s %s, -1", reg, llty, v)
	default:
		return v
	}
	return reg
}

func (g *Generator) emitCast(v string, srcTy, dstTy types.Ty) string {
	srcLL := g.llvmType(srcTy)
	dstLL := g.llvmType(dstTy)
	if srcLL == dstLL {
		return v
	}
	srcFloat, dstFloat := isFloatType(srcTy), isFloatType(dstTy)
	reg := g.nextReg()
	switch {
	case srcFloat && dstFloat:
		if llvmBitWidth(dstLL) > llvmBitWidth(srcLL) {
			g.emitf("  %s = fpext %s %s to %s", reg, srcLL, v, dstLL)
		} else {
			g.emitf("  %s = fptrunc %s %s to %s", reg, srcLL, v, dstLL)
		}
	case srcFloat && !dstFloat:
		g.emitf("  %s = fptosi %s %s to %s", reg, srcLL, v, dstLL)
	case !srcFloat && dstFloat:
		g.emitf("  %s = sitofp %s %s to %s", reg, srcLL, v, dstLL)
	default:
		if llvmBitWidth(dstLL) > llvmBitWidth(srcLL) {
			g.emitf("  %s = sext %s %s to %s", reg, srcLL, v, dstLL)
		} else if llvmBitWidth(dstLL) < llvmBitWidth(srcLL) {
			g.emitf("  %s = trunc %s %s to %s", reg, srcLL, v, dstLL)
		} else {
			return v
		}
	}
	return reg
}

// ---- aggregates ----

func arrayElemType(ty types.Ty) types.Ty {
	if a, ok := ty.(*types.TArray); ok {
		return a.Elem
	}
	return types.I64
}

func (g *Generator) genAggregate(body *mir.Body, agg mir.Aggregate) string {
	switch agg.Kind {
	case mir.AggTuple, mir.AggStruct, mir.AggRecord:
		llty := g.llvmType(agg.Ty)
		cur := "undef"
		for i, f := range agg.Fields {
			v, fty := g.genOperand(body, f)
			reg := g.nextReg()
			g.emitf("  %s = insertvalue %s %s, %s %s, %d", reg, llty, cur, g.llvmType(fty), v, i)
			cur = reg
		}
		return cur

	case mir.AggArray:
		elemLL := g.llvmType(arrayElemType(agg.Ty))
		n := len(agg.Fields)
		dataPtr := g.nextReg()
		g.emitf("  %s = call ptr @blood_alloc(i64 mul (i64 %d, i64 ptrtoint (ptr getelementptr (%s, ptr null, i64 1) to i64)))", dataPtr, n, elemLL)
		for i, f := range agg.Fields {
			v, _ := g.genOperand(body, f)
			elemPtr := g.nextReg()
			g.emitf("  %s = getelementptr inbounds %s, ptr %s, i64 %d", elemPtr, elemLL, dataPtr, i)
			g.emitf("  store %s %s, ptr %s", elemLL, v, elemPtr)
		}
		reg1 := g.nextReg()
		g.emitf("  %s = insertvalue {ptr, i64} undef, ptr %s, 0", reg1, dataPtr)
		reg2 := g.nextReg()
		g.emitf("  %s = insertvalue {ptr, i64} %s, i64 %d, 1", reg2, reg1, n)
		return reg2

	case mir.AggEnumVariant:
		return g.genEnumVariant(body, agg)

	case mir.AggClosure:
		return g.genClosure(body, agg)
	}
	return "undef"
}

// genEnumVariant packs every field operand into a uniform [N x i64]
// payload slab, widening/bitcasting narrower values up to i64. This
// loses the original field widths in the slab itself (recovered only
// via the static variant layout, not the runtime value); a field wider
// than 64 bits does not fit a slab slot.
func (g *Generator) genEnumVariant(body *mir.Body, agg mir.Aggregate) string {
	enumLL := g.llvmType(agg.Ty)
	tag := 0
	if tcon, ok := agg.Ty.(*types.TCon); ok {
		if ed, ok := g.enumsByName[tcon.Name]; ok {
			for i, v := range ed.Variants {
				if v.Name == agg.Variant {
					tag = i
				}
			}
		}
	}
	cur := g.nextReg()
	g.emitf("  %s = insertvalue %s undef, i32 %d, 0", cur, enumLL, tag)
	for i, f := range agg.Fields {
		v, fty := g.genOperand(body, f)
		i64v := g.toI64(v, fty)
		reg := g.nextReg()
		g.emitf("  %s = insertvalue %s %s, i64 %s, 1, %d", reg, enumLL, cur, i64v, i)
		cur = reg
	}
	return cur
}

func (g *Generator) toI64(v string, ty types.Ty) string {
	switch g.llvmType(ty) {
	case "i64":
		return v
	case "i32", "i16", "i8", "i1":
		reg := g.nextReg()
		g.emitf("  %s = zext %s %s to i64", reg, g.llvmType(ty), v)
		return reg
	case "double":
		reg := g.nextReg()
		g.emitf("  %s = bitcast double %s to i64", reg, v)
		return reg
	case "float":
		ext := g.nextReg()
		g.emitf("  %s = fpext float %s to double", ext, v)
		reg := g.nextReg()
		g.emitf("  %s = bitcast double %s to i64", reg, ext)
		return reg
	default:
		reg := g.nextReg()
		g.emitf("  %s = ptrtoint %s %s to i64", reg, g.llvmType(ty), v)
		return reg
	}
}

// genClosure allocates a capture environment whose first field is the
// lowered closure body's function pointer, followed by one field per
// captured operand, and returns the environment pointer as the
// closure's runtime value — callers load field 0 for the function and
// pass the whole pointer as the closure's implicit first argument.
func (g *Generator) genClosure(body *mir.Body, agg mir.Aggregate) string {
	fnName := fmt.Sprintf("@closure%d", agg.ClosureBody)

	captureTypes := make([]string, len(agg.Fields))
	captureVals := make([]string, len(agg.Fields))
	for i, f := range agg.Fields {
		v, fty := g.genOperand(body, f)
		captureTypes[i] = g.llvmType(fty)
		captureVals[i] = v
	}
	envFields := append([]string{"ptr"}, captureTypes...)
	envLLTy := "{" + strings.Join(envFields, ", ") + "}"

	envPtr := g.nextReg()
	g.emitf("  %s = call ptr @blood_alloc(i64 ptrtoint (ptr getelementptr (%s, ptr null, i32 1) to i64))", envPtr, envLLTy)
	fnFieldPtr := g.nextReg()
	g.emitf("  %s = getelementptr inbounds %s, ptr %s, i32 0, i32 0", fnFieldPtr, envLLTy, envPtr)
	g.emitf("  store ptr %s, ptr %s", fnName, fnFieldPtr)
	for i, v := range captureVals {
		fieldPtr := g.nextReg()
		g.emitf("  %s = getelementptr inbounds %s, ptr %s, i32 0, i32 %d", fieldPtr, envLLTy, envPtr, i+1)
		g.emitf("  store %s %s, ptr %s", captureTypes[i], v, fieldPtr)
	}
	return envPtr
}

// ---- string table ----

func (g *Generator) internString(s string) string {
	if name, ok := g.strTable[s]; ok {
		return name
	}
	name := fmt.Sprintf("@.str.%d", len(g.strTable))
	g.strTable[s] = name
	g.strOrder = append(g.strOrder, s)
	return name
}

func (g *Generator) emitStringTable() {
	if len(g.strOrder) == 0 {
		return
	}
	g.emit("; interned string constants, deduplicated by content")
	for _, s := range g.strOrder {
		esc, n := escapeLLVMString(s)
		g.emitf(`%s = private unnamed_addr constant [%d x i8] c"%s"`, g.strTable[s], n, esc)
	}
	g.emit("")
}

func escapeLLVMString(s string) (string, int) {
	var b strings.Builder
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' || c < 0x20 || c >= 0x7f {
			fmt.Fprintf(&b, "\\%02X", c)
		} else {
			b.WriteByte(c)
		}
		n++
	}
	b.WriteString("\\00")
	n++
	return b.String(), n
}
