package ast

import (
	"encoding/json"
	"fmt"
)

// Print produces a deterministic JSON representation of an AST node,
// used for golden snapshot tests across the pipeline (spec.md §8.1).
//
// Design decisions, carried over from the teacher's printer:
//   - Omits spans so golden trees are stable across formatting changes.
//   - Includes a "type" field identifying the concrete node.
//   - Falls back to a generic shape for node kinds not yet handled here,
//     rather than panicking, so new node types don't break existing goldens.
func Print(node Node) string {
	if node == nil {
		return "null"
	}
	data, err := json.MarshalIndent(simplify(node), "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

// Compact is Print without indentation, for one-line diagnostics.
func Compact(node Node) string {
	data, err := json.Marshal(simplify(node))
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

func simplify(node interface{}) interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		files := make([]interface{}, len(n.Files))
		for i, f := range n.Files {
			files[i] = simplify(f)
		}
		return map[string]interface{}{"type": "Program", "files": files}

	case *File:
		m := map[string]interface{}{"type": "File", "path": "test://unit"}
		if n.Mod != nil {
			m["mod"] = simplify(n.Mod)
		}
		if len(n.Uses) > 0 {
			m["uses"] = simplifySlice(n.Uses)
		}
		if len(n.Items) > 0 {
			m["items"] = simplifyItems(n.Items)
		}
		return m

	case *ModDecl:
		return map[string]interface{}{"type": "ModDecl", "path": n.Path}

	case *UseDecl:
		return map[string]interface{}{"type": "UseDecl", "path": n.Path, "symbols": n.Symbols, "glob": n.Glob}

	case *FuncDecl:
		m := map[string]interface{}{"type": "FuncDecl", "name": n.Name, "body": simplify(n.Body)}
		if len(n.Params) > 0 {
			m["params"] = simplifySlice(n.Params)
		}
		if n.ReturnType != nil {
			m["returnType"] = simplify(n.ReturnType)
		}
		return m

	case *StructDecl:
		return map[string]interface{}{"type": "StructDecl", "name": n.Name, "fields": simplifySlice(n.Fields)}

	case *EnumDecl:
		return map[string]interface{}{"type": "EnumDecl", "name": n.Name, "variants": simplifySlice(n.Variants)}

	case *EffectDecl:
		return map[string]interface{}{"type": "EffectDecl", "name": n.Name, "ops": simplifySlice(n.Ops)}

	case *TraitDecl:
		return map[string]interface{}{"type": "TraitDecl", "name": n.Name}

	case *ImplDecl:
		return map[string]interface{}{"type": "ImplDecl", "trait": n.Trait, "forType": simplify(n.ForType)}

	case *ConstDecl:
		return map[string]interface{}{"type": "ConstDecl", "name": n.Name, "value": simplify(n.Value)}

	case *StaticDecl:
		return map[string]interface{}{"type": "StaticDecl", "name": n.Name, "value": simplify(n.Value)}

	case *LetStmt:
		m := map[string]interface{}{"type": "LetStmt", "pattern": simplify(n.Pattern), "value": simplify(n.Value)}
		if n.Type != nil {
			m["typeAnnotation"] = simplify(n.Type)
		}
		return m

	case *ExprStmt:
		return map[string]interface{}{"type": "ExprStmt", "expr": simplify(n.X)}

	case *ItemStmt:
		return map[string]interface{}{"type": "ItemStmt", "item": simplify(n.It)}

	case *Ident:
		return map[string]interface{}{"type": "Ident", "name": n.Name}

	case *Path:
		return map[string]interface{}{"type": "Path", "segments": n.Segments}

	case *Literal:
		m := map[string]interface{}{"type": "Literal", "kind": literalKindString(n.Kind)}
		if n.Value != nil {
			m["value"] = n.Value
		}
		return m

	case *BinaryExpr:
		return map[string]interface{}{"type": "BinaryExpr", "op": n.Op, "left": simplify(n.Left), "right": simplify(n.Right)}

	case *UnaryExpr:
		return map[string]interface{}{"type": "UnaryExpr", "op": n.Op, "x": simplify(n.X)}

	case *AssignExpr:
		return map[string]interface{}{"type": "AssignExpr", "op": n.Op, "target": simplify(n.Target), "value": simplify(n.Value)}

	case *CallExpr:
		return map[string]interface{}{"type": "CallExpr", "callee": simplify(n.Callee), "args": simplifyExprSlice(n.Args)}

	case *MethodCallExpr:
		return map[string]interface{}{"type": "MethodCallExpr", "receiver": simplify(n.Receiver), "name": n.Name, "args": simplifyExprSlice(n.Args)}

	case *FieldExpr:
		return map[string]interface{}{"type": "FieldExpr", "x": simplify(n.X), "field": n.Field}

	case *IndexExpr:
		return map[string]interface{}{"type": "IndexExpr", "x": simplify(n.X), "index": simplify(n.Index)}

	case *Block:
		m := map[string]interface{}{"type": "Block"}
		if len(n.Stmts) > 0 {
			m["stmts"] = simplifyStmtSlice(n.Stmts)
		}
		if n.Tail != nil {
			m["tail"] = simplify(n.Tail)
		}
		return m

	case *IfExpr:
		m := map[string]interface{}{"type": "IfExpr", "cond": simplify(n.Cond), "then": simplify(n.Then)}
		if n.Else != nil {
			m["else"] = simplify(n.Else)
		}
		return m

	case *WhileExpr:
		return map[string]interface{}{"type": "WhileExpr", "cond": simplify(n.Cond), "body": simplify(n.Body)}

	case *ForExpr:
		return map[string]interface{}{"type": "ForExpr", "pattern": simplify(n.Pattern), "iter": simplify(n.Iter), "body": simplify(n.Body)}

	case *LoopExpr:
		return map[string]interface{}{"type": "LoopExpr", "body": simplify(n.Body)}

	case *BreakExpr:
		m := map[string]interface{}{"type": "BreakExpr"}
		if n.Value != nil {
			m["value"] = simplify(n.Value)
		}
		return m

	case *ContinueExpr:
		return map[string]interface{}{"type": "ContinueExpr"}

	case *ReturnExpr:
		m := map[string]interface{}{"type": "ReturnExpr"}
		if n.Value != nil {
			m["value"] = simplify(n.Value)
		}
		return m

	case *MatchExpr:
		return map[string]interface{}{"type": "MatchExpr", "scrutinee": simplify(n.Scrutinee), "arms": simplifySlice(n.Arms)}

	case *MatchArm:
		m := map[string]interface{}{"type": "MatchArm", "pattern": simplify(n.Pattern), "body": simplify(n.Body)}
		if n.Guard != nil {
			m["guard"] = simplify(n.Guard)
		}
		return m

	case *ClosureExpr:
		return map[string]interface{}{"type": "ClosureExpr", "params": simplifySlice(n.Params), "body": simplify(n.Body)}

	case *PerformExpr:
		return map[string]interface{}{"type": "PerformExpr", "effect": n.Effect, "op": n.Op, "args": simplifyExprSlice(n.Args)}

	case *ResumeExpr:
		return map[string]interface{}{"type": "ResumeExpr", "value": simplify(n.Value)}

	case *HandlerExpr:
		return map[string]interface{}{"type": "HandlerExpr", "shallow": n.Shallow, "arms": simplifySlice(n.Arms)}

	case *HandlerArm:
		return map[string]interface{}{"type": "HandlerArm", "effect": n.Effect, "op": n.Op, "isReturn": n.IsReturn, "body": simplify(n.Body)}

	case *TryExpr:
		return map[string]interface{}{"type": "TryExpr", "body": simplify(n.Body), "handler": simplify(n.Handler)}

	case *ArrayExpr:
		return map[string]interface{}{"type": "ArrayExpr", "elements": simplifyExprSlice(n.Elements)}

	case *TupleExpr:
		return map[string]interface{}{"type": "TupleExpr", "elements": simplifyExprSlice(n.Elements)}

	case *RangeExpr:
		return map[string]interface{}{"type": "RangeExpr", "lo": simplify(n.Lo), "hi": simplify(n.Hi), "inclusive": n.Inclusive}

	case *StructLit:
		return map[string]interface{}{"type": "StructLit", "name": n.Name, "fields": simplifySlice(n.Fields)}

	case *RecordLit:
		m := map[string]interface{}{"type": "RecordLit", "fields": simplifySlice(n.Fields)}
		if n.Base != nil {
			m["base"] = simplify(n.Base)
		}
		return m

	case *FieldInit:
		return map[string]interface{}{"type": "FieldInit", "name": n.Name, "value": simplify(n.Value)}

	case *EnumLit:
		return map[string]interface{}{"type": "EnumLit", "enum": n.Enum, "variant": n.Variant, "args": simplifyExprSlice(n.Args)}

	case *ErrorExpr:
		return map[string]interface{}{"type": "ErrorExpr", "msg": n.Msg}

	// Patterns
	case *WildcardPattern:
		return map[string]interface{}{"type": "WildcardPattern"}

	case *BindingPattern:
		m := map[string]interface{}{"type": "BindingPattern", "name": n.Name}
		if n.Sub != nil {
			m["sub"] = simplify(n.Sub)
		}
		return m

	case *TuplePattern:
		return map[string]interface{}{"type": "TuplePattern", "elements": simplifyPatternSlice(n.Elements)}

	case *StructPattern:
		return map[string]interface{}{"type": "StructPattern", "name": n.Name, "rest": n.Rest, "fields": simplifySlice(n.Fields)}

	case *RecordPattern:
		return map[string]interface{}{"type": "RecordPattern", "rest": n.Rest, "fields": simplifySlice(n.Fields)}

	case *FieldPattern:
		return map[string]interface{}{"type": "FieldPattern", "name": n.Name, "pattern": simplify(n.Pattern)}

	case *EnumPattern:
		return map[string]interface{}{"type": "EnumPattern", "enum": n.Enum, "variant": n.Variant, "elements": simplifyPatternSlice(n.Elements)}

	case *OrPattern:
		return map[string]interface{}{"type": "OrPattern", "alternatives": simplifyPatternSlice(n.Alternatives)}

	case *RangePattern:
		return map[string]interface{}{"type": "RangePattern", "inclusive": n.Inclusive}

	// Types
	case *NamedType:
		return map[string]interface{}{"type": "NamedType", "path": n.Path, "args": simplifyTypeSlice(n.Args)}

	case *RefType:
		return map[string]interface{}{"type": "RefType", "qualifier": int(n.Qualifier), "elem": simplify(n.Elem)}

	case *ArrayType:
		return map[string]interface{}{"type": "ArrayType", "elem": simplify(n.Elem)}

	case *TupleType:
		return map[string]interface{}{"type": "TupleType", "elements": simplifyTypeSlice(n.Elements)}

	case *FnType:
		return map[string]interface{}{"type": "FnType", "params": simplifyTypeSlice(n.Params), "ret": simplify(n.Ret)}

	case *RecordTypeExpr:
		return map[string]interface{}{"type": "RecordTypeExpr", "var": n.Var, "fields": simplifySlice(n.Fields)}

	case *RecordFieldType:
		return map[string]interface{}{"type": "RecordFieldType", "name": n.Name, "type": simplify(n.Type)}

	case *ForallType:
		return map[string]interface{}{"type": "ForallType", "body": simplify(n.Body)}

	case *Param:
		m := map[string]interface{}{"type": "Param", "pattern": simplify(n.Pattern)}
		if n.Type != nil {
			m["typeAnnotation"] = simplify(n.Type)
		}
		return m

	case *StructField:
		return map[string]interface{}{"type": "StructField", "name": n.Name, "fieldType": simplify(n.Type)}

	case *EnumVariant:
		return map[string]interface{}{"type": "EnumVariant", "name": n.Name, "fields": simplifyTypeSlice(n.Fields)}

	case *EffectOp:
		return map[string]interface{}{"type": "EffectOp", "name": n.Name}

	default:
		return map[string]interface{}{
			"type":  fmt.Sprintf("%T", node),
			"_note": "not yet handled by printer",
		}
	}
}

func simplifyItems(items []Item) []interface{} {
	result := make([]interface{}, len(items))
	for i, it := range items {
		result[i] = simplify(it)
	}
	return result
}

func simplifyStmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = simplify(s)
	}
	return result
}

func simplifyExprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = simplify(e)
	}
	return result
}

func simplifyTypeSlice(types []Ty) []interface{} {
	result := make([]interface{}, len(types))
	for i, t := range types {
		result[i] = simplify(t)
	}
	return result
}

func simplifyPatternSlice(patterns []Pattern) []interface{} {
	result := make([]interface{}, len(patterns))
	for i, p := range patterns {
		result[i] = simplify(p)
	}
	return result
}

func simplifySlice(items interface{}) []interface{} {
	switch items := items.(type) {
	case []*UseDecl:
		return mapSlice(items)
	case []*Param:
		return mapSlice(items)
	case []*StructField:
		return mapSlice(items)
	case []*EnumVariant:
		return mapSlice(items)
	case []*EffectOp:
		return mapSlice(items)
	case []*FieldInit:
		return mapSlice(items)
	case []*FieldPattern:
		return mapSlice(items)
	case []*MatchArm:
		return mapSlice(items)
	case []*HandlerArm:
		return mapSlice(items)
	case []*RecordFieldType:
		return mapSlice(items)
	default:
		return []interface{}{fmt.Sprintf("unhandled slice type: %T", items)}
	}
}

func mapSlice[T any](items []T) []interface{} {
	result := make([]interface{}, len(items))
	for i, item := range items {
		result[i] = simplify(item)
	}
	return result
}

func literalKindString(kind LitKind) string {
	switch kind {
	case IntLit:
		return "Int"
	case FloatLit:
		return "Float"
	case StringLit:
		return "String"
	case CharLit:
		return "Char"
	case BoolLit:
		return "Bool"
	case UnitLit:
		return "Unit"
	default:
		return "Unknown"
	}
}
