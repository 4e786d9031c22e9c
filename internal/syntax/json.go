package syntax

import (
	"encoding/json"
	"io"
)

// FprintJSON writes a JSON array holding one object per statement to w.
func FprintJSON(w io.Writer, stmts []Stmt) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	list := make([]interface{}, len(stmts))
	for i, s := range stmts {
		list[i] = toJSON(s)
	}
	return enc.Encode(list)
}

func toJSON(node Node) interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *AssignStmt:
		return stmtJSON("AssignStmt", n.stmt, map[string]interface{}{
			"target": n.Target.Name,
			"value":  toJSON(n.Value),
		})

	case *ReadStmt:
		return stmtJSON("ReadStmt", n.stmt, map[string]interface{}{
			"targets": exprsJSON(n.Targets),
		})

	case *DataStmt:
		values := make([]interface{}, len(n.Values))
		for i, v := range n.Values {
			values[i] = toJSON(v)
		}
		return stmtJSON("DataStmt", n.stmt, map[string]interface{}{
			"values": values,
		})

	case *PrintStmt:
		return stmtJSON("PrintStmt", n.stmt, map[string]interface{}{
			"items": exprsJSON(n.Items),
		})

	case *GotoStmt:
		return stmtJSON("GotoStmt", n.stmt, map[string]interface{}{"dest": n.Dest})

	case *IfStmt:
		return stmtJSON("IfStmt", n.stmt, map[string]interface{}{
			"left":  toJSON(n.Left),
			"rel":   n.Rel.String(),
			"right": toJSON(n.Right),
			"dest":  n.Dest,
		})

	case *ForStmt:
		return stmtJSON("ForStmt", n.stmt, map[string]interface{}{
			"var":   n.Var.Name,
			"init":  toJSON(n.Init),
			"limit": toJSON(n.Limit),
			"step":  toJSON(n.Step),
		})

	case *NextStmt:
		return stmtJSON("NextStmt", n.stmt, map[string]interface{}{"var": n.Var.Name})

	case *DimStmt:
		arrays := make([]interface{}, len(n.Arrays))
		for i, a := range n.Arrays {
			arrays[i] = map[string]interface{}{
				"name": a.Name,
				"dims": a.Dims,
				"pos":  a.pos.String(),
			}
		}
		return stmtJSON("DimStmt", n.stmt, map[string]interface{}{"arrays": arrays})

	case *DefStmt:
		params := make([]string, len(n.Params))
		for i, v := range n.Params {
			params[i] = v.Name
		}
		return stmtJSON("DefStmt", n.stmt, map[string]interface{}{
			"name":   n.Name,
			"params": params,
			"body":   toJSON(n.Body),
		})

	case *GosubStmt:
		return stmtJSON("GosubStmt", n.stmt, map[string]interface{}{"dest": n.Dest})

	case *ReturnStmt:
		return stmtJSON("ReturnStmt", n.stmt, nil)

	case *RemStmt:
		return stmtJSON("RemStmt", n.stmt, map[string]interface{}{"text": n.Text})

	case *EndStmt:
		return stmtJSON("EndStmt", n.stmt, nil)

	case *Number:
		return map[string]interface{}{
			"type":  "Number",
			"text":  n.Text,
			"value": n.Value,
		}

	case *StringLit:
		return map[string]interface{}{"type": "StringLit", "value": n.Value}

	case *Variable:
		return map[string]interface{}{"type": "Variable", "name": n.Name}

	case *ArrayAccess:
		return map[string]interface{}{
			"type":    "ArrayAccess",
			"name":    n.Name,
			"indices": exprsJSON(n.Indices),
		}

	case *FuncCall:
		return map[string]interface{}{
			"type":       "FuncCall",
			"name":       n.Name,
			"predefined": n.Predefined,
			"args":       exprsJSON(n.Args),
		}

	case *BinaryExpr:
		ops := make([]string, len(n.Ops))
		for i, op := range n.Ops {
			ops[i] = op.String()
		}
		return map[string]interface{}{
			"type":     "BinaryExpr",
			"negative": n.Negative,
			"operands": exprsJSON(n.Operands),
			"ops":      ops,
		}
	}
	return nil
}

func stmtJSON(typ string, s stmt, fields map[string]interface{}) map[string]interface{} {
	m := map[string]interface{}{
		"type": typ,
		"line": s.line,
		"pos":  s.pos.String(),
	}
	for k, v := range fields {
		m[k] = v
	}
	return m
}

func exprsJSON(list []Expr) []interface{} {
	out := make([]interface{}, len(list))
	for i, x := range list {
		out[i] = toJSON(x)
	}
	return out
}
