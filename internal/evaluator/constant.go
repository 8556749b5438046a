package evaluator

import (
	"strconv"
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
)

// evalConstant returns the value of a constant expression: an int64, a float64, a string, a bool or nil (null).
// The boolean result is false if the expression is not constant or its value cannot be computed.
func evalConstant(expr ast.Expr) (any, bool) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		i, err := strconv.ParseInt(strings.ReplaceAll(e.Raw, "_", ""), 0, 64)
		if err != nil {
			return nil, false
		}
		return i, true
	case *ast.FloatLiteral:
		f, err := strconv.ParseFloat(strings.ReplaceAll(e.Raw, "_", ""), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case *ast.StringLiteral:
		if e.Interpolated {
			return nil, false
		}
		return e.Value, true
	case *ast.ConstFetch:
		switch strings.ToLower(strings.TrimPrefix(e.Name.Value, "\\")) {
		case "true":
			return true, true
		case "false":
			return false, true
		case "null":
			return nil, true
		}
	case *ast.UnaryOp:
		operand, ok := evalConstant(e.Expr)
		if !ok {
			return nil, false
		}
		switch e.Op {
		case "-":
			switch v := operand.(type) {
			case int64:
				return -v, true
			case float64:
				return -v, true
			}
		case "+":
			switch operand.(type) {
			case int64, float64:
				return operand, true
			}
		case "!":
			if b, ok := operand.(bool); ok {
				return !b, true
			}
		}
	case *ast.BinaryOp:
		left, ok := evalConstant(e.Left)
		if !ok {
			return nil, false
		}
		right, ok := evalConstant(e.Right)
		if !ok {
			return nil, false
		}
		if e.Op == "." {
			l, lok := left.(string)
			r, rok := right.(string)
			if lok && rok {
				return l + r, true
			}
			return nil, false
		}
		l, lok := left.(int64)
		r, rok := right.(int64)
		if !lok || !rok {
			return nil, false
		}
		switch e.Op {
		case "+":
			return l + r, true
		case "-":
			return l - r, true
		case "*":
			return l * r, true
		}
	}
	return nil, false
}

func constantInt(expr ast.Expr) (int64, bool) {
	value, ok := evalConstant(expr)
	if !ok {
		return 0, false
	}
	i, ok := value.(int64)
	return i, ok
}

func constantString(expr ast.Expr) (string, bool) {
	value, ok := evalConstant(expr)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}
