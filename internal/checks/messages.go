package checks

import (
	"fmt"

	"github.com/inoxlang/phpcheck/internal/types"
)

const (
	VOID_FUNCTION_RETURNS_A_VALUE = "a function declared as returning void should not return a value"
	MISSING_RETURN_VALUE          = "missing return value"
)

func fmtUndefinedVariable(name string) string {
	return fmt.Sprintf("undefined variable $%s", name)
}

func fmtMethodCallOnPossiblyNull(method, variable string) string {
	return fmt.Sprintf("method %s() is called on $%s that may be null", method, variable)
}

func fmtPropertyFetchOnPossiblyNull(property, variable string) string {
	return fmt.Sprintf("property %s is accessed on $%s that may be null", property, variable)
}

func fmtUnknownMethod(class, method string) string {
	return fmt.Sprintf("call to unknown method %s::%s()", class, method)
}

func fmtUnknownClass(class string) string {
	return fmt.Sprintf("unknown class %s", class)
}

func fmtArgumentTypeMismatch(index int, callee string, expected, given types.Type) string {
	return fmt.Sprintf("argument %d of %s() should be of type %s, %s given", index, callee, expected, given)
}

func fmtReturnTypeMismatch(expected, given types.Type) string {
	return fmt.Sprintf("returned value should be of type %s, %s given", expected, given)
}
