package logs

import (
	"bytes"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// addReplaceStringField replaces the value of the key field in the context of logger if present, otherwise it
// adds the field by doing logger.With().Str(key, newValue).Logger().
func addReplaceStringField(logger zerolog.Logger, key string, newValue string) zerolog.Logger {
	field := reflect.ValueOf(&logger).Elem().FieldByName("context")
	context := getUnexportedField(field).([]byte)

	quotedKey, err := json.Marshal(key)
	if err != nil {
		panic(err)
	}
	quotedValue, err := json.Marshal(newValue)
	if err != nil {
		panic(err)
	}

	i := 1
	for i < len(context) {
		if context[i] == '"' &&
			//make sure we found a key
			context[i-1] != ':' &&
			i < len(context)-len(quotedKey)-2 && bytes.HasPrefix(context[i:], quotedKey) {

			//move to the opening quote of the value
			i += len(quotedKey) - 1 + 2

			if context[i] != '"' {
				panic(fmt.Errorf("field %q has not a string value", key))
			}

			oldValueStart := i
			oldValueEnd := findStringLiteralEnd(context, oldValueStart)
			if oldValueEnd <= 0 {
				panic(fmt.Errorf("the current value of the field %q is an unterminated string", key))
			}

			var newContext []byte
			newContext = append(newContext, context[:oldValueStart]...)
			newContext = append(newContext, quotedValue...)
			newContext = append(newContext, context[oldValueEnd:]...)

			setUnexportedField(field, newContext)
			return logger
		}
		i++
	}

	return logger.With().Str(key, newValue).Logger()
}

// findStringLiteralEnd returns the end (exclusive) of the JSON string literal starting at openingQuoteIndex,
// -1 if the literal is not terminated.
func findStringLiteralEnd(buf []byte, openingQuoteIndex int) int {
	for i := openingQuoteIndex + 1; i < len(buf); i++ {
		if buf[i] == '"' && countPrevBackslashes(buf, i)%2 == 0 {
			return i + 1
		}
	}
	return -1
}

func countPrevBackslashes(buf []byte, i int) int {
	count := 0
	for j := i - 1; j >= 0 && buf[j] == '\\'; j-- {
		count++
	}
	return count
}

func getUnexportedField(field reflect.Value) any {
	return reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem().Interface()
}

func setUnexportedField(field reflect.Value, value any) {
	reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).
		Elem().
		Set(reflect.ValueOf(value))
}
