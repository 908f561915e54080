package dto

import (
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// MethodInvoker lets a located service dispatch "service_id::method" calls itself,
// without reflection.
type MethodInvoker interface {
	InvokeDTOMethod(method string, data any) (any, error)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// signatureError marks a service method that exists but cannot be called as a factory.
// The resolver reports it as a configuration problem, not a creation failure.
type signatureError struct{ msg string }

func (e signatureError) Error() string { return e.msg }

// invokeMethod calls method on svc with data.
//
// Services implementing MethodInvoker are called directly. Otherwise the exported
// method (first rune upper-cased) is looked up with reflection; it must take zero or
// one argument and return T or (T, error).
func invokeMethod(svc any, method string, data any) (any, error) {
	if inv, ok := svc.(MethodInvoker); ok {
		return inv.InvokeDTOMethod(method, data)
	}
	if svc == nil {
		return nil, signatureError{msg: "service is nil"}
	}

	name := exportName(method)
	rv := reflect.ValueOf(svc)
	m := rv.MethodByName(name)
	if !m.IsValid() {
		if rv.Kind() != reflect.Pointer {
			if _, ok := reflect.PointerTo(rv.Type()).MethodByName(name); ok {
				return nil, signatureError{msg: fmt.Sprintf("%T has no method %s; it has a pointer receiver, register *%T instead", svc, name, svc)}
			}
		}
		return nil, signatureError{msg: fmt.Sprintf("%T has no method %s", svc, name)}
	}
	mt := m.Type()
	if mt.IsVariadic() {
		return nil, signatureError{msg: fmt.Sprintf("%T.%s is variadic", svc, name)}
	}

	var in []reflect.Value
	switch mt.NumIn() {
	case 0:
	case 1:
		arg, err := argValue(mt.In(0), data)
		if err != nil {
			return nil, err
		}
		in = []reflect.Value{arg}
	default:
		return nil, signatureError{msg: fmt.Sprintf("%T.%s takes %d arguments, want at most 1", svc, name, mt.NumIn())}
	}

	switch {
	case mt.NumOut() == 1:
		return valueInterface(m.Call(in)[0]), nil
	case mt.NumOut() == 2 && mt.Out(1) == errorType:
		out := m.Call(in)
		if errV := out[1]; !errV.IsNil() {
			return nil, errV.Interface().(error)
		}
		return valueInterface(out[0]), nil
	default:
		return nil, signatureError{msg: fmt.Sprintf("%T.%s must return T or (T, error)", svc, name)}
	}
}

func argValue(t reflect.Type, data any) (reflect.Value, error) {
	if data == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(data)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, ArgumentTypeError{Want: t.String(), Got: v.Type().String()}
	}
	return v, nil
}

func valueInterface(v reflect.Value) any {
	if v.Kind() == reflect.Interface && v.IsNil() {
		return nil
	}
	return v.Interface()
}

func exportName(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
