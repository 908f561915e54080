package dto

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Separator splits a "class::method" or "service_id::method" factory reference.
const Separator = "::"

// ConstructorMarker selects the registered constructor, same as leaving dto_factory empty.
const ConstructorMarker = "__construct"

// Func creates a DTO from the entity object being edited (nil for new objects).
type Func func(data any) (any, error)

var (
	errEmptyKey = errors.New("dto: empty registration key")
	errNilFunc  = errors.New("dto: nil registration func")
)

// Types maps DTO class identifiers to their constructors and static factory methods,
// and fully qualified callable references to functions.
//
// It is populated once at startup (usually by dtogen generated code) and is safe
// for concurrent reads afterwards.
type Types struct {
	mu        sync.RWMutex
	ctors     map[string]Func
	statics   map[string]map[string]Func
	callables map[string]Func
}

// NewTypes returns an empty registry.
func NewTypes() *Types {
	return &Types{
		ctors:     map[string]Func{},
		statics:   map[string]map[string]Func{},
		callables: map[string]Func{},
	}
}

// Register sets the default constructor of class.
func (t *Types) Register(class string, ctor Func) error {
	if err := checkRegistration(ctor, class); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.ctors[class]; exists {
		return DuplicateRegistrationError{Kind: "constructor", Key: class}
	}
	t.ctors[class] = ctor
	return nil
}

// RegisterStatic adds a static factory method to class. The class does not need a
// registered constructor.
func (t *Types) RegisterStatic(class, method string, fn Func) error {
	if err := checkRegistration(fn, class, method); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	methods, ok := t.statics[class]
	if !ok {
		methods = map[string]Func{}
		t.statics[class] = methods
	}
	if _, exists := methods[method]; exists {
		return DuplicateRegistrationError{Kind: "static", Key: class + Separator + method}
	}
	methods[method] = fn
	return nil
}

// RegisterCallable adds a free callable under its fully qualified reference.
func (t *Types) RegisterCallable(ref string, fn Func) error {
	if err := checkRegistration(fn, ref); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.callables[ref]; exists {
		return DuplicateRegistrationError{Kind: "callable", Key: ref}
	}
	t.callables[ref] = fn
	return nil
}

func checkRegistration(fn Func, keys ...string) error {
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			return errEmptyKey
		}
	}
	if fn == nil {
		return fmt.Errorf("%w for %q", errNilFunc, strings.Join(keys, Separator))
	}
	return nil
}

// Constructor returns the default constructor registered for class.
func (t *Types) Constructor(class string) (Func, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.ctors[class]
	return fn, ok
}

// Static returns the static factory method registered on class under method.
func (t *Types) Static(class, method string) (Func, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.statics[class][method]
	return fn, ok
}

// Callable resolves ref as a registered callable, or as "class::method" naming a
// registered static method.
func (t *Types) Callable(ref string) (Func, bool) {
	t.mu.RLock()
	fn, ok := t.callables[ref]
	t.mu.RUnlock()
	if ok {
		return fn, true
	}
	class, method, found := strings.Cut(ref, Separator)
	if !found {
		return nil, false
	}
	return t.Static(class, method)
}

// Classes returns every class that has a constructor or a static method, sorted.
func (t *Types) Classes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[string]struct{}, len(t.ctors)+len(t.statics))
	for c := range t.ctors {
		seen[c] = struct{}{}
	}
	for c := range t.statics {
		seen[c] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

//
// Adapters from typed Go functions to Func.
//

// Adapt wraps fn. A nil data is passed as the zero value of In.
func Adapt[In, Out any](fn func(In) Out) Func {
	return func(data any) (any, error) {
		in, err := argAs[In](data)
		if err != nil {
			return nil, err
		}
		return fn(in), nil
	}
}

// AdaptErr wraps a fallible fn. A nil data is passed as the zero value of In.
func AdaptErr[In, Out any](fn func(In) (Out, error)) Func {
	return func(data any) (any, error) {
		in, err := argAs[In](data)
		if err != nil {
			return nil, err
		}
		out, err := fn(in)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Adapt0 wraps a function that ignores the entity object.
func Adapt0[Out any](fn func() Out) Func {
	return func(any) (any, error) { return fn(), nil }
}

func argAs[In any](data any) (In, error) {
	var zero In
	if data == nil {
		return zero, nil
	}
	in, ok := data.(In)
	if !ok {
		return zero, ArgumentTypeError{
			Want: reflect.TypeOf((*In)(nil)).Elem().String(),
			Got:  fmt.Sprintf("%T", data),
		}
	}
	return in, nil
}
