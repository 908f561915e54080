package di

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
)

// Locator resolves services by string identifier at runtime.
//
// It is intentionally:
// - read-only for callers
// - populated once in the composition root
//
// Expected usage:
//
//	if loc.Has("product_factory") {
//		svc, err := loc.Get("product_factory")
//	}
type Locator interface {
	Has(id string) bool
	Get(id string) (any, error)
}

// ErrLocatorPanic is returned if a lazy provider panics while instantiating a service.
var ErrLocatorPanic = errors.New("locator: panic during Get")

// MissingServiceError is returned by Get when no service is registered under ID.
type MissingServiceError struct{ ID string }

// Error implements the error interface.
func (e MissingServiceError) Error() string {
	// Example: di: service "mailer" not registered
	return "di: service " + strconv.Quote(e.ID) + " not registered"
}

// Provider lazily instantiates a service.
type Provider func() (any, error)

type entry struct {
	once     sync.Once
	provider Provider
	val      any
	err      error
}

// MapLocator is a simple in-memory Locator.
// Values are either provided eagerly (Provide) or built on first Get (ProvideLazy).
// It is safe for concurrent use.
type MapLocator struct {
	mu    sync.RWMutex
	items map[string]*entry
}

func NewMapLocator() *MapLocator {
	return &MapLocator{items: map[string]*entry{}}
}

// Provide stores a value under an id and returns the locator for chaining.
func (l *MapLocator) Provide(id string, val any) *MapLocator {
	e := &entry{val: val}
	e.once.Do(func() {})
	l.set(id, e)
	return l
}

// ProvideLazy registers a provider that is invoked at most once, on the first Get.
func (l *MapLocator) ProvideLazy(id string, p Provider) *MapLocator {
	l.set(id, &entry{provider: p})
	return l
}

func (l *MapLocator) set(id string, e *entry) {
	l.mu.Lock()
	l.items[id] = e
	l.mu.Unlock()
}

// Has reports whether a service is registered under id. It never instantiates it.
func (l *MapLocator) Has(id string) bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	_, ok := l.items[id]
	l.mu.RUnlock()
	return ok
}

// Get returns the service registered under id, instantiating lazy services once.
// A provider that panics is reported as ErrLocatorPanic; the panic is cached like
// any other provider failure.
func (l *MapLocator) Get(id string) (any, error) {
	if l == nil {
		return nil, MissingServiceError{ID: id}
	}
	l.mu.RLock()
	e, ok := l.items[id]
	l.mu.RUnlock()
	if !ok {
		return nil, MissingServiceError{ID: id}
	}
	e.once.Do(func() {
		defer func() {
			if rec := recover(); rec != nil {
				e.val = nil
				e.err = fmt.Errorf("%w: %q: %v", ErrLocatorPanic, id, rec)
			}
		}()
		if e.provider == nil {
			e.err = fmt.Errorf("di: nil provider for service %q", id)
			return
		}
		e.val, e.err = e.provider()
	})
	return e.val, e.err
}

// MustGet returns the service or panics with a helpful message.
// Useful in examples/tests where missing services should fail fast.
func (l *MapLocator) MustGet(id string) any {
	v, err := l.Get(id)
	if err != nil {
		panic(err)
	}
	return v
}

// IDs returns the registered service ids in no particular order.
func (l *MapLocator) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.items))
	for id := range l.items {
		out = append(out, id)
	}
	return out
}
