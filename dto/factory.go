package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sghaida/easydto/config"
	"github.com/sghaida/easydto/di"
)

// Strategy identifies how a DTO is created for an entity view.
type Strategy int

const (
	StrategyNone Strategy = iota
	// StrategyNamedFactory uses an ObjectFactory registered under the dto_factory name.
	StrategyNamedFactory
	// StrategyConstructor uses the registered constructor of dto_class.
	StrategyConstructor
	// StrategyStaticMethod uses a static method of dto_class named by dto_factory.
	StrategyStaticMethod
	// StrategyCallable uses a registered callable or a "class::method" static method.
	StrategyCallable
	// StrategyService calls a method on a service resolved from the locator.
	StrategyService
)

func (s Strategy) String() string {
	switch s {
	case StrategyNamedFactory:
		return "named_factory"
	case StrategyConstructor:
		return "constructor"
	case StrategyStaticMethod:
		return "static_method"
	case StrategyCallable:
		return "callable"
	case StrategyService:
		return "service"
	default:
		return "none"
	}
}

// ObjectFactory is a pluggable named factory. Entities select it by setting
// dto_factory to its Name.
type ObjectFactory interface {
	Name() string
	CreateDTO(class, view string, data any) (any, error)
}

// Factory creates entity DTOs according to the configured dto_class / dto_factory
// of each view.
type Factory struct {
	provider config.Provider
	locator  di.Locator
	types    *Types
	logger   *slog.Logger

	mu        sync.RWMutex
	factories map[string]ObjectFactory
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger used for resolution debug output.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFactory returns a Factory. locator may be nil when no service factories are
// used; a nil types is replaced by an empty registry.
func NewFactory(provider config.Provider, locator di.Locator, types *Types, opts ...Option) *Factory {
	if types == nil {
		types = NewTypes()
	}
	f := &Factory{
		provider:  provider,
		locator:   locator,
		types:     types,
		logger:    slog.New(slog.DiscardHandler),
		factories: map[string]ObjectFactory{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AddFactory registers a named object factory.
func (f *Factory) AddFactory(of ObjectFactory) error {
	if of == nil {
		return errors.New("dto: nil object factory")
	}
	name := of.Name()
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.factories[name]; exists {
		return DuplicateFactoryError{Name: name}
	}
	f.factories[name] = of
	return nil
}

// AddFactoriesFrom resolves each id from loc and registers it as an ObjectFactory.
// It stops at the first error.
func (f *Factory) AddFactoriesFrom(loc di.Locator, ids ...string) error {
	for _, id := range ids {
		svc, err := loc.Get(id)
		if err != nil {
			return fmt.Errorf("dto: object factory %q: %w", id, err)
		}
		of, ok := svc.(ObjectFactory)
		if !ok {
			return fmt.Errorf("dto: service %q (%T) is not an ObjectFactory", id, svc)
		}
		if err := f.AddFactory(of); err != nil {
			return err
		}
	}
	return nil
}

// HasFactory reports whether a named object factory is registered.
func (f *Factory) HasFactory(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.factories[name]
	return ok
}

// FactoryNames returns the registered object factory names, sorted.
func (f *Factory) FactoryNames() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.factories))
	for name := range f.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// plan is a resolved creation strategy for one entity view.
type plan struct {
	entity   string
	view     string
	class    string
	ref      string
	strategy Strategy

	fn        Func
	named     ObjectFactory
	serviceID string
	method    string
}

func (p plan) invalid(reason string, err error) error {
	return &InvalidConfigurationError{Entity: p.entity, View: p.view, Factory: p.ref, Reason: reason, Err: err}
}

func (f *Factory) resolve(entityName, view string) (plan, error) {
	p := plan{entity: entityName, view: view}

	ec, err := f.provider.EntityConfig(entityName)
	if err != nil {
		return p, p.invalid("entity configuration unavailable", err)
	}
	vc, ok := ec.View(view)
	if !ok {
		return p, p.invalid("view "+strconv.Quote(view)+" is not configured", nil)
	}
	p.class = vc.DTOClass
	p.ref = strings.TrimSpace(vc.DTOFactory)

	if p.ref != "" {
		f.mu.RLock()
		of, ok := f.factories[p.ref]
		f.mu.RUnlock()
		if ok {
			p.strategy, p.named = StrategyNamedFactory, of
			return p, nil
		}
	}

	if p.ref == "" || p.ref == ConstructorMarker {
		if p.class == "" {
			return p, p.invalid("no dto_class configured", nil)
		}
		ctor, ok := f.types.Constructor(p.class)
		if !ok {
			return p, p.invalid("dto_class "+strconv.Quote(p.class)+" has no registered constructor", nil)
		}
		p.strategy, p.fn = StrategyConstructor, ctor
		return p, nil
	}

	if !strings.Contains(p.ref, Separator) {
		fn, ok := f.types.Static(p.class, p.ref)
		if !ok {
			return p, p.invalid("dto_class "+strconv.Quote(p.class)+" has no static method "+strconv.Quote(p.ref), nil)
		}
		p.strategy, p.fn = StrategyStaticMethod, fn
		return p, nil
	}

	if fn, ok := f.types.Callable(p.ref); ok {
		p.strategy, p.fn = StrategyCallable, fn
		return p, nil
	}

	serviceID, method, _ := strings.Cut(p.ref, Separator)
	if f.locator != nil && serviceID != "" && method != "" && f.locator.Has(serviceID) {
		p.strategy, p.serviceID, p.method = StrategyService, serviceID, method
		return p, nil
	}

	return p, p.invalid("", nil)
}

// Strategy reports how CreateEntityDTO would build the DTO for entityName/view
// without invoking anything. Lazy services are not instantiated.
func (f *Factory) Strategy(entityName, view string) (Strategy, error) {
	p, err := f.resolve(entityName, view)
	if err != nil {
		return StrategyNone, err
	}
	return p.strategy, nil
}

// CreateEntityDTO builds a new DTO for the view of entityName. existing is the entity
// object being edited, or nil. Every call resolves and constructs anew.
func (f *Factory) CreateEntityDTO(entityName, view string, existing any) (any, error) {
	p, err := f.resolve(entityName, view)
	if err != nil {
		f.logger.Debug("dto: no creation strategy",
			"entity", entityName, "view", view, "dto_class", p.class, "dto_factory", p.ref, "err", err)
		return nil, err
	}
	f.logger.Debug("dto: creating",
		"entity", entityName, "view", view, "dto_class", p.class, "dto_factory", p.ref, "strategy", p.strategy.String())

	var out any
	switch p.strategy {
	case StrategyNamedFactory:
		out, err = p.named.CreateDTO(p.class, view, existing)
	case StrategyService:
		out, err = f.callService(p, existing)
	default:
		out, err = p.fn(existing)
	}
	if err != nil {
		var ice *InvalidConfigurationError
		if errors.As(err, &ice) {
			return nil, err
		}
		var ate ArgumentTypeError
		if errors.As(err, &ate) {
			return nil, p.invalid("", err)
		}
		return nil, fmt.Errorf("dto: create %s/%s via %s: %w", entityName, view, p.strategy, err)
	}
	return out, nil
}

func (f *Factory) callService(p plan, existing any) (any, error) {
	svc, err := f.locator.Get(p.serviceID)
	if err != nil {
		return nil, err
	}
	out, err := invokeMethod(svc, p.method, existing)
	var se signatureError
	if errors.As(err, &se) {
		return nil, p.invalid(se.msg, nil)
	}
	return out, err
}

// Create is CreateEntityDTO with the result asserted to T.
func Create[T any](f *Factory, entityName, view string, existing any) (T, error) {
	var zero T
	v, err := f.CreateEntityDTO(entityName, view, existing)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, WrongTypeError{
			Entity: entityName,
			View:   view,
			Want:   reflect.TypeOf((*T)(nil)).Elem().String(),
			Got:    fmt.Sprintf("%T", v),
		}
	}
	return out, nil
}
