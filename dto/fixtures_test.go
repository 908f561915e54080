package dto_test

import (
	"errors"
	"sync"

	"github.com/sghaida/easydto/config"
	"github.com/sghaida/easydto/di"
	"github.com/sghaida/easydto/dto"
)

const (
	productClass = "app.Product"
	newDTOClass  = "app.NewProductDTO"
	editDTOClass = "app.EditProductDTO"
)

type Product struct {
	Name  string
	Price int
}

type NewProductDTO struct {
	Name  string
	Price int
}

func NewNewProductDTO(p *Product) *NewProductDTO {
	d := &NewProductDTO{}
	if p != nil {
		d.Name, d.Price = p.Name, p.Price
	}
	return d
}

type EditProductDTO struct {
	Product *Product
	Name    string
}

func NewEditProductDTO(p *Product) *EditProductDTO {
	d := &EditProductDTO{Product: p}
	if p != nil {
		d.Name = p.Name
	}
	return d
}

// staticFactories mirrors a class with static DTO factory methods.
type staticFactories struct{}

func (staticFactories) CreateNewDTO() *NewProductDTO { return &NewProductDTO{Name: "static"} }

func (staticFactories) CreateEditDTO(p *Product) *EditProductDTO {
	return &EditProductDTO{Product: p, Name: "static-edit"}
}

// productService is located through di and called by method name.
type productService struct {
	mu    sync.Mutex
	calls []any
}

func (s *productService) record(p any) {
	s.mu.Lock()
	s.calls = append(s.calls, p)
	s.mu.Unlock()
}

func (s *productService) Factory(p *Product) any {
	s.record(p)
	if p == nil {
		return &NewProductDTO{Name: "from-service"}
	}
	return NewEditProductDTO(p)
}

func (s *productService) Failing(*Product) (*NewProductDTO, error) {
	return nil, errBoom
}

func (s *productService) NoArgs() *NewProductDTO { return &NewProductDTO{Name: "no-args"} }

func (s *productService) TooMany(a, b *Product) *NewProductDTO { return nil }

func (s *productService) NoReturn(*Product) {}

func (s *productService) BadSecond(*Product) (*NewProductDTO, int) { return nil, 0 }

func (s *productService) Variadic(...*Product) *NewProductDTO { return nil }

var errBoom = errors.New("boom")

// invokerService dispatches by name without reflection.
type invokerService struct{}

func (invokerService) InvokeDTOMethod(method string, data any) (any, error) {
	return &NewProductDTO{Name: "invoked:" + method}, nil
}

// namedFactory is an ObjectFactory selected by name from dto_factory.
type namedFactory struct {
	name  string
	calls int
	last  struct {
		class, view string
		data        any
	}
}

func (n *namedFactory) Name() string { return n.name }

func (n *namedFactory) CreateDTO(class, view string, data any) (any, error) {
	n.calls++
	n.last.class, n.last.view, n.last.data = class, view, data
	return &NewProductDTO{Name: "named:" + view}, nil
}

// spyLocator counts Has/Get calls per id on top of a MapLocator.
type spyLocator struct {
	*di.MapLocator
	mu   sync.Mutex
	has  map[string]int
	gets map[string]int
}

func newSpyLocator() *spyLocator {
	return &spyLocator{MapLocator: di.NewMapLocator(), has: map[string]int{}, gets: map[string]int{}}
}

func (s *spyLocator) Has(id string) bool {
	s.mu.Lock()
	s.has[id]++
	s.mu.Unlock()
	return s.MapLocator.Has(id)
}

func (s *spyLocator) Get(id string) (any, error) {
	s.mu.Lock()
	s.gets[id]++
	s.mu.Unlock()
	return s.MapLocator.Get(id)
}

func newTypes() *dto.Types {
	t := dto.NewTypes()
	must(t.Register(newDTOClass, dto.Adapt(NewNewProductDTO)))
	must(t.Register(editDTOClass, dto.Adapt(NewEditProductDTO)))
	must(t.RegisterStatic(newDTOClass, "create", dto.Adapt0(func() *NewProductDTO {
		return &NewProductDTO{Name: "bare-static"}
	})))
	must(t.RegisterStatic(editDTOClass, "fromProduct", dto.AdaptErr(func(p *Product) (*EditProductDTO, error) {
		if p == nil {
			return nil, errBoom
		}
		return NewEditProductDTO(p), nil
	})))
	must(t.RegisterStatic("app.StaticDTOFactory", "createNewDTO", dto.Adapt0(staticFactories{}.CreateNewDTO)))
	must(t.RegisterStatic("app.StaticDTOFactory", "createEditDTO", dto.Adapt(staticFactories{}.CreateEditDTO)))
	must(t.RegisterCallable("app.MakeNewProductDTO", dto.Adapt0(func() *NewProductDTO {
		return &NewProductDTO{Name: "free-callable"}
	})))
	return t
}

// providerWith returns the default Product configuration with view overrides merged in.
func providerWith(overrides map[string]config.ViewConfig) config.Provider {
	views := map[string]config.ViewConfig{
		"new":  {DTOClass: newDTOClass},
		"edit": {DTOClass: editDTOClass},
	}
	for view, vc := range overrides {
		base := views[view]
		if vc.DTOClass != "" {
			base.DTOClass = vc.DTOClass
		}
		base.DTOFactory = vc.DTOFactory
		views[view] = base
	}
	return config.NewStaticProvider(map[string]config.EntityConfig{
		"Product": {Class: productClass, Views: views},
	})
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
