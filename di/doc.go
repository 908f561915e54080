// Package di provides a small service locator for explicit wiring.
//
// Services are registered by string id in the composition root, either eagerly
// (Provide) or lazily (ProvideLazy, built once on first Get). Consumers depend on
// the two-method Locator interface:
//
//	type Locator interface {
//		Has(id string) bool
//		Get(id string) (any, error)
//	}
//
// Has never instantiates a lazy service, so callers can probe for a service
// without paying for its construction.
//
// Import
//
//	"github.com/sghaida/easydto/di"
package di
