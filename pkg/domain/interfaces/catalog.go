package interfaces

import "github.com/m-mizutani/inari/pkg/domain/model/capability"

// Catalog is a read-only view of tools or context types available in the
// running process.
type Catalog interface {
	Has(name string) bool
	List() []capability.Descriptor
}
