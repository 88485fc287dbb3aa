package catalog

import "errors"

// Sentinel errors shared across the service. Wrap with fmt.Errorf("%w: ...")
// so callers can classify with errors.Is.
var (
	// ErrNotFound marks lookups for tenants, tables or columns that do not
	// exist in the catalog.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks attempts to create something that already exists.
	ErrConflict = errors.New("already exists")

	// ErrConnectivity marks failures reaching a tenant database or the
	// catalog store.
	ErrConnectivity = errors.New("connectivity failure")

	// ErrPartialWrite marks a reconciliation that committed some batches
	// before failing.
	ErrPartialWrite = errors.New("partial write")
)

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsConnectivity(err error) bool { return errors.Is(err, ErrConnectivity) }
func IsPartialWrite(err error) bool { return errors.Is(err, ErrPartialWrite) }
