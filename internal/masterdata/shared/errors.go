package shared

import (
	"fmt"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
)

var (
	ErrNotFound  = fmt.Errorf("master record %w", httpx.ErrNotFound)
	ErrDuplicate = fmt.Errorf("master record code %w", httpx.ErrDuplicate)
	ErrInvalidID = fmt.Errorf("%w: invalid ID", httpx.ErrValidation)
)

// ErrInUse is returned when deleting a record that documents still reference.
var ErrInUse = fmt.Errorf("%w: master record is referenced by documents", httpx.ErrConflict)
