// README: Shared identifier type.
package types

import "github.com/google/uuid"

type ID string

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}
