package device

import (
	"fmt"
	"strings"
	"unicode"
)

// maxIDLength bounds device identifiers taken from schedule files and flags.
const maxIDLength = 128

// ValidateID checks that a device identifier is usable by every controller.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidID, maxIDLength)
	}
	if strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: %q contains control characters", ErrInvalidID, id)
	}
	return nil
}
