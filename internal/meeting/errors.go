package meeting

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for malformed input such as an event that ends before it
// starts or a search range whose start date lies after its end date.
var ErrInvalidInput = errors.New("invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
