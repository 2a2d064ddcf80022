package ranking

import (
	"errors"
	"fmt"
)

// ErrNoAvailableDimensions is returned when none of the configured dimensions could be scored
var ErrNoAvailableDimensions = errors.New("no configured dimension is available")

// DimensionError represents profile data that a dimension cannot score
type DimensionError struct {
	Dimension string
	Message   string
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension %s: %s", e.Dimension, e.Message)
}
