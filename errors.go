package duotoneanim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput wraps every rejection of a malformed inbound message.
	ErrInvalidInput = errors.New("invalid input")
	// ErrGroupIDCollision matches any *GroupIDCollisionError.
	ErrGroupIDCollision = errors.New("group id collision")
)

// GroupIDCollisionError is returned when segmentation tries to create a group
// id that is already in use. It aborts the run.
type GroupIDCollisionError struct {
	GroupID   int
	RootPixel int
}

func (e *GroupIDCollisionError) Error() string {
	return fmt.Sprintf("group id %d already exists while growing root pixel %d", e.GroupID, e.RootPixel)
}

func (e *GroupIDCollisionError) Is(target error) bool {
	return target == ErrGroupIDCollision
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
