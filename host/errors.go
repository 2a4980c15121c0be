package host

import "github.com/pkg/errors"

// ErrPreconditionViolation matches every error that is the caller's fault:
// the operator skips the object, reports it and goes on with the selection.
var ErrPreconditionViolation = errors.New("precondition violation")

type preconditionError string

func (e preconditionError) Error() string { return string(e) }

func (e preconditionError) Is(target error) bool { return target == ErrPreconditionViolation }

var (
	ErrNoActiveObject           error = preconditionError("no active object")
	ErrNoParent                 error = preconditionError("object has no parent")
	ErrUnsupportedRotationMode  error = preconditionError("unsupported rotation mode")
	ErrMissingAnimationData     error = preconditionError("missing animation data")
	ErrAnimated                 error = preconditionError("object is animated")
	ErrAmbiguousDriverNameMatch error = preconditionError("ambiguous driver variable name")
)

// ErrSingularMatrix is returned when a transform can not be decomposed.
// Fatal for the object being processed.
var ErrSingularMatrix = errors.New("singular matrix")
