package joinz

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. The typed errors below match these through errors.Is.
var (
	ErrInvalidName      = errors.New("invalid plugin name")
	ErrNameCollision    = errors.New("plugin name already in use")
	ErrUnknownRenderer  = errors.New("unknown renderer")
	ErrStageFailed      = errors.New("pipeline stage failed")
	ErrRegistryFrozen   = errors.New("registry is frozen")
	ErrNilStage         = errors.New("plugin function is nil")
	ErrUnknownShortcut  = errors.New("unknown shortcut")
	ErrUnknownPlugin    = errors.New("unknown plugin")
	ErrKindMismatch     = errors.New("plugin kind mismatch")
	ErrInvalidShortcuts = errors.New("invalid shortcut document")
)

// NameError reports a proposed plugin name that is not a valid identifier.
type NameError struct {
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("%v %q: must be at least one character long, consist only of letters, digits and underscores, and not start with a digit", ErrInvalidName, e.Name)
}

// Is reports whether target is ErrInvalidName.
func (*NameError) Is(target error) bool {
	return target == ErrInvalidName
}

// CollisionError reports a proposed plugin name that is already taken.
type CollisionError struct {
	Name  Name
	Owner Kind // kind of whatever holds the name already
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%v: %q is held by a %s", ErrNameCollision, e.Name, e.Owner)
}

// Is reports whether target is ErrNameCollision.
func (*CollisionError) Is(target error) bool {
	return target == ErrNameCollision
}

// UnknownRendererError reports a configuration naming a renderer that was
// never registered.
type UnknownRendererError struct {
	Name Name
}

func (e *UnknownRendererError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%v: no renderer selected", ErrUnknownRenderer)
	}
	return fmt.Sprintf("%v %q", ErrUnknownRenderer, e.Name)
}

// Is reports whether target is ErrUnknownRenderer.
func (*UnknownRendererError) Is(target error) bool {
	return target == ErrUnknownRenderer
}

// StageError reports a failure raised inside a pre-processor, the renderer or
// a post-processor during a join. Stages after the failing one do not run.
//
//	out, err := joiner.Join(items)
//	var stageErr *joinz.StageError
//	if errors.As(err, &stageErr) {
//	    log.Printf("%s %q failed: %v", stageErr.Kind, stageErr.Name, stageErr.Err)
//	}
type StageError struct {
	Timestamp time.Time
	Err       error
	Name      Name
	Kind      Kind
	Duration  time.Duration
}

func (e *StageError) Error() string {
	return fmt.Sprintf("failed to execute %s %q after %v: %v", e.Kind, e.Name, e.Duration, e.Err)
}

// Unwrap returns the stage's own error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStageFailed.
func (*StageError) Is(target error) bool {
	return target == ErrStageFailed
}

// Panicked reports whether the stage failed by panicking.
func (e *StageError) Panicked() bool {
	var pe *panicError
	return errors.As(e.Err, &pe)
}

// panicError carries a value recovered from a panicking stage.
type panicError struct {
	value any
	stage Name
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic in %q: %s", e.stage, panicMessage(e.value))
}

func panicMessage(v any) string {
	switch val := v.(type) {
	case nil:
		return "unknown panic (nil value)"
	case error:
		return val.Error()
	default:
		return fmt.Sprint(val)
	}
}

// recoverStage turns a panic in a stage into an error assigned to *err.
// It must be deferred directly.
func recoverStage(err *error, stage Name) {
	if r := recover(); r != nil {
		*err = &panicError{stage: stage, value: r}
	}
}
