package task

import "errors"

var (
	// ErrNotFound is returned when an id is absent from the addressed partition.
	ErrNotFound = errors.New("task not found")

	// ErrAmbiguousIDPrefix is returned when an id prefix matches several tasks.
	ErrAmbiguousIDPrefix = errors.New("ambiguous task ID prefix")

	// ErrInvalidOrder is returned when Reorder is given anything other than
	// a permutation of the active ids.
	ErrInvalidOrder = errors.New("order must be a permutation of the active tasks")

	// ErrEmptyTask is returned when a task has neither text nor audio.
	ErrEmptyTask = errors.New("task needs text or a voice note")

	// ErrInvalidColor is returned for colors outside the palette.
	ErrInvalidColor = errors.New("invalid color")

	// ErrPersistence wraps a failed durable write. The in-memory change
	// it accompanies has still been applied.
	ErrPersistence = errors.New("persist tasks")
)
