package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrInvalidReference is returned when an entity points at a transient (unsaved) entity.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrInvalidScore is returned when a grade's score is outside models.MinScore..models.MaxScore.
	ErrInvalidScore = errors.New("invalid score")
	// ErrAlreadyPersistent is returned when Create is given an entity that already has an ID.
	ErrAlreadyPersistent = errors.New("entity already persistent")
)
