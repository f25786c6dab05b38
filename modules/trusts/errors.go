package trusts

import "errors"

var (
	// ErrCodeTaken is returned when provisioning a trust whose code
	// already exists in the registry.
	ErrCodeTaken = errors.New("trust code already taken")

	// ErrInvalidStatus is returned for an unknown target status.
	ErrInvalidStatus = errors.New("invalid trust status")

	// ErrArchived is returned when changing the status of an archived
	// trust; archived is terminal.
	ErrArchived = errors.New("trust is archived")
)
