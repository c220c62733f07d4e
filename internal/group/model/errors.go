package model

import "errors"

var (
	// ErrGroupNotFound indicates that the requested review group does not exist.
	ErrGroupNotFound = errors.New("review group not found")
	// ErrGroupExists indicates that a review group with the given name already exists.
	ErrGroupExists = errors.New("review group already exists")
	// ErrInvalidGroupName indicates that the provided group name is invalid (e.g., empty).
	ErrInvalidGroupName = errors.New("invalid group name")
	// ErrMemberNotFound indicates that a listed member username does not exist.
	ErrMemberNotFound = errors.New("member user not found")
	// ErrPermissionDenied indicates that the actor may not manage review groups.
	ErrPermissionDenied = errors.New("permission denied")
)
