package model

import "errors"

var (
	// ErrReviewRequestNotFound is returned when a review request does not
	// exist in the requested scope.
	ErrReviewRequestNotFound = errors.New("review request not found")

	// ErrDraftNotFound is returned when a review request has no pending draft.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrChangeNotFound is returned when a change description does not exist.
	ErrChangeNotFound = errors.New("change description not found")

	// ErrPermissionDenied is returned when the actor may not see or modify
	// the review request.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidStatus is returned for unknown status values or forbidden
	// transitions, such as reopening into the wrong state.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrNotClosed is returned when reopening a request that is still pending.
	ErrNotClosed = errors.New("review request is not closed")

	// ErrEmptyPublish is returned when publishing a draft that carries no
	// changes on an already-public request.
	ErrEmptyPublish = errors.New("nothing to publish")

	// ErrSummaryRequired is returned when publishing without a summary.
	ErrSummaryRequired = errors.New("summary is required")
)
