package model

import "errors"

var (
	// ErrReviewNotFound is returned when a review does not exist on the
	// review request.
	ErrReviewNotFound = errors.New("review not found")

	// ErrCommentNotFound is returned when a diff comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrPermissionDenied is returned when the actor may not modify the
	// review or comment.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrReviewPublished is returned when mutating a review that is
	// already published.
	ErrReviewPublished = errors.New("review is already published")
)
