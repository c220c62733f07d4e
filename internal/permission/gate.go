// Package permission centralizes the visibility and modification rules for
// review requests and reviews. All checks are pure functions over preloaded
// aggregates; callers load the associations, the gate only inspects them.
package permission

import (
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	reviewModel "github.com/reviewhub/reviewhub/internal/review/model"
	rrModel "github.com/reviewhub/reviewhub/internal/reviewrequest/model"
)

// CanViewReviewRequest reports whether the actor may see the review request.
// The request's TargetGroups (with Users) and TargetPeople must be preloaded.
//
// Administrators and the submitter always see it. Anyone else needs the
// request to be public, and every invite-only target group hides it from
// non-members unless the actor is individually targeted.
func CanViewReviewRequest(actor *identityModel.User, r *rrModel.ReviewRequest) bool {
	if actor != nil && actor.IsAdmin {
		return true
	}
	if actor != nil && actor.ID == r.SubmitterID {
		return true
	}
	if !r.Public {
		return false
	}
	if actor != nil && r.IsTargetedAt(actor.ID) {
		return true
	}
	for i := range r.TargetGroups {
		g := &r.TargetGroups[i]
		if !g.InviteOnly {
			continue
		}
		if actor == nil || !g.IsMember(actor.ID) {
			return false
		}
	}
	return true
}

// CanEditReviewRequest reports whether the actor may modify the request's
// draft and upload diffs to it.
func CanEditReviewRequest(actor *identityModel.User, r *rrModel.ReviewRequest) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin || actor.ID == r.SubmitterID
}

// CanCloseReviewRequest reports whether the actor may close or reopen the
// request. Same rule as editing.
func CanCloseReviewRequest(actor *identityModel.User, r *rrModel.ReviewRequest) bool {
	return CanEditReviewRequest(actor, r)
}

// CanDeleteReviewRequest reports whether the actor may permanently delete
// the request. Deletion requires the explicit grant, ownership is not
// enough.
func CanDeleteReviewRequest(actor *identityModel.User) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin || actor.CanDelete
}

// CanModifyReview reports whether the actor may edit a review or its
// comments. Only the review's owner may touch it while it is a draft;
// published reviews are immutable apart from issue states.
func CanModifyReview(actor *identityModel.User, rv *reviewModel.Review) bool {
	if actor == nil {
		return false
	}
	if rv.Public {
		return false
	}
	return actor.IsAdmin || actor.ID == rv.UserID
}

// CanUpdateCommentIssueStatus reports whether the actor may change the
// issue state of a comment on a published review. Recipients of the review
// request may do so: the submitter, individually targeted reviewers,
// members of a target group, and administrators.
func CanUpdateCommentIssueStatus(actor *identityModel.User, r *rrModel.ReviewRequest) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin || actor.ID == r.SubmitterID {
		return true
	}
	if r.IsTargetedAt(actor.ID) {
		return true
	}
	for i := range r.TargetGroups {
		if r.TargetGroups[i].IsMember(actor.ID) {
			return true
		}
	}
	return false
}
