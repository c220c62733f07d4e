package model

import "time"

// CreateReviewRequest is the payload for creating or updating a review
// draft.
type CreateReviewRequest struct {
	ShipIt     *bool   `json:"ship_it"`
	BodyTop    *string `json:"body_top"`
	BodyBottom *string `json:"body_bottom"`
	Public     *bool   `json:"public"`
}

// CreateCommentRequest is the payload for creating a diff comment. Known
// fields are bound here; unknown payload keys are stored as extra data by
// the handler.
type CreateCommentRequest struct {
	FileDiffID      uint64  `json:"filediff_id"`
	InterFileDiffID *uint64 `json:"interfilediff_id"`
	Text            *string `json:"text"`
	FirstLine       uint64  `json:"first_line"`
	NumLines        uint64  `json:"num_lines"`
	IssueOpened     *bool   `json:"issue_opened"`
	IssueStatus     *string `json:"issue_status"`
}

// UpdateCommentRequest is the payload for updating a diff comment.
type UpdateCommentRequest struct {
	Text        *string `json:"text"`
	FirstLine   *uint64 `json:"first_line"`
	NumLines    *uint64 `json:"num_lines"`
	IssueOpened *bool   `json:"issue_opened"`
	IssueStatus *string `json:"issue_status"`
}

// ReviewResponse is the API representation of a review.
type ReviewResponse struct {
	ID         uint64    `json:"id"`
	User       string    `json:"user"`
	Public     bool      `json:"public"`
	ShipIt     bool      `json:"ship_it"`
	BodyTop    string    `json:"body_top"`
	BodyBottom string    `json:"body_bottom"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewReviewResponse builds the API representation of a review. User must
// be preloaded.
func NewReviewResponse(r *Review) *ReviewResponse {
	return &ReviewResponse{
		ID:         r.ID,
		User:       r.User.Username,
		Public:     r.Public,
		ShipIt:     r.ShipIt,
		BodyTop:    r.BodyTop,
		BodyBottom: r.BodyBottom,
		Timestamp:  r.Timestamp,
	}
}

// CommentResponse is the API representation of a diff comment. IssueStatus
// is null when the comment does not track an issue.
type CommentResponse struct {
	ID              uint64    `json:"id"`
	FileDiffID      uint64    `json:"filediff_id"`
	InterFileDiffID *uint64   `json:"interfilediff_id,omitempty"`
	Text            string    `json:"text"`
	FirstLine       uint64    `json:"first_line"`
	NumLines        uint64    `json:"num_lines"`
	IssueOpened     bool      `json:"issue_opened"`
	IssueStatus     *string   `json:"issue_status"`
	ExtraData       JSONMap   `json:"extra_data"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewCommentResponse builds the API representation of a comment.
func NewCommentResponse(c *DiffComment) *CommentResponse {
	resp := &CommentResponse{
		ID:              c.ID,
		FileDiffID:      c.FileDiffID,
		InterFileDiffID: c.InterFileDiffID,
		Text:            c.Text,
		FirstLine:       c.FirstLine,
		NumLines:        c.NumLines,
		IssueOpened:     c.IssueOpened,
		ExtraData:       c.ExtraData,
		Timestamp:       c.Timestamp,
	}
	if c.IssueStatus != "" {
		s := IssueStatusString(c.IssueStatus)
		resp.IssueStatus = &s
	}
	return resp
}
