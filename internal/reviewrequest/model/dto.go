package model

import "time"

// CreateReviewRequestRequest is the payload for creating a review request.
// Repository accepts a repository path, name, or numeric id; SubmitAs lets
// administrators create a request on behalf of another user.
type CreateReviewRequestRequest struct {
	Repository string  `json:"repository"`
	SubmitAs   string  `json:"submit_as"`
	Changenum  *uint64 `json:"changenum"`
	CommitID   *string `json:"commit_id"`
}

// UpdateDraftRequest is the payload for modifying a review request draft.
// Nil fields are left untouched. Target lists are comma-separated names.
type UpdateDraftRequest struct {
	Summary      *string `json:"summary"`
	Description  *string `json:"description"`
	Changenum    *uint64 `json:"changenum"`
	CommitID     *string `json:"commit_id"`
	TargetGroups *string `json:"target_groups"`
	TargetPeople *string `json:"target_people"`
	ChangeText   *string `json:"changedescription"`
	Public       *bool   `json:"public"`
}

// UpdateReviewRequestRequest is the payload for PUT on a review request
// itself: closing, reopening, or changing the status directly.
type UpdateReviewRequestRequest struct {
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

// ReviewRequestResponse is the API representation of a review request.
type ReviewRequestResponse struct {
	ID           uint64    `json:"id"`
	Status       string    `json:"status"`
	Public       bool      `json:"public"`
	Submitter    string    `json:"submitter"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description"`
	Changenum    *uint64   `json:"changenum,omitempty"`
	CommitID     *string   `json:"commit_id,omitempty"`
	TimeAdded    time.Time `json:"time_added"`
	LastUpdated  time.Time `json:"last_updated"`
	ShipItCount  int       `json:"ship_it_count"`
	TargetGroups []string  `json:"target_groups"`
	TargetPeople []string  `json:"target_people"`
}

// NewReviewRequestResponse builds the API representation of a request.
// Target associations must be preloaded.
func NewReviewRequestResponse(r *ReviewRequest) *ReviewRequestResponse {
	resp := &ReviewRequestResponse{
		ID:           r.DisplayID(),
		Status:       StatusString(r.Status),
		Public:       r.Public,
		Submitter:    r.Submitter.Username,
		Summary:      r.Summary,
		Description:  r.Description,
		Changenum:    r.Changenum,
		CommitID:     r.CommitID,
		TimeAdded:    r.TimeAdded,
		LastUpdated:  r.LastUpdated,
		ShipItCount:  r.ShipItCount,
		TargetGroups: make([]string, 0, len(r.TargetGroups)),
		TargetPeople: make([]string, 0, len(r.TargetPeople)),
	}
	for i := range r.TargetGroups {
		resp.TargetGroups = append(resp.TargetGroups, r.TargetGroups[i].Name)
	}
	for i := range r.TargetPeople {
		resp.TargetPeople = append(resp.TargetPeople, r.TargetPeople[i].Username)
	}
	return resp
}

// DraftResponse is the API representation of a review request draft.
type DraftResponse struct {
	ID           uint64    `json:"id"`
	Summary      *string   `json:"summary,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Changenum    *uint64   `json:"changenum,omitempty"`
	CommitID     *string   `json:"commit_id,omitempty"`
	TargetGroups []string  `json:"target_groups,omitempty"`
	TargetPeople []string  `json:"target_people,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
}

// NewDraftResponse builds the API representation of a draft.
func NewDraftResponse(d *ReviewRequestDraft) *DraftResponse {
	resp := &DraftResponse{
		ID:          d.ID,
		Summary:     d.Summary,
		Description: d.Description,
		Changenum:   d.Changenum,
		CommitID:    d.CommitID,
		LastUpdated: d.LastUpdated,
	}
	for i := range d.TargetGroups {
		resp.TargetGroups = append(resp.TargetGroups, d.TargetGroups[i].Name)
	}
	for i := range d.TargetPeople {
		resp.TargetPeople = append(resp.TargetPeople, d.TargetPeople[i].Username)
	}
	return resp
}

// ChangeDescriptionResponse is the API representation of a change record.
type ChangeDescriptionResponse struct {
	ID            uint64        `json:"id"`
	Text          string        `json:"text"`
	FieldsChanged FieldsChanged `json:"fields_changed"`
	Timestamp     time.Time     `json:"timestamp"`
}

// NewChangeDescriptionResponse builds the API representation of a change.
func NewChangeDescriptionResponse(c *ChangeDescription) *ChangeDescriptionResponse {
	return &ChangeDescriptionResponse{
		ID:            c.ID,
		Text:          c.Text,
		FieldsChanged: c.FieldsChanged,
		Timestamp:     c.Timestamp,
	}
}
