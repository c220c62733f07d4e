// Package model provides data transfer objects for statistics module.
package model

// ReviewerStatistics represents per-reviewer activity totals.
type ReviewerStatistics struct {
	UserID      uint64 `json:"user_id"`
	Username    string `json:"username"`
	ReviewCount int    `json:"review_count"`
	ShipItCount int    `json:"ship_it_count"`
	IsActive    bool   `json:"is_active"`
}

// ReviewersStatisticsResponse represents response for reviewer statistics.
type ReviewersStatisticsResponse struct {
	Reviewers []ReviewerStatistics `json:"reviewers"`
	Total     int                  `json:"total"`
}

// ReviewRequestStatistics represents aggregate review request totals.
type ReviewRequestStatistics struct {
	TotalRequests        int     `json:"total_requests"`
	PendingRequests      int     `json:"pending_requests"`
	SubmittedRequests    int     `json:"submitted_requests"`
	DiscardedRequests    int     `json:"discarded_requests"`
	AverageReviewsPerReq float64 `json:"average_reviews_per_request"`
	OpenIssues           int     `json:"open_issues"`
}

// ReviewRequestStatisticsResponse represents response for review request statistics.
type ReviewRequestStatisticsResponse struct {
	Statistics ReviewRequestStatistics `json:"statistics"`
}
