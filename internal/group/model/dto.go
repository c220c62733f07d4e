// Package model provides data transfer objects and domain models for the group module.
package model

// AddGroupRequest represents the request to create a review group.
type AddGroupRequest struct {
	Name        string   `json:"name"         binding:"required"`
	DisplayName string   `json:"display_name"`
	InviteOnly  bool     `json:"invite_only"`
	Members     []string `json:"members"`
}

// GroupResponse represents a review group with its members.
type GroupResponse struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	InviteOnly  bool     `json:"invite_only"`
	Members     []string `json:"members"`
}
