// Package service provides business logic layer for the group module.
package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	groupModel "github.com/reviewhub/reviewhub/internal/group/model"
	"github.com/reviewhub/reviewhub/internal/group/repository"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	identityRepository "github.com/reviewhub/reviewhub/internal/identity/repository"
)

// Service defines the interface for group business logic operations.
type Service interface {
	// AddGroup creates a new review group with members.
	AddGroup(
		ctx context.Context,
		actor *identityModel.User,
		localSiteID *uint64,
		req *groupModel.AddGroupRequest,
	) (*groupModel.GroupResponse, error)

	// GetGroup returns a review group with its members.
	GetGroup(ctx context.Context, name string, localSiteID *uint64) (*groupModel.GroupResponse, error)
}

type service struct {
	repo   repository.Repository
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new group service instance.
func New(repo repository.Repository, db *gorm.DB, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// AddGroup creates a new review group with members in a transaction.
func (s *service) AddGroup(
	ctx context.Context,
	actor *identityModel.User,
	localSiteID *uint64,
	req *groupModel.AddGroupRequest,
) (*groupModel.GroupResponse, error) {
	if req.Name == "" {
		return nil, groupModel.ErrInvalidGroupName
	}
	if actor == nil || !actor.IsAdmin {
		return nil, groupModel.ErrPermissionDenied
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}

	var result *groupModel.GroupResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.New(tx, s.logger)
		txUsers := identityRepository.New(tx, s.logger)

		group := &groupModel.Group{
			Name:        req.Name,
			DisplayName: displayName,
			InviteOnly:  req.InviteOnly,
			LocalSiteID: localSiteID,
		}
		if err := txRepo.Create(ctx, group); err != nil {
			return err
		}

		for _, username := range req.Members {
			if username == "" {
				continue
			}
			user, err := txUsers.GetByUsername(ctx, username)
			if err != nil {
				return groupModel.ErrMemberNotFound
			}
			if err := txRepo.AddMember(ctx, group, user); err != nil {
				return err
			}
		}

		members, err := txRepo.GetMemberUsernames(ctx, group.ID)
		if err != nil {
			return err
		}

		result = &groupModel.GroupResponse{
			Name:        group.Name,
			DisplayName: group.DisplayName,
			InviteOnly:  group.InviteOnly,
			Members:     members,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetGroup returns a review group with its members.
func (s *service) GetGroup(
	ctx context.Context,
	name string,
	localSiteID *uint64,
) (*groupModel.GroupResponse, error) {
	if name == "" {
		return nil, groupModel.ErrInvalidGroupName
	}

	group, err := s.repo.GetByName(ctx, name, localSiteID)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.GetMemberUsernames(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	return &groupModel.GroupResponse{
		Name:        group.Name,
		DisplayName: group.DisplayName,
		InviteOnly:  group.InviteOnly,
		Members:     members,
	}, nil
}
