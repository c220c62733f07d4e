package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/group/model"
	"github.com/reviewhub/reviewhub/internal/group/repository"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&identityModel.User{}, &model.Group{}))
	return db
}

func setupService(t *testing.T) (Service, *gorm.DB) {
	db := setupTestDB(t)
	logger := zap.NewNop().Sugar()
	return New(repository.New(db, logger), db, logger), db
}

func createUser(t *testing.T, db *gorm.DB, username string, admin bool) *identityModel.User {
	u := &identityModel.User{Username: username, IsActive: true, IsAdmin: admin}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestAddGroupWithMembers(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	admin := createUser(t, db, "admin", true)
	createUser(t, db, "alice", false)
	createUser(t, db, "bob", false)

	resp, err := svc.AddGroup(ctx, admin, nil, &model.AddGroupRequest{
		Name:       "security",
		InviteOnly: true,
		Members:    []string{"alice", "bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, "security", resp.Name)
	assert.Equal(t, "security", resp.DisplayName, "display name defaults to the group name")
	assert.True(t, resp.InviteOnly)
	assert.ElementsMatch(t, []string{"alice", "bob"}, resp.Members)

	got, err := svc.GetGroup(ctx, "security", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, got.Members)
}

func TestAddGroupRequiresAdmin(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	alice := createUser(t, db, "alice", false)

	_, err := svc.AddGroup(ctx, alice, nil, &model.AddGroupRequest{Name: "devs"})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = svc.AddGroup(ctx, nil, nil, &model.AddGroupRequest{Name: "devs"})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestAddGroupUnknownMemberRollsBack(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	admin := createUser(t, db, "admin", true)

	_, err := svc.AddGroup(ctx, admin, nil, &model.AddGroupRequest{
		Name:    "devs",
		Members: []string{"ghost"},
	})
	assert.ErrorIs(t, err, model.ErrMemberNotFound)

	// The failed transaction must not leave the group behind.
	_, err = svc.GetGroup(ctx, "devs", nil)
	assert.ErrorIs(t, err, model.ErrGroupNotFound)
}

func TestAddGroupDuplicateName(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	admin := createUser(t, db, "admin", true)

	_, err := svc.AddGroup(ctx, admin, nil, &model.AddGroupRequest{Name: "devs"})
	require.NoError(t, err)

	_, err = svc.AddGroup(ctx, admin, nil, &model.AddGroupRequest{Name: "devs"})
	assert.ErrorIs(t, err, model.ErrGroupExists)
}

func TestGetGroupNotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetGroup(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, model.ErrGroupNotFound)

	_, err = svc.GetGroup(context.Background(), "", nil)
	assert.ErrorIs(t, err, model.ErrInvalidGroupName)
}
