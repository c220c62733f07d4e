package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/diff/model"
	"github.com/reviewhub/reviewhub/internal/diff/repository"
	groupModel "github.com/reviewhub/reviewhub/internal/group/model"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	rrModel "github.com/reviewhub/reviewhub/internal/reviewrequest/model"
	rrRepository "github.com/reviewhub/reviewhub/internal/reviewrequest/repository"
	scmModel "github.com/reviewhub/reviewhub/internal/scm/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&identityModel.User{},
		&groupModel.Group{},
		&scmModel.Repository{},
		&rrModel.ReviewRequest{},
		&rrModel.ReviewRequestDraft{},
		&model.DiffSet{},
		&model.FileDiff{},
	))
	return db
}

type fixture struct {
	svc   Service
	db    *gorm.DB
	alice *identityModel.User
	rr    *rrModel.ReviewRequest
}

func setup(t *testing.T, maxSize int) *fixture {
	db := setupTestDB(t)
	logger := zap.NewNop().Sugar()

	alice := &identityModel.User{Username: "alice", IsActive: true}
	require.NoError(t, db.Create(alice).Error)
	repo := &scmModel.Repository{Name: "main", Path: "/var/git/main"}
	require.NoError(t, db.Create(repo).Error)
	rr := &rrModel.ReviewRequest{
		SubmitterID:  alice.ID,
		Status:       rrModel.StatusPending,
		RepositoryID: &repo.ID,
	}
	require.NoError(t, db.Create(rr).Error)

	svc := New(repository.New(db, logger), rrRepository.New(db, logger), db, Config{MaxDiffSize: maxSize}, logger)
	return &fixture{svc: svc, db: db, alice: alice, rr: rr}
}

func TestUploadAttachesToDraft(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	resp, err := f.svc.Upload(ctx, f.alice, f.rr.ID, nil, &model.UploadDiffRequest{
		Path:    sampleDiff,
		Basedir: "/trunk",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Revision)
	assert.Len(t, resp.Files, 2)

	var draft rrModel.ReviewRequestDraft
	require.NoError(t, f.db.Where("review_request_id = ?", f.rr.ID).First(&draft).Error)
	require.NotNil(t, draft.DiffSetID)
	assert.Equal(t, resp.ID, *draft.DiffSetID)

	// A second upload takes the next revision.
	resp2, err := f.svc.Upload(ctx, f.alice, f.rr.ID, nil, &model.UploadDiffRequest{
		Path:    sampleDiff,
		Basedir: "/trunk",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp2.Revision)
}

func TestUploadWithoutRepository(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	bare := &rrModel.ReviewRequest{SubmitterID: f.alice.ID, Status: rrModel.StatusPending}
	require.NoError(t, f.db.Create(bare).Error)

	_, err := f.svc.Upload(ctx, f.alice, bare.ID, nil, &model.UploadDiffRequest{
		Path:    sampleDiff,
		Basedir: "/trunk",
	})
	assert.ErrorIs(t, err, model.ErrNoRepository)
}

func TestUploadTooBig(t *testing.T) {
	f := setup(t, 16)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, f.alice, f.rr.ID, nil, &model.UploadDiffRequest{
		Path:    sampleDiff,
		Basedir: "/trunk",
	})
	var tooBig *model.DiffTooBigError
	require.ErrorAs(t, err, &tooBig)
	assert.Equal(t, 16, tooBig.MaxSize)
	assert.Equal(t, len(sampleDiff), tooBig.Size)
}

func TestUploadCollectsAllFieldErrors(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, f.alice, f.rr.ID, nil, &model.UploadDiffRequest{})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "path")
	assert.Contains(t, verr.Fields, "basedir")
}

func TestUploadUnparsableDiff(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, f.alice, f.rr.ID, nil, &model.UploadDiffRequest{
		Path:    "this is not a diff",
		Basedir: "/trunk",
	})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "path")
}

func TestUploadPermission(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	mallory := &identityModel.User{Username: "mallory", IsActive: true}
	require.NoError(t, f.db.Create(mallory).Error)

	_, err := f.svc.Upload(ctx, mallory, f.rr.ID, nil, &model.UploadDiffRequest{
		Path:    sampleDiff,
		Basedir: "/trunk",
	})
	assert.ErrorIs(t, err, rrModel.ErrPermissionDenied)
}
