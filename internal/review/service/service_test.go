package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	diffModel "github.com/reviewhub/reviewhub/internal/diff/model"
	diffRepository "github.com/reviewhub/reviewhub/internal/diff/repository"
	groupModel "github.com/reviewhub/reviewhub/internal/group/model"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	"github.com/reviewhub/reviewhub/internal/review/model"
	"github.com/reviewhub/reviewhub/internal/review/repository"
	rrModel "github.com/reviewhub/reviewhub/internal/reviewrequest/model"
	rrRepository "github.com/reviewhub/reviewhub/internal/reviewrequest/repository"
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
		&rrModel.ReviewRequest{},
		&rrModel.ReviewRequestDraft{},
		&diffModel.DiffSet{},
		&diffModel.FileDiff{},
		&model.Review{},
		&model.DiffComment{},
	))
	return db
}

type fixture struct {
	svc      Service
	db       *gorm.DB
	alice    *identityModel.User // submitter
	bob      *identityModel.User // reviewer, directly targeted
	mallory  *identityModel.User // outsider
	rr       *rrModel.ReviewRequest
	filediff *diffModel.FileDiff
	other    *diffModel.FileDiff
}

func setup(t *testing.T) *fixture {
	db := setupTestDB(t)
	logger := zap.NewNop().Sugar()

	f := &fixture{db: db}
	f.alice = &identityModel.User{Username: "alice", IsActive: true}
	f.bob = &identityModel.User{Username: "bob", IsActive: true}
	f.mallory = &identityModel.User{Username: "mallory", IsActive: true}
	require.NoError(t, db.Create(f.alice).Error)
	require.NoError(t, db.Create(f.bob).Error)
	require.NoError(t, db.Create(f.mallory).Error)

	f.rr = &rrModel.ReviewRequest{
		SubmitterID:  f.alice.ID,
		Status:       rrModel.StatusPending,
		Public:       true,
		Summary:      "Summary",
		TargetPeople: []identityModel.User{*f.bob},
	}
	require.NoError(t, db.Create(f.rr).Error)

	ds := &diffModel.DiffSet{
		ReviewRequestID: f.rr.ID,
		Revision:        1,
		Draft:           false,
		FileDiffs: []diffModel.FileDiff{
			{SourceFile: "a.go", DestFile: "a.go"},
			{SourceFile: "b.go", DestFile: "b.go"},
		},
	}
	require.NoError(t, db.Create(ds).Error)
	f.filediff = &ds.FileDiffs[0]
	f.other = &ds.FileDiffs[1]

	f.svc = New(repository.New(db, logger), rrRepository.New(db, logger), diffRepository.New(db, logger), db, logger)
	return f
}

func boolPtr(b bool) *bool     { return &b }
func strPtr(s string) *string  { return &s }
func uintPtr(v uint64) *uint64 { return &v }

func (f *fixture) draftReview(t *testing.T) *model.ReviewResponse {
	resp, err := f.svc.CreateReview(context.Background(), f.bob, f.rr.ID, nil, &model.CreateReviewRequest{
		BodyTop: strPtr("Looks mostly fine"),
	})
	require.NoError(t, err)
	return resp
}

func TestCreateReviewReusesDraft(t *testing.T) {
	f := setup(t)
	first := f.draftReview(t)
	second := f.draftReview(t)
	assert.Equal(t, first.ID, second.ID, "one draft review per user per request")
}

func TestConcurrentFirstReviewsShareDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// The unique index on draft reviews makes the loser of the race
	// land on the winner's row.
	ids := make([]uint64, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.svc.CreateReview(ctx, f.bob, f.rr.ID, nil, &model.CreateReviewRequest{})
			assert.NoError(t, err)
			if resp != nil {
				ids[i] = resp.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, ids[0], ids[1])
	var count int64
	require.NoError(t, f.db.Model(&model.Review{}).
		Where("review_request_id = ? AND user_id = ? AND public = ?", f.rr.ID, f.bob.ID, false).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPublishShipItBumpsCounter(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rv := f.draftReview(t)

	_, err := f.svc.UpdateReview(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateReviewRequest{
		ShipIt: boolPtr(true),
		Public: boolPtr(true),
	})
	require.NoError(t, err)

	var rr rrModel.ReviewRequest
	require.NoError(t, f.db.First(&rr, f.rr.ID).Error)
	assert.Equal(t, 1, rr.ShipItCount)

	// Published reviews are immutable.
	_, err = f.svc.UpdateReview(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateReviewRequest{
		BodyTop: strPtr("edited"),
	})
	assert.ErrorIs(t, err, model.ErrReviewPublished)
}

func TestDraftReviewHiddenFromOthers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rv := f.draftReview(t)

	_, err := f.svc.GetReview(ctx, f.mallory, f.rr.ID, nil, rv.ID)
	assert.ErrorIs(t, err, model.ErrReviewNotFound)

	reviews, err := f.svc.ListReviews(ctx, f.mallory, f.rr.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	// Publishing makes it visible.
	_, err = f.svc.UpdateReview(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateReviewRequest{Public: boolPtr(true)})
	require.NoError(t, err)

	reviews, err = f.svc.ListReviews(ctx, f.mallory, f.rr.ID, nil)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestCreateCommentValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rv := f.draftReview(t)

	// Every invalid field is reported at once.
	_, err := f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID: 9999,
		FirstLine:  0,
		NumLines:   0,
	}, nil)
	var verr *diffModel.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "filediff_id")
	assert.Contains(t, verr.Fields, "first_line")
	assert.Contains(t, verr.Fields, "num_lines")
	assert.Contains(t, verr.Fields, "text")
}

func TestCreateCommentInterdiff(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rv := f.draftReview(t)

	// The comparison diff must differ from the base diff.
	_, err := f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID:      f.filediff.ID,
		InterFileDiffID: uintPtr(f.filediff.ID),
		Text:            strPtr("same diff twice"),
		FirstLine:       1,
		NumLines:        1,
	}, nil)
	var verr *diffModel.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "interfilediff_id")

	resp, err := f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID:      f.filediff.ID,
		InterFileDiffID: uintPtr(f.other.ID),
		Text:            strPtr("regressed between revisions"),
		FirstLine:       1,
		NumLines:        1,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.InterFileDiffID)
	assert.Equal(t, f.other.ID, *resp.InterFileDiffID)
}

func TestCommentIssueSemantics(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rv := f.draftReview(t)

	// issue_opened drives the issue state; a supplied status is ignored.
	dropped := "dropped"
	resp, err := f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID:  f.filediff.ID,
		Text:        strPtr("this leaks"),
		FirstLine:   1,
		NumLines:    2,
		IssueOpened: boolPtr(true),
		IssueStatus: &dropped,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.IssueStatus)
	assert.Equal(t, "open", *resp.IssueStatus)

	// Without issue_opened the comment tracks no issue.
	resp, err = f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID:  f.filediff.ID,
		Text:        strPtr("nit"),
		FirstLine:   3,
		NumLines:    1,
		IssueStatus: &dropped,
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, resp.IssueStatus)
}

func TestDraftCommentIssueStatusUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rv := f.draftReview(t)

	comment, err := f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID:  f.filediff.ID,
		Text:        strPtr("needs a guard"),
		FirstLine:   1,
		NumLines:    1,
		IssueOpened: boolPtr(true),
	}, nil)
	require.NoError(t, err)

	// The owner may move the issue state before publishing.
	resolved := "resolved"
	resp, err := f.svc.UpdateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, comment.ID, &model.UpdateCommentRequest{
		IssueStatus: &resolved,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.IssueStatus)
	assert.Equal(t, "resolved", *resp.IssueStatus)

	// A comment without an issue rejects a status.
	plain, err := f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID: f.filediff.ID,
		Text:       strPtr("nit"),
		FirstLine:  2,
		NumLines:   1,
	}, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, plain.ID, &model.UpdateCommentRequest{
		IssueStatus: &resolved,
	}, nil)
	var verr *diffModel.ValidationError
	assert.ErrorAs(t, err, &verr)

	// A toggle in the same update wins over the supplied status.
	dropped := "dropped"
	resp, err = f.svc.UpdateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, plain.ID, &model.UpdateCommentRequest{
		IssueOpened: boolPtr(true),
		IssueStatus: &dropped,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.IssueStatus)
	assert.Equal(t, "open", *resp.IssueStatus)
}

func TestIssueStatusOnPublishedReview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rv := f.draftReview(t)

	comment, err := f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID:  f.filediff.ID,
		Text:        strPtr("off by one"),
		FirstLine:   1,
		NumLines:    1,
		IssueOpened: boolPtr(true),
	}, nil)
	require.NoError(t, err)

	_, err = f.svc.UpdateReview(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateReviewRequest{Public: boolPtr(true)})
	require.NoError(t, err)

	// The submitter may resolve the issue.
	resolved := "resolved"
	resp, err := f.svc.UpdateComment(ctx, f.alice, f.rr.ID, nil, rv.ID, comment.ID, &model.UpdateCommentRequest{
		IssueStatus: &resolved,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.IssueStatus)
	assert.Equal(t, "resolved", *resp.IssueStatus)

	// An outsider may not.
	open := "open"
	_, err = f.svc.UpdateComment(ctx, f.mallory, f.rr.ID, nil, rv.ID, comment.ID, &model.UpdateCommentRequest{
		IssueStatus: &open,
	}, nil)
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	// Nothing but the issue state may change once published.
	_, err = f.svc.UpdateComment(ctx, f.alice, f.rr.ID, nil, rv.ID, comment.ID, &model.UpdateCommentRequest{
		Text:        strPtr("edited"),
		IssueStatus: &open,
	}, nil)
	assert.ErrorIs(t, err, model.ErrReviewPublished)

	// Unknown status values are rejected.
	bogus := "bogus"
	_, err = f.svc.UpdateComment(ctx, f.alice, f.rr.ID, nil, rv.ID, comment.ID, &model.UpdateCommentRequest{
		IssueStatus: &bogus,
	}, nil)
	var verr *diffModel.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCommentExtraDataMerge(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rv := f.draftReview(t)

	comment, err := f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID: f.filediff.ID,
		Text:       strPtr("typo"),
		FirstLine:  1,
		NumLines:   1,
	}, model.JSONMap{"client": "cli", "version": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, "cli", comment.ExtraData["client"])

	// Updates merge key by key instead of replacing the map.
	updated, err := f.svc.UpdateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, comment.ID, &model.UpdateCommentRequest{}, model.JSONMap{"version": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, "cli", updated.ExtraData["client"])
	assert.Equal(t, float64(2), updated.ExtraData["version"])
}

func TestDeleteCommentDraftOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rv := f.draftReview(t)

	comment, err := f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID: f.filediff.ID,
		Text:       strPtr("drop me"),
		FirstLine:  1,
		NumLines:   1,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteComment(ctx, f.bob, f.rr.ID, nil, rv.ID, comment.ID))

	comment, err = f.svc.CreateComment(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateCommentRequest{
		FileDiffID: f.filediff.ID,
		Text:       strPtr("keep me"),
		FirstLine:  1,
		NumLines:   1,
	}, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateReview(ctx, f.bob, f.rr.ID, nil, rv.ID, &model.CreateReviewRequest{Public: boolPtr(true)})
	require.NoError(t, err)

	err = f.svc.DeleteComment(ctx, f.bob, f.rr.ID, nil, rv.ID, comment.ID)
	assert.ErrorIs(t, err, model.ErrReviewPublished)
}
