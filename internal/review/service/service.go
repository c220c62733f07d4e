package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	diffModel "github.com/reviewhub/reviewhub/internal/diff/model"
	diffRepository "github.com/reviewhub/reviewhub/internal/diff/repository"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	"github.com/reviewhub/reviewhub/internal/permission"
	"github.com/reviewhub/reviewhub/internal/review/model"
	"github.com/reviewhub/reviewhub/internal/review/repository"
	rrModel "github.com/reviewhub/reviewhub/internal/reviewrequest/model"
	rrRepository "github.com/reviewhub/reviewhub/internal/reviewrequest/repository"
)

// Service handles review and diff comment business logic.
type Service interface {
	// CreateReview returns the actor's draft review on the request,
	// creating one when absent, and applies the supplied fields. Setting
	// public publishes the draft.
	CreateReview(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, req *model.CreateReviewRequest) (*model.ReviewResponse, error)
	GetReview(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, reviewID uint64) (*model.ReviewResponse, error)
	ListReviews(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64) ([]model.ReviewResponse, error)
	UpdateReview(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, reviewID uint64, req *model.CreateReviewRequest) (*model.ReviewResponse, error)
	DeleteReview(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, reviewID uint64) error

	CreateComment(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, reviewID uint64, req *model.CreateCommentRequest, extra model.JSONMap) (*model.CommentResponse, error)
	GetComment(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, reviewID, commentID uint64) (*model.CommentResponse, error)
	ListComments(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, reviewID uint64, f repository.CommentFilters) ([]model.CommentResponse, error)
	UpdateComment(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, reviewID, commentID uint64, req *model.UpdateCommentRequest, extra model.JSONMap) (*model.CommentResponse, error)
	DeleteComment(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, reviewID, commentID uint64) error
}

type service struct {
	repo   repository.Repository
	rr     rrRepository.Repository
	diffs  diffRepository.Repository
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new review service.
func New(
	repo repository.Repository,
	rr rrRepository.Repository,
	diffs diffRepository.Repository,
	db *gorm.DB,
	logger *zap.SugaredLogger,
) Service {
	return &service{repo: repo, rr: rr, diffs: diffs, db: db, logger: logger}
}

// getVisible loads the review request and applies the visibility gate.
func (s *service) getVisible(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
) (*rrModel.ReviewRequest, error) {
	rr, err := s.rr.GetByDisplayID(ctx, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	if !permission.CanViewReviewRequest(actor, rr) {
		return nil, rrModel.ErrPermissionDenied
	}
	return rr, nil
}

// canSeeReview reports whether the actor may read the review: published
// reviews follow the request's visibility, drafts only their owner's and
// administrators'.
func canSeeReview(actor *identityModel.User, rv *model.Review) bool {
	if rv.Public {
		return true
	}
	if actor == nil {
		return false
	}
	return actor.IsAdmin || actor.ID == rv.UserID
}

func (s *service) CreateReview(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	req *model.CreateReviewRequest,
) (*model.ReviewResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}

	rv, err := s.repo.GetOrCreateDraftReview(ctx, &model.Review{
		ReviewRequestID: rr.ID,
		UserID:          actor.ID,
		User:            *actor,
		Timestamp:       time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return s.applyReviewFields(ctx, rr, rv, req)
}

func (s *service) UpdateReview(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	reviewID uint64,
	req *model.CreateReviewRequest,
) (*model.ReviewResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	rv, err := s.repo.GetReview(ctx, rr.ID, reviewID)
	if err != nil {
		return nil, err
	}
	if !canSeeReview(actor, rv) {
		return nil, model.ErrReviewNotFound
	}
	if !permission.CanModifyReview(actor, rv) {
		if rv.Public {
			return nil, model.ErrReviewPublished
		}
		return nil, model.ErrPermissionDenied
	}
	return s.applyReviewFields(ctx, rr, rv, req)
}

// applyReviewFields copies the supplied fields onto the draft review and
// publishes it when asked. Publishing a ship-it review bumps the request's
// ship-it counter in the same transaction.
func (s *service) applyReviewFields(
	ctx context.Context,
	rr *rrModel.ReviewRequest,
	rv *model.Review,
	req *model.CreateReviewRequest,
) (*model.ReviewResponse, error) {
	if req.ShipIt != nil {
		rv.ShipIt = *req.ShipIt
	}
	if req.BodyTop != nil {
		rv.BodyTop = *req.BodyTop
	}
	if req.BodyBottom != nil {
		rv.BodyBottom = *req.BodyBottom
	}

	publish := req.Public != nil && *req.Public && !rv.Public

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.New(tx, s.logger)
		if publish {
			rv.Public = true
			rv.Timestamp = time.Now()
			if rv.ShipIt {
				txRR := rrRepository.New(tx, s.logger)
				rr.ShipItCount++
				rr.LastUpdated = rv.Timestamp
				if err := txRR.Save(ctx, rr); err != nil {
					return err
				}
			}
		}
		return txRepo.SaveReview(ctx, rv)
	})
	if err != nil {
		return nil, err
	}

	if publish {
		s.logger.Infow("review published",
			"review_request_id", rr.ID, "review_id", rv.ID, "ship_it", rv.ShipIt)
	}
	return model.NewReviewResponse(rv), nil
}

func (s *service) GetReview(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	reviewID uint64,
) (*model.ReviewResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	rv, err := s.repo.GetReview(ctx, rr.ID, reviewID)
	if err != nil {
		return nil, err
	}
	if !canSeeReview(actor, rv) {
		return nil, model.ErrReviewNotFound
	}
	return model.NewReviewResponse(rv), nil
}

func (s *service) ListReviews(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
) ([]model.ReviewResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListReviews(ctx, rr.ID)
	if err != nil {
		return nil, err
	}
	resp := make([]model.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		if !canSeeReview(actor, &reviews[i]) {
			continue
		}
		resp = append(resp, *model.NewReviewResponse(&reviews[i]))
	}
	return resp, nil
}

func (s *service) DeleteReview(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	reviewID uint64,
) error {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return err
	}
	rv, err := s.repo.GetReview(ctx, rr.ID, reviewID)
	if err != nil {
		return err
	}
	if !canSeeReview(actor, rv) {
		return model.ErrReviewNotFound
	}
	if !permission.CanModifyReview(actor, rv) {
		if rv.Public {
			return model.ErrReviewPublished
		}
		return model.ErrPermissionDenied
	}
	return s.repo.DeleteReview(ctx, rv)
}

// validateCommentAnchor checks the filediff references and line range,
// collecting every failure before returning.
func (s *service) validateCommentAnchor(
	ctx context.Context,
	rr *rrModel.ReviewRequest,
	filediffID uint64,
	interFileDiffID *uint64,
	firstLine, numLines uint64,
	verr *diffModel.ValidationError,
) {
	if filediffID == 0 {
		verr.AddFieldError("filediff_id", "a file diff is required")
	} else if _, err := s.diffs.GetFileDiffForRequest(ctx, filediffID, rr.ID); err != nil {
		verr.AddFieldError("filediff_id", "the file diff does not exist or does not belong to this review request")
	}
	if interFileDiffID != nil {
		if *interFileDiffID == filediffID {
			verr.AddFieldError("interfilediff_id", "must differ from filediff_id")
		} else if _, err := s.diffs.GetFileDiffForRequest(ctx, *interFileDiffID, rr.ID); err != nil {
			verr.AddFieldError("interfilediff_id", "the file diff does not exist or does not belong to this review request")
		}
	}
	if firstLine < 1 {
		verr.AddFieldError("first_line", "must be 1 or larger")
	}
	if numLines < 1 {
		verr.AddFieldError("num_lines", "must be 1 or larger")
	}
}

func (s *service) CreateComment(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	reviewID uint64,
	req *model.CreateCommentRequest,
	extra model.JSONMap,
) (*model.CommentResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	rv, err := s.repo.GetReview(ctx, rr.ID, reviewID)
	if err != nil {
		return nil, err
	}
	if !canSeeReview(actor, rv) {
		return nil, model.ErrReviewNotFound
	}
	if !permission.CanModifyReview(actor, rv) {
		if rv.Public {
			return nil, model.ErrReviewPublished
		}
		return nil, model.ErrPermissionDenied
	}

	verr := &diffModel.ValidationError{}
	if req.Text == nil {
		verr.AddFieldError("text", "this field is required")
	}
	s.validateCommentAnchor(ctx, rr, req.FileDiffID, req.InterFileDiffID, req.FirstLine, req.NumLines, verr)
	if verr.HasErrors() {
		return nil, verr
	}

	c := &model.DiffComment{
		ReviewID:        rv.ID,
		FileDiffID:      req.FileDiffID,
		InterFileDiffID: req.InterFileDiffID,
		Text:            *req.Text,
		FirstLine:       req.FirstLine,
		NumLines:        req.NumLines,
		ExtraData:       extra,
		Timestamp:       time.Now(),
	}
	if c.ExtraData == nil {
		c.ExtraData = model.JSONMap{}
	}
	// Whether the comment tracks an issue follows issue_opened alone; a
	// supplied issue_status never overrides it.
	if req.IssueOpened != nil && *req.IssueOpened {
		c.IssueOpened = true
		c.IssueStatus = model.IssueOpen
	}

	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return model.NewCommentResponse(c), nil
}

func (s *service) GetComment(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	reviewID, commentID uint64,
) (*model.CommentResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	rv, err := s.repo.GetReview(ctx, rr.ID, reviewID)
	if err != nil {
		return nil, err
	}
	if !canSeeReview(actor, rv) {
		return nil, model.ErrReviewNotFound
	}
	c, err := s.repo.GetComment(ctx, rv.ID, commentID)
	if err != nil {
		return nil, err
	}
	return model.NewCommentResponse(c), nil
}

func (s *service) ListComments(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	reviewID uint64,
	f repository.CommentFilters,
) ([]model.CommentResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	rv, err := s.repo.GetReview(ctx, rr.ID, reviewID)
	if err != nil {
		return nil, err
	}
	if !canSeeReview(actor, rv) {
		return nil, model.ErrReviewNotFound
	}
	comments, err := s.repo.ListComments(ctx, rv.ID, f)
	if err != nil {
		return nil, err
	}
	resp := make([]model.CommentResponse, 0, len(comments))
	for i := range comments {
		resp = append(resp, *model.NewCommentResponse(&comments[i]))
	}
	return resp, nil
}

func (s *service) UpdateComment(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	reviewID, commentID uint64,
	req *model.UpdateCommentRequest,
	extra model.JSONMap,
) (*model.CommentResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	rv, err := s.repo.GetReview(ctx, rr.ID, reviewID)
	if err != nil {
		return nil, err
	}
	if !canSeeReview(actor, rv) {
		return nil, model.ErrReviewNotFound
	}
	c, err := s.repo.GetComment(ctx, rv.ID, commentID)
	if err != nil {
		return nil, err
	}

	if rv.Public {
		return s.updateIssueStatus(ctx, actor, rr, c, req, extra)
	}

	if !permission.CanModifyReview(actor, rv) {
		return nil, model.ErrPermissionDenied
	}

	if req.Text != nil {
		c.Text = *req.Text
	}
	firstLine, numLines := c.FirstLine, c.NumLines
	if req.FirstLine != nil {
		firstLine = *req.FirstLine
	}
	if req.NumLines != nil {
		numLines = *req.NumLines
	}
	verr := &diffModel.ValidationError{}
	if firstLine < 1 {
		verr.AddFieldError("first_line", "must be 1 or larger")
	}
	if numLines < 1 {
		verr.AddFieldError("num_lines", "must be 1 or larger")
	}
	if verr.HasErrors() {
		return nil, verr
	}
	c.FirstLine = firstLine
	c.NumLines = numLines

	if req.IssueOpened != nil {
		if *req.IssueOpened && !c.IssueOpened {
			c.IssueOpened = true
			c.IssueStatus = model.IssueOpen
		} else if !*req.IssueOpened {
			c.IssueOpened = false
			c.IssueStatus = ""
		}
	} else if req.IssueStatus != nil {
		// The owner may move the issue state on their own draft. A toggle
		// above always wins over a supplied status.
		if !c.IssueOpened {
			verr.AddFieldError("issue_status", "the comment does not track an issue")
			return nil, verr
		}
		status, ok := model.ParseIssueStatus(*req.IssueStatus)
		if !ok {
			verr.AddFieldError("issue_status", "must be one of open, resolved, dropped")
			return nil, verr
		}
		c.IssueStatus = status
	}
	if len(extra) > 0 {
		if c.ExtraData == nil {
			c.ExtraData = model.JSONMap{}
		}
		c.ExtraData.Merge(extra)
	}

	if err := s.repo.SaveComment(ctx, c); err != nil {
		return nil, err
	}
	return model.NewCommentResponse(c), nil
}

// updateIssueStatus handles the one mutation allowed on a published
// review's comment. Only the issue state may change, and only recipients
// of the review request may change it.
func (s *service) updateIssueStatus(
	ctx context.Context,
	actor *identityModel.User,
	rr *rrModel.ReviewRequest,
	c *model.DiffComment,
	req *model.UpdateCommentRequest,
	extra model.JSONMap,
) (*model.CommentResponse, error) {
	if req.Text != nil || req.FirstLine != nil || req.NumLines != nil ||
		req.IssueOpened != nil || len(extra) > 0 {
		return nil, model.ErrReviewPublished
	}
	if req.IssueStatus == nil {
		return nil, model.ErrReviewPublished
	}
	if !c.IssueOpened {
		verr := &diffModel.ValidationError{}
		verr.AddFieldError("issue_status", "the comment does not track an issue")
		return nil, verr
	}
	if !permission.CanUpdateCommentIssueStatus(actor, rr) {
		return nil, model.ErrPermissionDenied
	}

	status, ok := model.ParseIssueStatus(*req.IssueStatus)
	if !ok {
		verr := &diffModel.ValidationError{}
		verr.AddFieldError("issue_status", "must be one of open, resolved, dropped")
		return nil, verr
	}
	c.IssueStatus = status

	if err := s.repo.SaveComment(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Infow("issue status updated",
		"comment_id", c.ID, "status", model.IssueStatusString(status), "actor", actor.Username)
	return model.NewCommentResponse(c), nil
}

func (s *service) DeleteComment(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	reviewID, commentID uint64,
) error {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return err
	}
	rv, err := s.repo.GetReview(ctx, rr.ID, reviewID)
	if err != nil {
		return err
	}
	if !canSeeReview(actor, rv) {
		return model.ErrReviewNotFound
	}
	if !permission.CanModifyReview(actor, rv) {
		if rv.Public {
			return model.ErrReviewPublished
		}
		return model.ErrPermissionDenied
	}
	c, err := s.repo.GetComment(ctx, rv.ID, commentID)
	if err != nil {
		return err
	}
	return s.repo.DeleteComment(ctx, c)
}
