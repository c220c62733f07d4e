package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/diff/model"
	"github.com/reviewhub/reviewhub/internal/diff/repository"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	"github.com/reviewhub/reviewhub/internal/permission"
	rrModel "github.com/reviewhub/reviewhub/internal/reviewrequest/model"
	rrRepository "github.com/reviewhub/reviewhub/internal/reviewrequest/repository"
)

// defaultMaxDiffSize bounds uploaded diff content, in bytes. Zero disables
// the limit.
const defaultMaxDiffSize = 2 << 20

// Config carries diff module settings.
type Config struct {
	MaxDiffSize int
}

// Service handles draft diff uploads and retrieval.
type Service interface {
	// Upload parses and stores a new draft diffset on the review request,
	// attaching it to the request's draft.
	Upload(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, req *model.UploadDiffRequest) (*model.DiffSetResponse, error)

	// ListDraft returns the draft diffsets of a review request.
	ListDraft(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64) ([]model.DiffSetResponse, error)

	// GetDraft returns a single draft diffset by revision.
	GetDraft(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, revision int) (*model.DiffSetResponse, error)
}

type service struct {
	repo   repository.Repository
	rr     rrRepository.Repository
	db     *gorm.DB
	cfg    Config
	logger *zap.SugaredLogger
}

// New creates a new diff service.
func New(repo repository.Repository, rr rrRepository.Repository, db *gorm.DB, cfg Config, logger *zap.SugaredLogger) Service {
	if cfg.MaxDiffSize == 0 {
		cfg.MaxDiffSize = defaultMaxDiffSize
	}
	return &service{repo: repo, rr: rr, db: db, cfg: cfg, logger: logger}
}

// getEditable loads the review request and checks that the actor may
// modify its draft.
func (s *service) getEditable(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
) (*rrModel.ReviewRequest, error) {
	req, err := s.rr.GetByDisplayID(ctx, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	if !permission.CanViewReviewRequest(actor, req) {
		return nil, rrModel.ErrPermissionDenied
	}
	if !permission.CanEditReviewRequest(actor, req) {
		return nil, model.ErrPermissionDenied
	}
	return req, nil
}

func (s *service) Upload(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	req *model.UploadDiffRequest,
) (*model.DiffSetResponse, error) {
	rr, err := s.getEditable(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	if rr.RepositoryID == nil {
		return nil, model.ErrNoRepository
	}

	verr := &model.ValidationError{}
	if req.Path == "" {
		verr.AddFieldError("path", "a diff file is required")
	}
	if req.Basedir == "" {
		verr.AddFieldError("basedir", "a base directory is required")
	}
	if s.cfg.MaxDiffSize > 0 && len(req.Path) > s.cfg.MaxDiffSize {
		return nil, &model.DiffTooBigError{MaxSize: s.cfg.MaxDiffSize, Size: len(req.Path)}
	}

	var files []model.FileDiff
	if req.Path != "" {
		files = parseUnifiedDiff(req.Path)
		if len(files) == 0 {
			verr.AddFieldError("path", "the diff file could not be parsed")
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}

	ds := &model.DiffSet{
		ReviewRequestID: rr.ID,
		Name:            req.Name,
		Basedir:         req.Basedir,
		BaseCommitID:    req.BaseCommitID,
		Draft:           true,
		FileDiffs:       files,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.New(tx, s.logger)
		txRR := rrRepository.New(tx, s.logger)

		revision, err := txRepo.NextRevision(ctx, rr.ID)
		if err != nil {
			return err
		}
		ds.Revision = revision
		if err := txRepo.CreateDiffSet(ctx, ds); err != nil {
			return err
		}

		draft, err := txRR.GetOrCreateDraft(ctx, rr.ID)
		if err != nil {
			return err
		}
		draft.DiffSetID = &ds.ID
		return txRR.SaveDraft(ctx, draft)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("draft diff uploaded",
		"review_request_id", rr.ID, "revision", ds.Revision, "files", len(files))
	return model.NewDiffSetResponse(ds), nil
}

func (s *service) ListDraft(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
) ([]model.DiffSetResponse, error) {
	rr, err := s.getEditable(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	sets, err := s.repo.ListDraft(ctx, rr.ID)
	if err != nil {
		return nil, err
	}
	resp := make([]model.DiffSetResponse, 0, len(sets))
	for i := range sets {
		resp = append(resp, *model.NewDiffSetResponse(&sets[i]))
	}
	return resp, nil
}

func (s *service) GetDraft(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	revision int,
) (*model.DiffSetResponse, error) {
	rr, err := s.getEditable(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	ds, err := s.repo.GetDraftByRevision(ctx, rr.ID, revision)
	if err != nil {
		return nil, err
	}
	return model.NewDiffSetResponse(ds), nil
}
