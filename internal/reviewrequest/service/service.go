package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	diffRepository "github.com/reviewhub/reviewhub/internal/diff/repository"
	groupModel "github.com/reviewhub/reviewhub/internal/group/model"
	groupRepository "github.com/reviewhub/reviewhub/internal/group/repository"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	identityRepository "github.com/reviewhub/reviewhub/internal/identity/repository"
	"github.com/reviewhub/reviewhub/internal/permission"
	"github.com/reviewhub/reviewhub/internal/reviewrequest/model"
	"github.com/reviewhub/reviewhub/internal/reviewrequest/repository"
	scmModel "github.com/reviewhub/reviewhub/internal/scm/model"
	scmRepository "github.com/reviewhub/reviewhub/internal/scm/repository"
)

// ListQuery carries the parsed list parameters. Statuses is empty for
// "all"; CountsOnly asks for per-status totals instead of rows.
type ListQuery struct {
	Filters    repository.Filters
	CountsOnly bool
}

// Counts holds per-status review request totals.
type Counts struct {
	Pending   int64 `json:"pending"`
	Submitted int64 `json:"submitted"`
	Discarded int64 `json:"discarded"`
	Total     int64 `json:"total"`
}

// Service handles review request business logic: the draft/publish cycle,
// closing and reopening, listings, and change history.
type Service interface {
	Create(ctx context.Context, actor *identityModel.User, localSiteID *uint64, req *model.CreateReviewRequestRequest) (*model.ReviewRequestResponse, error)
	Get(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64) (*model.ReviewRequestResponse, error)
	List(ctx context.Context, actor *identityModel.User, q ListQuery) ([]model.ReviewRequestResponse, error)
	Count(ctx context.Context, actor *identityModel.User, q ListQuery) (*Counts, error)
	Update(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, req *model.UpdateReviewRequestRequest) (*model.ReviewRequestResponse, error)
	Delete(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64) error

	GetDraft(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64) (*model.DraftResponse, error)
	UpdateDraft(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, req *model.UpdateDraftRequest) (*model.ReviewRequestResponse, *model.DraftResponse, error)
	DiscardDraft(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64) error

	ListChanges(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64) ([]model.ChangeDescriptionResponse, error)
	GetChange(ctx context.Context, actor *identityModel.User, displayID uint64, localSiteID *uint64, changeID uint64) (*model.ChangeDescriptionResponse, error)
}

type service struct {
	repo     repository.Repository
	users    identityRepository.Repository
	groups   groupRepository.Repository
	scm      scmRepository.Repository
	diffs    diffRepository.Repository
	db       *gorm.DB
	notifier Notifier
	logger   *zap.SugaredLogger
}

// New creates a new review request service.
func New(
	repo repository.Repository,
	users identityRepository.Repository,
	groups groupRepository.Repository,
	scm scmRepository.Repository,
	diffs diffRepository.Repository,
	db *gorm.DB,
	logger *zap.SugaredLogger,
) Service {
	return &service{
		repo:     repo,
		users:    users,
		groups:   groups,
		scm:      scm,
		diffs:    diffs,
		db:       db,
		notifier: NewLogNotifier(logger),
		logger:   logger,
	}
}

func (s *service) Create(
	ctx context.Context,
	actor *identityModel.User,
	localSiteID *uint64,
	req *model.CreateReviewRequestRequest,
) (*model.ReviewRequestResponse, error) {
	submitter := actor
	if req.SubmitAs != "" && req.SubmitAs != actor.Username {
		if !actor.IsAdmin {
			return nil, model.ErrPermissionDenied
		}
		u, err := s.users.GetByUsername(ctx, req.SubmitAs)
		if err != nil {
			return nil, err
		}
		submitter = u
	}

	var repoID *uint64
	if req.Repository != "" {
		scmRepo, err := s.resolveRepository(ctx, req.Repository, localSiteID)
		if err != nil {
			return nil, err
		}
		repoID = &scmRepo.ID
	}

	now := time.Now()
	rr := &model.ReviewRequest{
		LocalSiteID:  localSiteID,
		SubmitterID:  submitter.ID,
		Status:       model.StatusPending,
		Public:       false,
		RepositoryID: repoID,
		Changenum:    req.Changenum,
		CommitID:     req.CommitID,
		TimeAdded:    now,
		LastUpdated:  now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.New(tx, s.logger)
		if localSiteID != nil {
			localID, err := txRepo.NextLocalID(ctx, *localSiteID)
			if err != nil {
				return err
			}
			rr.LocalID = &localID
		}
		if err := txRepo.Create(ctx, rr); err != nil {
			return err
		}
		_, err := txRepo.GetOrCreateDraft(ctx, rr.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	rr.Submitter = *submitter
	s.logger.Infow("review request created",
		"id", rr.ID, "submitter", submitter.Username)
	return model.NewReviewRequestResponse(rr), nil
}

// resolveRepository accepts a numeric id, a path, or a name.
func (s *service) resolveRepository(ctx context.Context, value string, localSiteID *uint64) (*scmModel.Repository, error) {
	if id, err := strconv.ParseUint(value, 10, 64); err == nil {
		r, err := s.scm.GetByID(ctx, id, localSiteID)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, scmModel.ErrRepositoryNotFound) {
			return nil, err
		}
	}
	return s.scm.GetByPathOrName(ctx, value, localSiteID)
}

// getVisible loads a review request and applies the visibility gate.
// A request that exists but is hidden from the actor yields a permission
// error, not a not-found.
func (s *service) getVisible(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
) (*model.ReviewRequest, error) {
	rr, err := s.repo.GetByDisplayID(ctx, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	if !permission.CanViewReviewRequest(actor, rr) {
		return nil, model.ErrPermissionDenied
	}
	return rr, nil
}

func (s *service) Get(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
) (*model.ReviewRequestResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	return model.NewReviewRequestResponse(rr), nil
}

func (s *service) List(
	ctx context.Context,
	actor *identityModel.User,
	q ListQuery,
) ([]model.ReviewRequestResponse, error) {
	rows, err := s.repo.List(ctx, q.Filters)
	if err != nil {
		return nil, err
	}
	resp := make([]model.ReviewRequestResponse, 0, len(rows))
	for i := range rows {
		if !permission.CanViewReviewRequest(actor, &rows[i]) {
			continue
		}
		resp = append(resp, *model.NewReviewRequestResponse(&rows[i]))
	}
	return resp, nil
}

func (s *service) Count(
	ctx context.Context,
	actor *identityModel.User,
	q ListQuery,
) (*Counts, error) {
	// Administrators see every request, so their counts can come straight
	// from the database without per-row visibility checks.
	if actor != nil && actor.IsAdmin {
		byStatus, err := s.repo.CountByStatus(ctx, q.Filters)
		if err != nil {
			return nil, err
		}
		counts := &Counts{
			Pending:   byStatus[model.StatusPending],
			Submitted: byStatus[model.StatusSubmitted],
			Discarded: byStatus[model.StatusDiscarded],
		}
		counts.Total = counts.Pending + counts.Submitted + counts.Discarded
		return counts, nil
	}

	rows, err := s.repo.List(ctx, q.Filters)
	if err != nil {
		return nil, err
	}
	counts := &Counts{}
	for i := range rows {
		if !permission.CanViewReviewRequest(actor, &rows[i]) {
			continue
		}
		switch rows[i].Status {
		case model.StatusPending:
			counts.Pending++
		case model.StatusSubmitted:
			counts.Submitted++
		case model.StatusDiscarded:
			counts.Discarded++
		}
		counts.Total++
	}
	return counts, nil
}

func (s *service) Update(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	req *model.UpdateReviewRequestRequest,
) (*model.ReviewRequestResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	if req.Status == nil {
		return model.NewReviewRequestResponse(rr), nil
	}
	if !permission.CanCloseReviewRequest(actor, rr) {
		return nil, model.ErrPermissionDenied
	}

	target, ok := model.ParseStatus(*req.Status)
	if !ok {
		return nil, model.ErrInvalidStatus
	}

	switch target {
	case model.StatusSubmitted, model.StatusDiscarded:
		return s.close(ctx, rr, target, req.Description)
	case model.StatusPending:
		return s.reopen(ctx, rr)
	default:
		return nil, model.ErrInvalidStatus
	}
}

// close moves a pending request to submitted or discarded. Closing into
// the state the request is already in is a no-op; moving between the two
// closed states is not allowed.
func (s *service) close(
	ctx context.Context,
	rr *model.ReviewRequest,
	target string,
	description *string,
) (*model.ReviewRequestResponse, error) {
	if rr.Status == target {
		return model.NewReviewRequestResponse(rr), nil
	}
	if rr.Status != model.StatusPending {
		return nil, model.ErrInvalidStatus
	}

	var closed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.New(tx, s.logger)
		// The status was read outside this transaction; recheck it on the
		// locked row so a concurrent close stays a no-op with one change
		// description.
		locked, err := txRepo.LockByID(ctx, rr.ID)
		if err != nil {
			return err
		}
		if locked.Status == target {
			rr.Status = locked.Status
			rr.LastUpdated = locked.LastUpdated
			return nil
		}
		if locked.Status != model.StatusPending {
			return model.ErrInvalidStatus
		}

		old := locked.Status
		locked.Status = target
		locked.LastUpdated = time.Now()
		if err := txRepo.Save(ctx, locked); err != nil {
			return err
		}
		rr.Status = locked.Status
		rr.LastUpdated = locked.LastUpdated

		change := &model.ChangeDescription{
			ReviewRequestID: rr.ID,
			FieldsChanged: model.FieldsChanged{
				"status": {Old: model.StatusString(old), New: model.StatusString(target)},
			},
			Timestamp: locked.LastUpdated,
		}
		if description != nil {
			change.Text = *description
		}
		closed = true
		return txRepo.CreateChange(ctx, change)
	})
	if err != nil {
		return nil, err
	}

	if closed {
		s.logger.Infow("review request closed",
			"id", rr.ID, "status", model.StatusString(target))
	}
	return model.NewReviewRequestResponse(rr), nil
}

// reopen returns a closed request to pending. A discarded request was
// never necessarily seen by reviewers, so it reopens as a non-public
// draft; a submitted one stays public.
func (s *service) reopen(ctx context.Context, rr *model.ReviewRequest) (*model.ReviewRequestResponse, error) {
	if rr.Status == model.StatusPending {
		return nil, model.ErrNotClosed
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.New(tx, s.logger)
		locked, err := txRepo.LockByID(ctx, rr.ID)
		if err != nil {
			return err
		}
		if locked.Status == model.StatusPending {
			return model.ErrNotClosed
		}

		old := locked.Status
		locked.Status = model.StatusPending
		if old == model.StatusDiscarded {
			locked.Public = false
		}
		locked.LastUpdated = time.Now()
		if err := txRepo.Save(ctx, locked); err != nil {
			return err
		}
		rr.Status = locked.Status
		rr.Public = locked.Public
		rr.LastUpdated = locked.LastUpdated

		change := &model.ChangeDescription{
			ReviewRequestID: rr.ID,
			FieldsChanged: model.FieldsChanged{
				"status": {Old: model.StatusString(old), New: "pending"},
			},
			Timestamp: locked.LastUpdated,
		}
		return txRepo.CreateChange(ctx, change)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("review request reopened", "id", rr.ID)
	return model.NewReviewRequestResponse(rr), nil
}

func (s *service) Delete(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
) error {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return err
	}
	if !permission.CanDeleteReviewRequest(actor) {
		return model.ErrPermissionDenied
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.New(tx, s.logger)
		if draft, derr := txRepo.GetDraft(ctx, rr.ID); derr == nil {
			if err := txRepo.DeleteDraft(ctx, draft); err != nil {
				return err
			}
		} else if !errors.Is(derr, model.ErrDraftNotFound) {
			return derr
		}
		return txRepo.Delete(ctx, rr)
	})
	if err != nil {
		return err
	}

	s.logger.Infow("review request deleted", "id", rr.ID, "actor", actor.Username)
	return nil
}

func (s *service) GetDraft(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
) (*model.DraftResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	if !permission.CanEditReviewRequest(actor, rr) {
		return nil, model.ErrPermissionDenied
	}
	draft, err := s.repo.GetDraft(ctx, rr.ID)
	if err != nil {
		return nil, err
	}
	return model.NewDraftResponse(draft), nil
}

func (s *service) UpdateDraft(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	req *model.UpdateDraftRequest,
) (*model.ReviewRequestResponse, *model.DraftResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, nil, err
	}
	if !permission.CanEditReviewRequest(actor, rr) {
		return nil, nil, model.ErrPermissionDenied
	}

	var (
		published *model.ReviewRequestResponse
		draftResp *model.DraftResponse
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.New(tx, s.logger)
		draft, err := txRepo.GetOrCreateDraft(ctx, rr.ID)
		if err != nil {
			return err
		}
		if err := s.applyDraftFields(ctx, tx, txRepo, draft, localSiteID, req); err != nil {
			return err
		}

		if req.Public != nil && *req.Public {
			resp, err := s.publish(ctx, tx, txRepo, rr, draft)
			if err != nil {
				return err
			}
			published = resp
			return nil
		}

		draft.LastUpdated = time.Now()
		if err := txRepo.SaveDraft(ctx, draft); err != nil {
			return err
		}
		draftResp = model.NewDraftResponse(draft)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if published != nil {
		s.notifier.ReviewRequestPublished(ctx, rr)
	}
	return published, draftResp, nil
}

// applyDraftFields copies the supplied fields onto the draft and resolves
// target names. Unknown group or user names fail the whole update.
func (s *service) applyDraftFields(
	ctx context.Context,
	tx *gorm.DB,
	txRepo repository.Repository,
	draft *model.ReviewRequestDraft,
	localSiteID *uint64,
	req *model.UpdateDraftRequest,
) error {
	if req.Summary != nil {
		draft.Summary = req.Summary
	}
	if req.Description != nil {
		draft.Description = req.Description
	}
	if req.Changenum != nil {
		draft.Changenum = req.Changenum
	}
	if req.CommitID != nil {
		draft.CommitID = req.CommitID
	}
	if req.ChangeText != nil {
		draft.ChangeText = req.ChangeText
	}

	if req.TargetGroups != nil {
		txGroups := groupRepository.New(tx, s.logger)
		groups := make([]groupModel.Group, 0)
		for _, name := range splitList(*req.TargetGroups) {
			g, err := txGroups.GetByName(ctx, name, localSiteID)
			if err != nil {
				return err
			}
			groups = append(groups, *g)
		}
		if err := txRepo.SetDraftTargetGroups(ctx, draft, groups); err != nil {
			return err
		}
		draft.TargetGroupsSet = true
	}
	if req.TargetPeople != nil {
		txUsers := identityRepository.New(tx, s.logger)
		users := make([]identityModel.User, 0)
		for _, name := range splitList(*req.TargetPeople) {
			u, err := txUsers.GetByUsername(ctx, name)
			if err != nil {
				return err
			}
			users = append(users, *u)
		}
		if err := txRepo.SetDraftTargetPeople(ctx, draft, users); err != nil {
			return err
		}
		draft.TargetPeopleSet = true
	}
	return nil
}

// publish folds the draft into the review request. The first publish only
// flips the public flag; republishing an already-public request records a
// change description covering every modified field.
func (s *service) publish(
	ctx context.Context,
	tx *gorm.DB,
	txRepo repository.Repository,
	rr *model.ReviewRequest,
	draft *model.ReviewRequestDraft,
) (*model.ReviewRequestResponse, error) {
	// rr was read outside the transaction; refresh its scalar state from
	// the locked row so the change description diffs against current
	// values.
	locked, err := txRepo.LockByID(ctx, rr.ID)
	if err != nil {
		return nil, err
	}
	rr.Status = locked.Status
	rr.Public = locked.Public
	rr.Summary = locked.Summary
	rr.Description = locked.Description
	rr.Changenum = locked.Changenum
	rr.CommitID = locked.CommitID
	rr.ShipItCount = locked.ShipItCount
	rr.LastUpdated = locked.LastUpdated

	if rr.Public && draft.IsEmpty() {
		return nil, model.ErrEmptyPublish
	}

	changes := model.FieldsChanged{}

	if draft.Summary != nil && *draft.Summary != rr.Summary {
		changes["summary"] = model.FieldChange{Old: rr.Summary, New: *draft.Summary}
		rr.Summary = *draft.Summary
	}
	if draft.Description != nil && *draft.Description != rr.Description {
		changes["description"] = model.FieldChange{Old: rr.Description, New: *draft.Description}
		rr.Description = *draft.Description
	}
	if draft.Changenum != nil {
		changes["changenum"] = model.FieldChange{
			Old: formatUint(rr.Changenum), New: formatUint(draft.Changenum),
		}
		rr.Changenum = draft.Changenum
	}
	if draft.CommitID != nil {
		changes["commit_id"] = model.FieldChange{
			Old: formatStr(rr.CommitID), New: *draft.CommitID,
		}
		rr.CommitID = draft.CommitID
	}
	if draft.TargetGroupsSet {
		changes["target_groups"] = model.FieldChange{
			Old: joinGroupNames(rr.TargetGroups), New: joinGroupNames(draft.TargetGroups),
		}
		if err := txRepo.SetTargetGroups(ctx, rr, draft.TargetGroups); err != nil {
			return nil, err
		}
		rr.TargetGroups = draft.TargetGroups
	}
	if draft.TargetPeopleSet {
		changes["target_people"] = model.FieldChange{
			Old: joinUsernames(rr.TargetPeople), New: joinUsernames(draft.TargetPeople),
		}
		if err := txRepo.SetTargetPeople(ctx, rr, draft.TargetPeople); err != nil {
			return nil, err
		}
		rr.TargetPeople = draft.TargetPeople
	}
	if draft.DiffSetID != nil {
		txDiffs := diffRepository.New(tx, s.logger)
		ds, err := txDiffs.GetByID(ctx, *draft.DiffSetID)
		if err != nil {
			return nil, err
		}
		if err := txDiffs.MarkPublished(ctx, ds.ID); err != nil {
			return nil, err
		}
		changes["diff"] = model.FieldChange{New: fmt.Sprintf("revision %d", ds.Revision)}
	}

	if rr.Summary == "" {
		return nil, model.ErrSummaryRequired
	}

	firstPublish := !rr.Public
	rr.Public = true
	rr.Status = model.StatusPending
	rr.LastUpdated = time.Now()
	if err := txRepo.Save(ctx, rr); err != nil {
		return nil, err
	}

	if !firstPublish && len(changes) > 0 {
		change := &model.ChangeDescription{
			ReviewRequestID: rr.ID,
			FieldsChanged:   changes,
			Timestamp:       rr.LastUpdated,
		}
		if draft.ChangeText != nil {
			change.Text = *draft.ChangeText
		}
		if err := txRepo.CreateChange(ctx, change); err != nil {
			return nil, err
		}
	}

	if err := txRepo.DeleteDraft(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Infow("review request published",
		"id", rr.ID, "first_publish", firstPublish, "fields", len(changes))
	return model.NewReviewRequestResponse(rr), nil
}

func (s *service) DiscardDraft(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
) error {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return err
	}
	if !permission.CanEditReviewRequest(actor, rr) {
		return model.ErrPermissionDenied
	}
	draft, err := s.repo.GetDraft(ctx, rr.ID)
	if err != nil {
		return err
	}
	return s.repo.DeleteDraft(ctx, draft)
}

func (s *service) ListChanges(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
) ([]model.ChangeDescriptionResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	changes, err := s.repo.ListChanges(ctx, rr.ID)
	if err != nil {
		return nil, err
	}
	resp := make([]model.ChangeDescriptionResponse, 0, len(changes))
	for i := range changes {
		resp = append(resp, *model.NewChangeDescriptionResponse(&changes[i]))
	}
	return resp, nil
}

func (s *service) GetChange(
	ctx context.Context,
	actor *identityModel.User,
	displayID uint64,
	localSiteID *uint64,
	changeID uint64,
) (*model.ChangeDescriptionResponse, error) {
	rr, err := s.getVisible(ctx, actor, displayID, localSiteID)
	if err != nil {
		return nil, err
	}
	change, err := s.repo.GetChange(ctx, rr.ID, changeID)
	if err != nil {
		return nil, err
	}
	return model.NewChangeDescriptionResponse(change), nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatUint(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}

func formatStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func joinGroupNames(groups []groupModel.Group) string {
	names := make([]string, 0, len(groups))
	for i := range groups {
		names = append(names, groups[i].Name)
	}
	return strings.Join(names, ", ")
}

func joinUsernames(users []identityModel.User) string {
	names := make([]string, 0, len(users))
	for i := range users {
		names = append(names, users[i].Username)
	}
	return strings.Join(names, ", ")
}
