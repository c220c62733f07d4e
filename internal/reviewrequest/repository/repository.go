package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	groupModel "github.com/reviewhub/reviewhub/internal/group/model"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	"github.com/reviewhub/reviewhub/internal/reviewrequest/model"
)

// Filters narrows review request listings. Zero values mean "no filter";
// Statuses is the set of status characters to include.
type Filters struct {
	LocalSiteID *uint64

	Statuses        []string
	Public          *bool
	FromUser        string
	ToGroups        []string
	ToUsersDirectly []string
	ToUsers         []string

	RepositoryID *uint64
	Changenum    *uint64
	CommitID     *string

	TimeAddedFrom   *time.Time
	TimeAddedTo     *time.Time
	LastUpdatedFrom *time.Time
	LastUpdatedTo   *time.Time

	ShipIt *bool
}

// Repository handles review request storage: the requests themselves,
// their drafts, and their change descriptions.
type Repository interface {
	Create(ctx context.Context, r *model.ReviewRequest) error
	GetByDisplayID(ctx context.Context, displayID uint64, localSiteID *uint64) (*model.ReviewRequest, error)
	LockByID(ctx context.Context, id uint64) (*model.ReviewRequest, error)
	Save(ctx context.Context, r *model.ReviewRequest) error
	Delete(ctx context.Context, r *model.ReviewRequest) error
	List(ctx context.Context, f Filters) ([]model.ReviewRequest, error)
	CountByStatus(ctx context.Context, f Filters) (map[string]int64, error)
	NextLocalID(ctx context.Context, localSiteID uint64) (uint64, error)

	SetTargetGroups(ctx context.Context, r *model.ReviewRequest, groups []groupModel.Group) error
	SetTargetPeople(ctx context.Context, r *model.ReviewRequest, users []identityModel.User) error

	GetDraft(ctx context.Context, requestID uint64) (*model.ReviewRequestDraft, error)
	GetOrCreateDraft(ctx context.Context, requestID uint64) (*model.ReviewRequestDraft, error)
	SaveDraft(ctx context.Context, d *model.ReviewRequestDraft) error
	DeleteDraft(ctx context.Context, d *model.ReviewRequestDraft) error
	SetDraftTargetGroups(ctx context.Context, d *model.ReviewRequestDraft, groups []groupModel.Group) error
	SetDraftTargetPeople(ctx context.Context, d *model.ReviewRequestDraft, users []identityModel.User) error

	CreateChange(ctx context.Context, c *model.ChangeDescription) error
	ListChanges(ctx context.Context, requestID uint64) ([]model.ChangeDescription, error)
	GetChange(ctx context.Context, requestID, changeID uint64) (*model.ChangeDescription, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new review request repository.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

func (r *repository) Create(ctx context.Context, req *model.ReviewRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		r.logger.Errorw("failed to create review request", "error", err)
		return err
	}
	return nil
}

func (r *repository) GetByDisplayID(ctx context.Context, displayID uint64, localSiteID *uint64) (*model.ReviewRequest, error) {
	var req model.ReviewRequest
	q := r.db.WithContext(ctx).
		Preload("Submitter").
		Preload("TargetGroups").
		Preload("TargetGroups.Users").
		Preload("TargetPeople")
	if localSiteID != nil {
		q = q.Where("local_id = ? AND local_site_id = ?", displayID, *localSiteID)
	} else {
		q = q.Where("id = ? AND local_site_id IS NULL", displayID)
	}
	if err := q.First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrReviewRequestNotFound
		}
		r.logger.Errorw("failed to get review request", "display_id", displayID, "error", err)
		return nil, err
	}
	return &req, nil
}

// LockByID reloads a review request by primary key with a row lock. Meant
// to be called inside a transaction so status checks and the following
// write see one stable row.
func (r *repository) LockByID(ctx context.Context, id uint64) (*model.ReviewRequest, error) {
	var req model.ReviewRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrReviewRequestNotFound
		}
		r.logger.Errorw("failed to lock review request", "id", id, "error", err)
		return nil, err
	}
	return &req, nil
}

func (r *repository) Save(ctx context.Context, req *model.ReviewRequest) error {
	if err := r.db.WithContext(ctx).Save(req).Error; err != nil {
		r.logger.Errorw("failed to save review request", "id", req.ID, "error", err)
		return err
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, req *model.ReviewRequest) error {
	if err := r.db.WithContext(ctx).Select("TargetGroups", "TargetPeople").Delete(req).Error; err != nil {
		r.logger.Errorw("failed to delete review request", "id", req.ID, "error", err)
		return err
	}
	return nil
}

// applyFilters builds the filtered query. Target filters join through the
// association tables; multiple target filters combine with OR inside one
// EXISTS group, matching "addressed to any of these".
func (r *repository) applyFilters(ctx context.Context, f Filters) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.ReviewRequest{})

	if f.LocalSiteID != nil {
		q = q.Where("review_requests.local_site_id = ?", *f.LocalSiteID)
	} else {
		q = q.Where("review_requests.local_site_id IS NULL")
	}
	if len(f.Statuses) > 0 {
		q = q.Where("review_requests.status IN ?", f.Statuses)
	}
	if f.Public != nil {
		q = q.Where("review_requests.public = ?", *f.Public)
	}
	if f.FromUser != "" {
		q = q.Joins("JOIN users AS submitters ON submitters.id = review_requests.submitter_id").
			Where("submitters.username = ?", f.FromUser)
	}
	if len(f.ToGroups) > 0 {
		q = q.Where(
			"EXISTS (SELECT 1 FROM review_request_target_groups rtg "+
				"JOIN review_groups g ON g.id = rtg.group_id "+
				"WHERE rtg.review_request_id = review_requests.id AND g.name IN ?)",
			f.ToGroups)
	}
	if len(f.ToUsersDirectly) > 0 {
		q = q.Where(
			"EXISTS (SELECT 1 FROM review_request_target_people rtp "+
				"JOIN users u ON u.id = rtp.user_id "+
				"WHERE rtp.review_request_id = review_requests.id AND u.username IN ?)",
			f.ToUsersDirectly)
	}
	if len(f.ToUsers) > 0 {
		// Directly targeted, or reachable through a target group the user
		// belongs to.
		q = q.Where(
			"EXISTS (SELECT 1 FROM review_request_target_people rtp "+
				"JOIN users u ON u.id = rtp.user_id "+
				"WHERE rtp.review_request_id = review_requests.id AND u.username IN ?) "+
				"OR EXISTS (SELECT 1 FROM review_request_target_groups rtg "+
				"JOIN review_group_users rgu ON rgu.group_id = rtg.group_id "+
				"JOIN users gu ON gu.id = rgu.user_id "+
				"WHERE rtg.review_request_id = review_requests.id AND gu.username IN ?)",
			f.ToUsers, f.ToUsers)
	}
	if f.RepositoryID != nil {
		q = q.Where("review_requests.repository_id = ?", *f.RepositoryID)
	}
	if f.Changenum != nil {
		q = q.Where("review_requests.changenum = ?", *f.Changenum)
	}
	if f.CommitID != nil {
		q = q.Where("review_requests.commit_id = ?", *f.CommitID)
	}
	if f.TimeAddedFrom != nil {
		q = q.Where("review_requests.time_added >= ?", *f.TimeAddedFrom)
	}
	if f.TimeAddedTo != nil {
		q = q.Where("review_requests.time_added < ?", *f.TimeAddedTo)
	}
	if f.LastUpdatedFrom != nil {
		q = q.Where("review_requests.last_updated >= ?", *f.LastUpdatedFrom)
	}
	if f.LastUpdatedTo != nil {
		q = q.Where("review_requests.last_updated < ?", *f.LastUpdatedTo)
	}
	if f.ShipIt != nil {
		if *f.ShipIt {
			q = q.Where("review_requests.shipit_count > 0")
		} else {
			q = q.Where("review_requests.shipit_count = 0")
		}
	}
	return q
}

func (r *repository) List(ctx context.Context, f Filters) ([]model.ReviewRequest, error) {
	var reqs []model.ReviewRequest
	err := r.applyFilters(ctx, f).
		Preload("Submitter").
		Preload("TargetGroups").
		Preload("TargetGroups.Users").
		Preload("TargetPeople").
		Order("review_requests.last_updated DESC").
		Find(&reqs).Error
	if err != nil {
		r.logger.Errorw("failed to list review requests", "error", err)
		return nil, err
	}
	return reqs, nil
}

func (r *repository) CountByStatus(ctx context.Context, f Filters) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	err := r.applyFilters(ctx, f).
		Select("review_requests.status AS status, COUNT(*) AS count").
		Group("review_requests.status").
		Scan(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to count review requests", "error", err)
		return nil, err
	}
	counts := map[string]int64{
		model.StatusPending:   0,
		model.StatusSubmitted: 0,
		model.StatusDiscarded: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repository) NextLocalID(ctx context.Context, localSiteID uint64) (uint64, error) {
	var next uint64
	err := r.db.WithContext(ctx).Model(&model.ReviewRequest{}).
		Where("local_site_id = ?", localSiteID).
		Select("COALESCE(MAX(local_id), 0) + 1").
		Scan(&next).Error
	if err != nil {
		r.logger.Errorw("failed to compute next local id", "local_site_id", localSiteID, "error", err)
		return 0, err
	}
	return next, nil
}

func (r *repository) SetTargetGroups(ctx context.Context, req *model.ReviewRequest, groups []groupModel.Group) error {
	if err := r.db.WithContext(ctx).Model(req).Association("TargetGroups").Replace(groups); err != nil {
		r.logger.Errorw("failed to set target groups", "id", req.ID, "error", err)
		return err
	}
	return nil
}

func (r *repository) SetTargetPeople(ctx context.Context, req *model.ReviewRequest, users []identityModel.User) error {
	if err := r.db.WithContext(ctx).Model(req).Association("TargetPeople").Replace(users); err != nil {
		r.logger.Errorw("failed to set target people", "id", req.ID, "error", err)
		return err
	}
	return nil
}

func (r *repository) GetDraft(ctx context.Context, requestID uint64) (*model.ReviewRequestDraft, error) {
	var draft model.ReviewRequestDraft
	err := r.db.WithContext(ctx).
		Preload("TargetGroups").
		Preload("TargetPeople").
		Where("review_request_id = ?", requestID).
		First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrDraftNotFound
		}
		r.logger.Errorw("failed to get draft", "review_request_id", requestID, "error", err)
		return nil, err
	}
	return &draft, nil
}

func (r *repository) GetOrCreateDraft(ctx context.Context, requestID uint64) (*model.ReviewRequestDraft, error) {
	draft, err := r.GetDraft(ctx, requestID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, model.ErrDraftNotFound) {
		return nil, err
	}
	draft = &model.ReviewRequestDraft{
		ReviewRequestID: requestID,
		LastUpdated:     time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(draft).Error; err != nil {
		if isDuplicateError(err) {
			return r.GetDraft(ctx, requestID)
		}
		r.logger.Errorw("failed to create draft", "review_request_id", requestID, "error", err)
		return nil, err
	}
	return draft, nil
}

func (r *repository) SaveDraft(ctx context.Context, d *model.ReviewRequestDraft) error {
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		r.logger.Errorw("failed to save draft", "id", d.ID, "error", err)
		return err
	}
	return nil
}

func (r *repository) DeleteDraft(ctx context.Context, d *model.ReviewRequestDraft) error {
	if err := r.db.WithContext(ctx).Select("TargetGroups", "TargetPeople").Delete(d).Error; err != nil {
		r.logger.Errorw("failed to delete draft", "id", d.ID, "error", err)
		return err
	}
	return nil
}

func (r *repository) SetDraftTargetGroups(ctx context.Context, d *model.ReviewRequestDraft, groups []groupModel.Group) error {
	if err := r.db.WithContext(ctx).Model(d).Association("TargetGroups").Replace(groups); err != nil {
		r.logger.Errorw("failed to set draft target groups", "id", d.ID, "error", err)
		return err
	}
	d.TargetGroups = groups
	return nil
}

func (r *repository) SetDraftTargetPeople(ctx context.Context, d *model.ReviewRequestDraft, users []identityModel.User) error {
	if err := r.db.WithContext(ctx).Model(d).Association("TargetPeople").Replace(users); err != nil {
		r.logger.Errorw("failed to set draft target people", "id", d.ID, "error", err)
		return err
	}
	d.TargetPeople = users
	return nil
}

func (r *repository) CreateChange(ctx context.Context, c *model.ChangeDescription) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		r.logger.Errorw("failed to create change description", "review_request_id", c.ReviewRequestID, "error", err)
		return err
	}
	return nil
}

func (r *repository) ListChanges(ctx context.Context, requestID uint64) ([]model.ChangeDescription, error) {
	var changes []model.ChangeDescription
	err := r.db.WithContext(ctx).
		Where("review_request_id = ?", requestID).
		Order("timestamp ASC").
		Find(&changes).Error
	if err != nil {
		r.logger.Errorw("failed to list change descriptions", "review_request_id", requestID, "error", err)
		return nil, err
	}
	return changes, nil
}

func (r *repository) GetChange(ctx context.Context, requestID, changeID uint64) (*model.ChangeDescription, error) {
	var change model.ChangeDescription
	err := r.db.WithContext(ctx).
		Where("id = ? AND review_request_id = ?", changeID, requestID).
		First(&change).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrChangeNotFound
		}
		r.logger.Errorw("failed to get change description", "id", changeID, "error", err)
		return nil, err
	}
	return &change, nil
}

// isDuplicateError checks if error is a unique constraint violation.
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint")
}
