package rewardrequest

import (
	"context"
	"errors"
	"strings"

	"gameops-controlplane/pkg/db/pagination"

	"gorm.io/gorm"
)

// Repository is the persistence port of the lifecycle manager. It is
// narrower than the generic store because the state machine needs explicit
// conditional updates and triple lookups.
type Repository interface {
	Create(ctx context.Context, req *RewardRequest) error
	FindByID(ctx context.Context, requestID string) (*RewardRequest, error)
	FindByTriple(ctx context.Context, userID, eventID, rewardID string) (*RewardRequest, error)
	// UpdateStatus applies the given column updates to exactly one request.
	// Map updates so nullable columns (failure_reason, completed_at) can be
	// cleared back to NULL on reopen.
	UpdateStatus(ctx context.Context, requestID string, updates map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]*RewardRequest, int64, error)
}

// ListFilter narrows the audit listing. Empty fields match everything.
type ListFilter struct {
	UserID  string
	EventID string
	Status  Status
	pagination.Params
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, req *RewardRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *gormRepository) FindByID(ctx context.Context, requestID string) (*RewardRequest, error) {
	return r.findOne(ctx, &RewardRequest{RequestID: requestID})
}

func (r *gormRepository) FindByTriple(ctx context.Context, userID, eventID, rewardID string) (*RewardRequest, error) {
	return r.findOne(ctx, &RewardRequest{UserID: userID, EventID: eventID, RewardID: rewardID})
}

func (r *gormRepository) findOne(ctx context.Context, query *RewardRequest) (*RewardRequest, error) {
	var req RewardRequest
	if err := r.db.WithContext(ctx).Where(query).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, requestID string, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&RewardRequest{}).
		Where("request_id = ?", requestID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]*RewardRequest, int64, error) {
	where := &RewardRequest{
		UserID:  filter.UserID,
		EventID: filter.EventID,
		Status:  filter.Status,
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&RewardRequest{}).Where(where).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*RewardRequest
	err := r.db.WithContext(ctx).
		Where(where).
		Order("requested_at DESC").
		Limit(filter.Normalize().Limit).
		Offset(filter.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// IsUniqueViolation reports whether err is the database rejecting a row
// that collides with the (user, event, reward) unique index. Message
// sniffing keeps it portable across the postgres and sqlite drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
