package event

import (
	"context"
	"encoding/json"
	"time"

	"gameops-controlplane/pkg/db/option"
	"gameops-controlplane/pkg/db/pagination"
	"gameops-controlplane/pkg/errutil"
	"gameops-controlplane/pkg/repository"
	"gameops-controlplane/services/eligibility"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service owns the event/reward catalog: the admin write path and the read
// queries the claim flow and storefront depend on.
type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	events  repository.Repository[Event]
	rewards repository.Repository[Reward]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,

		events:  repository.ProvideStore[Event](p.DB),
		rewards: repository.ProvideStore[Reward](p.DB),
	}
}

type CreateEventInput struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
	IsActive    bool      `json:"is_active"`
}

func (in CreateEventInput) validate() error {
	if !in.EndAt.After(in.StartAt) {
		return errutil.ValidationFailed("end_at must be after start_at", nil,
			errutil.WithDetails(errutil.Detail{Field: "end_at", Message: "must be after start_at"}))
	}
	return nil
}

func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (*Event, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}

	ev := &Event{
		EventID:     s.node.Generate().String(),
		Name:        in.Name,
		Description: in.Description,
		StartAt:     in.StartAt.UTC(),
		EndAt:       in.EndAt.UTC(),
		IsActive:    in.IsActive,
	}

	if err := s.events.Create(ctx, ev); err != nil {
		zap.L().Error("failed to create event", zap.Error(err))
		return nil, errutil.Internal("failed to create event", err)
	}

	zap.L().Info("event created",
		zap.String("event_id", ev.EventID),
		zap.String("name", ev.Name),
		zap.Bool("is_active", ev.IsActive),
	)
	return ev, nil
}

type AddRewardInput struct {
	Type                  RewardType                  `json:"type" binding:"required"`
	Name                  string                      `json:"name" binding:"required"`
	Description           string                      `json:"description"`
	Details               map[string]any              `json:"details" binding:"required"`
	ConditionConfig       eligibility.ConditionConfig `json:"condition_config" binding:"required"`
	ConditionsDescription string                      `json:"conditions_description" binding:"required"`
}

func (in AddRewardInput) validate() error {
	if !in.Type.Valid() {
		return errutil.ValidationFailed("unknown reward type", nil,
			errutil.WithDetails(errutil.Detail{Field: "type", Message: string(in.Type)}))
	}
	if err := validateDetails(in.Type, in.Details); err != nil {
		return err
	}
	return validateConditionConfig(in.ConditionConfig)
}

// validateDetails re-decodes the free-form payload through the typed shape
// for the reward type so malformed admin input is rejected at write time.
func validateDetails(t RewardType, details map[string]any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return errutil.ValidationFailed("invalid reward details", err)
	}

	invalid := func(field, msg string) error {
		return errutil.ValidationFailed("invalid reward details", nil,
			errutil.WithDetails(errutil.Detail{Field: "details." + field, Message: msg}))
	}

	switch t {
	case RewardTypePoint:
		var d PointDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return errutil.ValidationFailed("invalid reward details", err)
		}
		if d.Amount <= 0 {
			return invalid("amount", "must be positive")
		}
	case RewardTypeItem:
		var d ItemDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return errutil.ValidationFailed("invalid reward details", err)
		}
		if d.ItemID == "" {
			return invalid("item_id", "required")
		}
		if d.Quantity <= 0 {
			return invalid("quantity", "must be positive")
		}
	case RewardTypeCoupon:
		var d CouponDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return errutil.ValidationFailed("invalid reward details", err)
		}
		if d.CouponCode == "" {
			return invalid("coupon_code", "required")
		}
	}
	return nil
}

// validateConditionConfig rejects malformed rule trees at the admin
// boundary. The evaluator itself fails closed, so this is the only place a
// bad tree produces a 4xx instead of silent ineligibility.
func validateConditionConfig(config eligibility.ConditionConfig) error {
	if config.Operator != eligibility.OperatorAnd && config.Operator != eligibility.OperatorOr {
		return errutil.ValidationFailed("unknown condition operator", nil,
			errutil.WithDetails(errutil.Detail{Field: "condition_config.operator", Message: string(config.Operator)}))
	}
	for _, rule := range config.Rules {
		if rule.Type == "" {
			return errutil.ValidationFailed("condition rule missing type", nil,
				errutil.WithDetails(errutil.Detail{Field: "condition_config.rules", Message: "each rule requires a type"}))
		}
	}
	return nil
}

func (s *Service) AddReward(ctx context.Context, eventID string, in AddRewardInput) (*Reward, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}

	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	detailsJSON, err := json.Marshal(in.Details)
	if err != nil {
		return nil, errutil.ValidationFailed("invalid reward details", err)
	}
	configJSON, err := json.Marshal(in.ConditionConfig)
	if err != nil {
		return nil, errutil.ValidationFailed("invalid condition config", err)
	}

	rw := &Reward{
		RewardID:              s.node.Generate().String(),
		EventID:               ev.EventID,
		Type:                  in.Type,
		Name:                  in.Name,
		Description:           in.Description,
		Details:               datatypes.JSON(detailsJSON),
		ConditionType:         string(in.ConditionConfig.Operator),
		ConditionConfig:       datatypes.JSON(configJSON),
		ConditionsDescription: in.ConditionsDescription,
	}

	if err := s.rewards.Create(ctx, rw); err != nil {
		zap.L().Error("failed to create reward",
			zap.String("event_id", ev.EventID), zap.Error(err))
		return nil, errutil.Internal("failed to create reward", err)
	}

	zap.L().Info("reward created",
		zap.String("reward_id", rw.RewardID),
		zap.String("event_id", rw.EventID),
		zap.String("type", string(rw.Type)),
	)
	return rw, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	ev, err := s.events.FindOne(ctx, &Event{EventID: eventID})
	if err != nil {
		return nil, errutil.Internal("failed to query event", err)
	}
	if ev == nil {
		return nil, ErrEventNotFound(eventID)
	}
	return ev, nil
}

func (s *Service) GetReward(ctx context.Context, rewardID string) (*Reward, error) {
	rw, err := s.rewards.FindOne(ctx, &Reward{RewardID: rewardID})
	if err != nil {
		return nil, errutil.Internal("failed to query reward", err)
	}
	if rw == nil {
		return nil, ErrRewardNotFound(rewardID)
	}
	return rw, nil
}

func (s *Service) GetEventWithRewards(ctx context.Context, eventID string) (*EventWithRewards, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	rewards, err := s.ListRewardsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := &EventWithRewards{Event: *ev, Rewards: make([]Reward, 0, len(rewards))}
	for _, rw := range rewards {
		out.Rewards = append(out.Rewards, *rw)
	}
	return out, nil
}

type ListEventsFilter struct {
	IsActive *bool `form:"is_active"`
	pagination.Params
}

func (s *Service) ListEvents(ctx context.Context, filter ListEventsFilter) (pagination.Result[*Event], error) {
	query := &Event{}
	if filter.IsActive != nil && *filter.IsActive {
		query.IsActive = true
	}

	total, err := s.events.Count(ctx, query)
	if err != nil {
		return pagination.Result[*Event]{}, errutil.Internal("failed to count events", err)
	}

	items, err := s.events.Find(ctx, query,
		option.WithSortBy(option.QuerySortBy{OrderBy: "DESC"}),
		option.WithLimit(filter.Normalize().Limit),
		option.WithOffset(filter.Offset()),
	)
	if err != nil {
		return pagination.Result[*Event]{}, errutil.Internal("failed to list events", err)
	}

	return pagination.NewResult(items, total, filter.Params), nil
}

// ListActiveEvents returns events live right now: the active flag is on and
// the clock falls inside the event window. Liveness is enforced here, not by
// a background job flipping flags.
func (s *Service) ListActiveEvents(ctx context.Context, now time.Time) ([]*Event, error) {
	var items []*Event
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("start_at <= ? AND end_at >= ?", now.UTC(), now.UTC()).
		Order("start_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, errutil.Internal("failed to list active events", err)
	}
	return items, nil
}

func (s *Service) ListRewardsByEvent(ctx context.Context, eventID string) ([]*Reward, error) {
	items, err := s.rewards.Find(ctx, &Reward{EventID: eventID},
		option.WithSortBy(option.QuerySortBy{OrderBy: "ASC"}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list rewards", err)
	}
	return items, nil
}
