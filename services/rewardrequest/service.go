package rewardrequest

import (
	"context"
	"time"

	"gameops-controlplane/pkg/db/pagination"
	"gameops-controlplane/pkg/errutil"
	"gameops-controlplane/services/eligibility"
	"gameops-controlplane/services/event"
	"gameops-controlplane/services/userstate"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service is the reward-request lifecycle manager. It validates a claim
// against the catalog, gates it on eligibility, and drives the request
// state machine. At most one request row exists per (user, event, reward);
// re-claims after failure reopen that row instead of inserting a sibling.
type Service struct {
	node *snowflake.Node

	repo      Repository
	catalog   *event.Service
	userState userstate.Provider
	evaluator *eligibility.Evaluator
}

type ServiceParams struct {
	fx.In
	Node      *snowflake.Node
	Repo      Repository
	Catalog   *event.Service
	UserState userstate.Provider
	Evaluator *eligibility.Evaluator
}

func NewService(p ServiceParams) *Service {
	return &Service{
		node:      p.Node,
		repo:      p.Repo,
		catalog:   p.Catalog,
		userState: p.UserState,
		evaluator: p.Evaluator,
	}
}

// CreateRewardRequest handles a player's claim. Validation order is fixed:
// event, reward, reward/event binding, eligibility, then duplicate state.
// An ineligible player never learns whether they already have a request.
func (s *Service) CreateRewardRequest(ctx context.Context, userID, eventID, rewardID string) (*RewardRequest, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	fields := []zap.Field{
		zap.String("user_id", userID),
		zap.String("event_id", eventID),
		zap.String("reward_id", rewardID),
	}

	ev, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	rw, err := s.catalog.GetReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}

	if rw.EventID != ev.EventID {
		zap.L().With(fields...).Warn("reward claimed against wrong event",
			zap.String("reward_event_id", rw.EventID))
		return nil, ErrInvalidRewardEvent(eventID, rewardID)
	}

	state, err := s.userState.GetUserState(ctx, userID)
	if err != nil {
		zap.L().With(fields...).Error("failed to fetch user state", zap.Error(err))
		return nil, errutil.Internal("failed to fetch user state", err)
	}

	config, err := rw.DecodeConditionConfig()
	if err != nil {
		zap.L().With(fields...).Error("stored condition config is malformed", zap.Error(err))
		return nil, errutil.Internal("invalid reward condition config", err)
	}

	if !s.evaluator.Evaluate(config, state) {
		zap.L().With(fields...).Info("reward conditions not met")
		return nil, ErrRewardConditionNotMet()
	}

	existing, err := s.repo.FindByTriple(ctx, userID, eventID, rewardID)
	if err != nil {
		return nil, errutil.Internal("failed to query reward request", err)
	}

	if existing != nil {
		switch existing.Status {
		case StatusPending:
			return nil, ErrDuplicateRewardRequest()
		case StatusSuccess, StatusClaimed:
			return nil, ErrRewardAlreadyReceived()
		case StatusFailed:
			return s.reopen(ctx, existing, fields)
		}
	}

	req := &RewardRequest{
		RequestID:   s.node.Generate().String(),
		UserID:      userID,
		EventID:     eventID,
		RewardID:    rewardID,
		Status:      StatusPending,
		RequestedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, req); err != nil {
		// A concurrent claim can slip between the pre-check and the insert;
		// the unique index turns the loser into the same conflict outcome.
		if IsUniqueViolation(err) {
			zap.L().With(fields...).Warn("concurrent duplicate claim rejected by index")
			return nil, ErrDuplicateRewardRequest()
		}
		zap.L().With(fields...).Error("failed to create reward request", zap.Error(err))
		return nil, errutil.Internal("failed to create reward request", err)
	}

	zap.L().With(fields...).Info("reward request created",
		zap.String("request_id", req.RequestID))
	return req, nil
}

// reopen flips a FAILED request back to PENDING in place, clearing the
// failure columns. The request id and requested_at are stable across
// retries.
func (s *Service) reopen(ctx context.Context, prev *RewardRequest, fields []zap.Field) (*RewardRequest, error) {
	updates := map[string]any{
		"status":         StatusPending,
		"failure_reason": nil,
		"completed_at":   nil,
	}
	if err := s.repo.UpdateStatus(ctx, prev.RequestID, updates); err != nil {
		zap.L().With(fields...).Error("failed to reopen reward request", zap.Error(err))
		return nil, errutil.Internal("failed to reopen reward request", err)
	}

	zap.L().With(fields...).Info("failed reward request reopened",
		zap.String("request_id", prev.RequestID))

	req, err := s.repo.FindByID(ctx, prev.RequestID)
	if err != nil {
		return nil, errutil.Internal("failed to reload reward request", err)
	}
	return req, nil
}

// ResolveInput is the operator verdict on a pending request.
type ResolveInput struct {
	Success       bool    `json:"success"`
	FailureReason *string `json:"failure_reason,omitempty"`
}

// ProcessRewardRequest moves a PENDING request to SUCCESS or FAILED.
// Terminal and already-failed requests are not re-resolved; eligibility is
// not re-evaluated here, the verdict is the operator's.
func (s *Service) ProcessRewardRequest(ctx context.Context, requestID string, in ResolveInput) (*RewardRequest, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, errutil.Internal("failed to query reward request", err)
	}
	if req == nil {
		return nil, ErrRewardRequestNotFound(requestID)
	}
	if req.Status != StatusPending {
		return nil, ErrRewardRequestUpdateFailed(requestID, req.Status)
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":       StatusSuccess,
		"completed_at": now,
	}
	if !in.Success {
		updates["status"] = StatusFailed
		if in.FailureReason != nil && *in.FailureReason != "" {
			updates["failure_reason"] = *in.FailureReason
		}
	}

	if err := s.repo.UpdateStatus(ctx, requestID, updates); err != nil {
		zap.L().Error("failed to resolve reward request",
			zap.String("request_id", requestID), zap.Error(err))
		return nil, errutil.Internal("failed to resolve reward request", err)
	}

	zap.L().Info("reward request resolved",
		zap.String("request_id", requestID),
		zap.Bool("success", in.Success),
	)

	return s.repo.FindByID(ctx, requestID)
}

func (s *Service) FindRewardRequestsByUserID(ctx context.Context, userID string, status Status, p pagination.Params) (pagination.Result[*RewardRequest], error) {
	return s.list(ctx, ListFilter{UserID: userID, Status: status, Params: p})
}

func (s *Service) FindRewardRequestsByEventID(ctx context.Context, eventID string, status Status, p pagination.Params) (pagination.Result[*RewardRequest], error) {
	return s.list(ctx, ListFilter{EventID: eventID, Status: status, Params: p})
}

func (s *Service) FindAllRewardRequests(ctx context.Context, status Status, p pagination.Params) (pagination.Result[*RewardRequest], error) {
	return s.list(ctx, ListFilter{Status: status, Params: p})
}

func (s *Service) list(ctx context.Context, filter ListFilter) (pagination.Result[*RewardRequest], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return pagination.Result[*RewardRequest]{}, errutil.ValidationFailed("unknown status filter", nil,
			errutil.WithDetails(errutil.Detail{Field: "status", Message: string(filter.Status)}))
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Result[*RewardRequest]{}, errutil.Internal("failed to list reward requests", err)
	}
	return pagination.NewResult(items, total, filter.Params), nil
}
