package event

import (
	"context"
	"testing"
	"time"

	"gameops-controlplane/pkg/db/pagination"
	"gameops-controlplane/pkg/errutil"
	"gameops-controlplane/services/eligibility"
	"gameops-controlplane/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	db := testutil.NewTestDB(t, &Event{}, &Reward{})
	return NewService(ServiceParams{DB: db, Node: node})
}

func validEventInput(now time.Time) CreateEventInput {
	return CreateEventInput{
		Name:     "Spring Festival",
		StartAt:  now.Add(-time.Hour),
		EndAt:    now.Add(24 * time.Hour),
		IsActive: true,
	}
}

func validRewardInput() AddRewardInput {
	return AddRewardInput{
		Type:    RewardTypePoint,
		Name:    "1000 Points",
		Details: map[string]any{"amount": 1000},
		ConditionConfig: eligibility.ConditionConfig{
			Operator: eligibility.OperatorAnd,
			Rules: []eligibility.Rule{
				{Type: eligibility.RuleTypeLevel, Params: map[string]any{"minLevel": 10}},
			},
		},
		ConditionsDescription: "Reach level 10",
	}
}

func TestCreateEvent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	ev, err := s.CreateEvent(ctx, validEventInput(now))
	require.NoError(t, err)
	require.NotEmpty(t, ev.EventID)
	require.Equal(t, "Spring Festival", ev.Name)
	require.True(t, ev.IsActive)

	got, err := s.GetEvent(ctx, ev.EventID)
	require.NoError(t, err)
	require.Equal(t, ev.EventID, got.EventID)
}

func TestCreateEventRejectsInvertedWindow(t *testing.T) {
	s := newTestService(t)
	now := time.Now()

	in := validEventInput(now)
	in.StartAt = now.Add(24 * time.Hour)
	in.EndAt = now

	_, err := s.CreateEvent(context.Background(), in)
	require.Error(t, err)

	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, errutil.StatusValidationFailed, be.Code)
}

func TestGetEventNotFound(t *testing.T) {
	s := newTestService(t)

	_, err := s.GetEvent(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, errutil.HasReason(err, ReasonEventNotFound))
}

func TestAddReward(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	ev, err := s.CreateEvent(ctx, validEventInput(time.Now()))
	require.NoError(t, err)

	rw, err := s.AddReward(ctx, ev.EventID, validRewardInput())
	require.NoError(t, err)
	require.NotEmpty(t, rw.RewardID)
	require.Equal(t, ev.EventID, rw.EventID)

	config, err := rw.DecodeConditionConfig()
	require.NoError(t, err)
	require.Equal(t, eligibility.OperatorAnd, config.Operator)
	require.Len(t, config.Rules, 1)
}

func TestAddRewardValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	ev, err := s.CreateEvent(ctx, validEventInput(time.Now()))
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*AddRewardInput)
	}{
		{"unknown type", func(in *AddRewardInput) { in.Type = "badge" }},
		{"non-positive point amount", func(in *AddRewardInput) { in.Details = map[string]any{"amount": 0} }},
		{"item missing id", func(in *AddRewardInput) {
			in.Type = RewardTypeItem
			in.Details = map[string]any{"quantity": 1}
		}},
		{"coupon missing code", func(in *AddRewardInput) {
			in.Type = RewardTypeCoupon
			in.Details = map[string]any{}
		}},
		{"unknown operator", func(in *AddRewardInput) { in.ConditionConfig.Operator = "XOR" }},
		{"rule without type", func(in *AddRewardInput) {
			in.ConditionConfig.Rules = []eligibility.Rule{{Params: map[string]any{"minLevel": 1}}}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validRewardInput()
			tc.mutate(&in)

			_, err := s.AddReward(ctx, ev.EventID, in)
			require.Error(t, err)

			var be errutil.BaseError
			require.ErrorAs(t, err, &be)
			require.Equal(t, errutil.StatusValidationFailed, be.Code)
		})
	}
}

func TestAddRewardUnknownEvent(t *testing.T) {
	s := newTestService(t)

	_, err := s.AddReward(context.Background(), "missing", validRewardInput())
	require.Error(t, err)
	require.True(t, errutil.HasReason(err, ReasonEventNotFound))
}

func TestGetEventWithRewards(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	ev, err := s.CreateEvent(ctx, validEventInput(time.Now()))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.AddReward(ctx, ev.EventID, validRewardInput())
		require.NoError(t, err)
	}

	got, err := s.GetEventWithRewards(ctx, ev.EventID)
	require.NoError(t, err)
	require.Equal(t, ev.EventID, got.EventID)
	require.Len(t, got.Rewards, 3)
}

func TestListActiveEvents(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	live, err := s.CreateEvent(ctx, validEventInput(now))
	require.NoError(t, err)

	expired := validEventInput(now)
	expired.Name = "Expired"
	expired.StartAt = now.Add(-48 * time.Hour)
	expired.EndAt = now.Add(-24 * time.Hour)
	_, err = s.CreateEvent(ctx, expired)
	require.NoError(t, err)

	upcoming := validEventInput(now)
	upcoming.Name = "Upcoming"
	upcoming.StartAt = now.Add(24 * time.Hour)
	upcoming.EndAt = now.Add(48 * time.Hour)
	_, err = s.CreateEvent(ctx, upcoming)
	require.NoError(t, err)

	inactive := validEventInput(now)
	inactive.Name = "Disabled"
	inactive.IsActive = false
	_, err = s.CreateEvent(ctx, inactive)
	require.NoError(t, err)

	items, err := s.ListActiveEvents(ctx, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, live.EventID, items[0].EventID)
}

func TestListEventsPagination(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 25; i++ {
		_, err := s.CreateEvent(ctx, validEventInput(now))
		require.NoError(t, err)
	}

	page1, err := s.ListEvents(ctx, ListEventsFilter{Params: pagination.Params{Page: 1, Limit: 10}})
	require.NoError(t, err)
	require.Len(t, page1.Items, 10)
	require.EqualValues(t, 25, page1.Total)
	require.Equal(t, 3, page1.TotalPages)

	page3, err := s.ListEvents(ctx, ListEventsFilter{Params: pagination.Params{Page: 3, Limit: 10}})
	require.NoError(t, err)
	require.Len(t, page3.Items, 5)

	defaults, err := s.ListEvents(ctx, ListEventsFilter{})
	require.NoError(t, err)
	require.Len(t, defaults.Items, pagination.DefaultLimit)
	require.Equal(t, pagination.DefaultPage, defaults.Page)
}
