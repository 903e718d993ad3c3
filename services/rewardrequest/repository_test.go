package rewardrequest

import (
	"context"
	"testing"
	"time"

	"gameops-controlplane/services/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedRequest(id, userID string) *RewardRequest {
	return &RewardRequest{
		RequestID:   id,
		UserID:      userID,
		EventID:     "evt-1",
		RewardID:    "rwd-1",
		Status:      StatusPending,
		RequestedAt: time.Now().UTC(),
	}
}

func TestRepositoryUniqueTriple(t *testing.T) {
	db := testutil.NewTestDB(t, &RewardRequest{})
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, seedRequest("req-1", "user-1")))

	// Same triple again must be rejected by the index even though the
	// primary key differs.
	err := repo.Create(ctx, seedRequest("req-2", "user-1"))
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))

	// A different user is a different triple.
	require.NoError(t, repo.Create(ctx, seedRequest("req-3", "user-2")))
}

func TestRepositoryUpdateStatusClearsColumns(t *testing.T) {
	db := testutil.NewTestDB(t, &RewardRequest{})
	repo := NewRepository(db)
	ctx := context.Background()

	req := seedRequest("req-1", "user-1")
	require.NoError(t, repo.Create(ctx, req))

	now := time.Now().UTC()
	reason := "delivery failed"
	require.NoError(t, repo.UpdateStatus(ctx, req.RequestID, map[string]any{
		"status":         StatusFailed,
		"failure_reason": reason,
		"completed_at":   now,
	}))

	got, err := repo.FindByID(ctx, req.RequestID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.FailureReason)
	require.NotNil(t, got.CompletedAt)

	require.NoError(t, repo.UpdateStatus(ctx, req.RequestID, map[string]any{
		"status":         StatusPending,
		"failure_reason": nil,
		"completed_at":   nil,
	}))

	got, err = repo.FindByID(ctx, req.RequestID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
	require.Nil(t, got.FailureReason)
	require.Nil(t, got.CompletedAt)
}

func TestRepositoryUpdateStatusMissingRow(t *testing.T) {
	db := testutil.NewTestDB(t, &RewardRequest{})
	repo := NewRepository(db)

	err := repo.UpdateStatus(context.Background(), "missing", map[string]any{"status": StatusSuccess})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindByTripleAbsent(t *testing.T) {
	db := testutil.NewTestDB(t, &RewardRequest{})
	repo := NewRepository(db)

	got, err := repo.FindByTriple(context.Background(), "user-1", "evt-1", "rwd-1")
	require.NoError(t, err)
	require.Nil(t, got)
}
