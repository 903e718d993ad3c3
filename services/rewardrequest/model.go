package rewardrequest

import "time"

// Status is the lifecycle state of a reward request.
//
//	PENDING -> SUCCESS (terminal)
//	PENDING -> FAILED  -> PENDING (reopen on re-claim)
//
// CLAIMED is reserved for a future delivery-acknowledgement step; nothing
// writes it today.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusClaimed Status = "CLAIMED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed, StatusClaimed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the state accepts no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusClaimed
}

// RewardRequest is one player's attempt to claim one reward of one event.
// The composite unique index is the authoritative guard for the
// one-active-request rule; the service pre-checks are for friendly errors
// only.
type RewardRequest struct {
	RequestID     string     `gorm:"column:request_id;primaryKey" json:"request_id"`
	UserID        string     `gorm:"column:user_id;not null;uniqueIndex:idx_reward_request_triple;index" json:"user_id"`
	EventID       string     `gorm:"column:event_id;not null;uniqueIndex:idx_reward_request_triple;index" json:"event_id"`
	RewardID      string     `gorm:"column:reward_id;not null;uniqueIndex:idx_reward_request_triple" json:"reward_id"`
	Status        Status     `gorm:"column:status;not null;index" json:"status"`
	FailureReason *string    `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	RequestedAt   time.Time  `gorm:"column:requested_at;not null" json:"requested_at"`
	CompletedAt   *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (RewardRequest) TableName() string {
	return "reward_requests"
}
