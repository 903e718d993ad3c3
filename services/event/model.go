package event

import (
	"encoding/json"
	"time"

	"gameops-controlplane/services/eligibility"

	"gorm.io/datatypes"
)

// Event is a time-bounded campaign administrators create. It is "live" for
// claim purposes when IsActive and the current time falls inside
// [StartAt, EndAt]; that window is enforced by the active-events query.
type Event struct {
	EventID     string    `gorm:"column:event_id;primaryKey" json:"event_id"`
	Name        string    `gorm:"column:name;not null;index" json:"name"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	StartAt     time.Time `gorm:"column:start_at;not null" json:"start_at"`
	EndAt       time.Time `gorm:"column:end_at;not null" json:"end_at"`
	IsActive    bool      `gorm:"column:is_active;default:false;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type RewardType string

const (
	RewardTypePoint  RewardType = "point"
	RewardTypeItem   RewardType = "item"
	RewardTypeCoupon RewardType = "coupon"
)

func (t RewardType) Valid() bool {
	switch t {
	case RewardTypePoint, RewardTypeItem, RewardTypeCoupon:
		return true
	default:
		return false
	}
}

// Detail payloads form a tagged union keyed by the reward's Type. Shapes
// are validated at the catalog boundary; the lifecycle manager never looks
// inside them.

type PointDetails struct {
	Amount int64 `json:"amount"`
}

type ItemDetails struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

type CouponDetails struct {
	CouponCode string     `json:"coupon_code"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Reward is a claimable prize attached to exactly one event, gated by its
// own condition tree. ConditionsDescription is display copy only and is
// never evaluated.
type Reward struct {
	RewardID              string         `gorm:"column:reward_id;primaryKey" json:"reward_id"`
	EventID               string         `gorm:"column:event_id;not null;index" json:"event_id"`
	Type                  RewardType     `gorm:"column:type;not null" json:"type"`
	Name                  string         `gorm:"column:name;not null" json:"name"`
	Description           string         `gorm:"column:description" json:"description,omitempty"`
	Details               datatypes.JSON `gorm:"column:details" json:"details"`
	ConditionType         string         `gorm:"column:condition_type;not null" json:"condition_type"`
	ConditionConfig       datatypes.JSON `gorm:"column:condition_config;not null" json:"condition_config"`
	ConditionsDescription string         `gorm:"column:conditions_description;not null" json:"conditions_description"`
	CreatedAt             time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// DecodeConditionConfig unmarshals the stored rule tree.
func (r *Reward) DecodeConditionConfig() (eligibility.ConditionConfig, error) {
	var config eligibility.ConditionConfig
	if len(r.ConditionConfig) == 0 {
		return config, nil
	}
	if err := json.Unmarshal(r.ConditionConfig, &config); err != nil {
		return eligibility.ConditionConfig{}, err
	}
	return config, nil
}

// EventWithRewards is the catalog read model for the event detail view.
type EventWithRewards struct {
	Event
	Rewards []Reward `json:"rewards"`
}
