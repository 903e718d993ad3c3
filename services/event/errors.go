package event

import "gameops-controlplane/pkg/errutil"

// Reason codes surfaced on catalog errors. Clients branch on these, never
// on the human message.
const (
	ReasonEventNotFound  = "EVENT_NOT_FOUND"
	ReasonRewardNotFound = "REWARD_NOT_FOUND"
)

func ErrEventNotFound(eventID string) error {
	return errutil.UnprocessableEntity("event not found", nil,
		errutil.WithReason(ReasonEventNotFound),
		errutil.WithDetails(errutil.Detail{Field: "event_id", Message: eventID}),
	)
}

func ErrRewardNotFound(rewardID string) error {
	return errutil.UnprocessableEntity("reward not found", nil,
		errutil.WithReason(ReasonRewardNotFound),
		errutil.WithDetails(errutil.Detail{Field: "reward_id", Message: rewardID}),
	)
}
