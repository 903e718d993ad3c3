package rewardrequest

import "gameops-controlplane/pkg/errutil"

// Reason codes surfaced on lifecycle errors.
const (
	ReasonInvalidRewardEvent       = "INVALID_REWARD_EVENT"
	ReasonRewardConditionNotMet    = "REWARD_CONDITION_NOT_MET"
	ReasonDuplicateRewardRequest   = "DUPLICATE_REWARD_REQUEST"
	ReasonRewardAlreadyReceived    = "REWARD_ALREADY_RECEIVED"
	ReasonRewardRequestNotFound    = "REWARD_REQUEST_NOT_FOUND"
	ReasonRewardRequestUpdateFault = "REWARD_REQUEST_UPDATE_FAILED"
)

// ErrInvalidRewardEvent marks a claim naming a reward that belongs to a
// different event than the one in the request path.
func ErrInvalidRewardEvent(eventID, rewardID string) error {
	return errutil.BadRequest("reward does not belong to event", nil,
		errutil.WithReason(ReasonInvalidRewardEvent),
		errutil.WithDetails(
			errutil.Detail{Field: "event_id", Message: eventID},
			errutil.Detail{Field: "reward_id", Message: rewardID},
		),
	)
}

func ErrRewardConditionNotMet() error {
	return errutil.Forbidden("reward conditions not met", nil,
		errutil.WithReason(ReasonRewardConditionNotMet))
}

func ErrDuplicateRewardRequest() error {
	return errutil.Conflict("a reward request is already pending", nil,
		errutil.WithReason(ReasonDuplicateRewardRequest))
}

func ErrRewardAlreadyReceived() error {
	return errutil.Conflict("reward already received", nil,
		errutil.WithReason(ReasonRewardAlreadyReceived))
}

func ErrRewardRequestNotFound(requestID string) error {
	return errutil.UnprocessableEntity("reward request not found", nil,
		errutil.WithReason(ReasonRewardRequestNotFound),
		errutil.WithDetails(errutil.Detail{Field: "request_id", Message: requestID}),
	)
}

// ErrRewardRequestUpdateFailed marks a resolve attempt against a request
// that is not PENDING.
func ErrRewardRequestUpdateFailed(requestID string, status Status) error {
	return errutil.BadRequest("reward request is not pending", nil,
		errutil.WithReason(ReasonRewardRequestUpdateFault),
		errutil.WithDetails(
			errutil.Detail{Field: "request_id", Message: requestID},
			errutil.Detail{Field: "status", Message: string(status)},
		),
	)
}
