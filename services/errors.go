package services

import "errors"

// Error kinds. Concrete errors wrap one of these so callers can branch with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrTransientDelivery = errors.New("transient delivery failure")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func notFound(msg string) error     { return &kindError{kind: ErrNotFound, msg: msg} }
func invalidState(msg string) error { return &kindError{kind: ErrInvalidState, msg: msg} }

var (
	ErrEvidenceNotFound         = notFound("evidence not found")
	ErrActivityNotFound         = notFound("activity not found")
	ErrStudentNotFound          = notFound("student not found")
	ErrUserNotFound             = notFound("user not found")
	ErrEvidenceAlreadyReviewed  = invalidState("evidence has already been reviewed")
	ErrInvalidTargetStatus      = invalidState("target status must be approved or rejected")
	ErrEvidenceActivityMismatch = invalidState("evidence does not belong to activity")
	ErrEvidenceAlreadySubmitted = invalidState("evidence already submitted for this activity")

	ErrMissionNotFound      = notFound("mission not found")
	ErrMissionNotAssigned   = notFound("mission is not assigned to user")
	ErrMissionNotCompleted  = invalidState("mission is not completed")
	ErrRewardAlreadyClaimed = invalidState("mission reward already claimed")
	ErrInvalidIncrement     = invalidState("progress increment must be positive")

	ErrNotificationNotFound = notFound("notification not found")
	ErrInvalidPushToken     = invalidState("push token is malformed")

	ErrDeckNotFound        = notFound("deck not found")
	ErrSessionNotFound     = notFound("study session not found")
	ErrActiveSessionExists = invalidState("an active study session already exists")
	ErrSessionNotActive    = invalidState("study session is not active")
	ErrInvalidDifficulty   = invalidState("difficulty must be again, hard, good or easy")
)
