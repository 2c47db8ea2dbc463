package service

import "errors"

// Rule violations are expected, user-facing outcomes. Handlers map them to
// HTTP statuses with errors.Is; none of them leaves partial state behind.
var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTapCount   = errors.New("invalid tap count")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDailyLimitReached = errors.New("daily limit reached")
	ErrTaskNotReady      = errors.New("task not ready")
	ErrAlreadyClaimed    = errors.New("task already claimed")
	ErrNotMember         = errors.New("not a member")
	ErrSelfReferral      = errors.New("self referral")
	ErrAlreadyReferred   = errors.New("referral already applied")

	// ErrExternalService covers collaborator failures (membership API down,
	// storage conflict retries exhausted). Never conflated with ErrNotMember.
	ErrExternalService = errors.New("external service error")
)
