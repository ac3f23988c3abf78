package models

// transitionTable lists, for every state, the states it may move to next.
// A state missing from the table is terminal.
type transitionTable[S comparable] map[S][]S

func (t transitionTable[S]) allows(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SubscriptionStatus is shared by app subscriptions and community member subscriptions.
type SubscriptionStatus string

const (
	// SubscriptionPending is awaiting payment confirmation.
	SubscriptionPending SubscriptionStatus = "pending"
	// SubscriptionActive has been paid for.
	SubscriptionActive SubscriptionStatus = "active"
	// SubscriptionCancelled was ended by the subscriber or an operator.
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	// SubscriptionExpired ran past its expiry without renewal.
	SubscriptionExpired SubscriptionStatus = "expired"
)

var subscriptionTransitions = transitionTable[SubscriptionStatus]{
	SubscriptionPending: {SubscriptionActive, SubscriptionCancelled},
	SubscriptionActive:  {SubscriptionCancelled, SubscriptionExpired},
}

// Valid reports whether s is a known status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionPending, SubscriptionActive, SubscriptionCancelled, SubscriptionExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	return subscriptionTransitions.allows(s, next)
}

// TransactionStatus is the lifecycle of a payment transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionSucceeded TransactionStatus = "succeeded"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

var transactionTransitions = transitionTable[TransactionStatus]{
	TransactionPending:   {TransactionSucceeded, TransactionFailed},
	TransactionSucceeded: {TransactionRefunded},
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionSucceeded, TransactionFailed, TransactionRefunded:
		return true
	}
	return false
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return transactionTransitions.allows(s, next)
}

// HandoffStatus is the lifecycle of a single wheel handoff.
type HandoffStatus string

const (
	// HandoffPending means the giver has not acted yet.
	HandoffPending HandoffStatus = "pending"
	// HandoffActionDone means the giver reports the favor as done.
	HandoffActionDone HandoffStatus = "action_done"
	// HandoffAcknowledged means a wheel participant confirmed the favor.
	HandoffAcknowledged HandoffStatus = "acknowledged"
)

var handoffTransitions = transitionTable[HandoffStatus]{
	HandoffPending:    {HandoffActionDone},
	HandoffActionDone: {HandoffAcknowledged},
}

func (s HandoffStatus) Valid() bool {
	switch s {
	case HandoffPending, HandoffActionDone, HandoffAcknowledged:
		return true
	}
	return false
}

func (s HandoffStatus) CanTransitionTo(next HandoffStatus) bool {
	return handoffTransitions.allows(s, next)
}

// JobStatus is the state of a quiz generation job as seen by the external worker.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

var jobTransitions = transitionTable[JobStatus]{
	JobQueued:     {JobProcessing, JobFailed},
	JobProcessing: {JobCompleted, JobFailed},
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobQueued, JobProcessing, JobCompleted, JobFailed:
		return true
	}
	return false
}

func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	return jobTransitions.allows(s, next)
}

// WheelStatus is the lifecycle of a wheel.
type WheelStatus string

const (
	WheelDraft       WheelStatus = "draft"
	WheelOpenForJoin WheelStatus = "open_for_join"
	WheelInProgress  WheelStatus = "in_progress"
	WheelCompleted   WheelStatus = "completed"
	WheelCancelled   WheelStatus = "cancelled"
)

var wheelTransitions = transitionTable[WheelStatus]{
	WheelDraft:       {WheelOpenForJoin, WheelInProgress, WheelCancelled},
	WheelOpenForJoin: {WheelInProgress, WheelCancelled},
	WheelInProgress:  {WheelCompleted, WheelCancelled},
}

func (s WheelStatus) Valid() bool {
	switch s {
	case WheelDraft, WheelOpenForJoin, WheelInProgress, WheelCompleted, WheelCancelled:
		return true
	}
	return false
}

func (s WheelStatus) CanTransitionTo(next WheelStatus) bool {
	return wheelTransitions.allows(s, next)
}

// ApprovalStatus tracks whether a wheel participant was accepted.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

var approvalTransitions = transitionTable[ApprovalStatus]{
	ApprovalPending: {ApprovalApproved, ApprovalRejected},
}

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	return approvalTransitions.allows(s, next)
}
