package domain

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

type GoalStatus string

const (
	GoalPending   GoalStatus = "PENDING"
	GoalCompleted GoalStatus = "COMPLETED"
	GoalArchived  GoalStatus = "ARCHIVED"
)

// WorkKind tags both tasks and time slots; the daily packer scores
// kind-matched placements higher.
type WorkKind string

const (
	KindLightWork   WorkKind = "LIGHT_WORK"
	KindFocusedWork WorkKind = "FOCUSED_WORK"
	KindStudy       WorkKind = "STUDY"
)

// ValidWorkKinds is the canonical set of accepted work kind strings.
var ValidWorkKinds = map[string]bool{
	string(KindLightWork): true, string(KindFocusedWork): true, string(KindStudy): true,
}

type CheckoutDecision string

const (
	DecisionContinue CheckoutDecision = "CONTINUE"
	DecisionSwitch   CheckoutDecision = "SWITCH"
	DecisionBreak    CheckoutDecision = "BREAK"
	DecisionComplete CheckoutDecision = "COMPLETE"
)

var ValidCheckoutDecisions = map[string]bool{
	string(DecisionContinue): true, string(DecisionSwitch): true,
	string(DecisionBreak): true, string(DecisionComplete): true,
}

type CheckoutType string

const (
	CheckoutScheduled CheckoutType = "SCHEDULED"
	CheckoutManual    CheckoutType = "MANUAL"
)

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "PENDING"
	SuggestionAccepted SuggestionStatus = "ACCEPTED"
	SuggestionRejected SuggestionStatus = "REJECTED"
	SuggestionExpired  SuggestionStatus = "EXPIRED"
)

type SuggestionTrigger string

const (
	TriggerCheckout        SuggestionTrigger = "CHECKOUT"
	TriggerManualCheckout  SuggestionTrigger = "MANUAL_CHECKOUT"
	TriggerOverdueRecovery SuggestionTrigger = "OVERDUE_RECOVERY"
)

// EscalationLevel identifies a checkout-reminder level. Each level is
// delivered at most once per deadline epoch.
type EscalationLevel string

const (
	LevelLight   EscalationLevel = "light"
	LevelStrong  EscalationLevel = "strong"
	LevelOverdue EscalationLevel = "overdue"
)

type DiffChange string

const (
	ChangePushed    DiffChange = "pushed"
	ChangeAdded     DiffChange = "added"
	ChangeRemoved   DiffChange = "removed"
	ChangeReordered DiffChange = "reordered"
)
