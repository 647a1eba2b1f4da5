package usage

import (
	"errors"
	"fmt"
	"time"
)

// Kind names one metered counter.
type Kind string

const (
	KindCompile     Kind = "compile"
	KindRoutineEdit Kind = "routineEdit"
	KindAIMessage   Kind = "aiMessage"
)

var Kinds = []Kind{KindCompile, KindRoutineEdit, KindAIMessage}

var ErrUnknownKind = errors.New("unknown usage kind")

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Limits is the quota policy stamped onto newly created periods.
type Limits struct {
	Compiles     int
	RoutineEdits int
	AIMessages   int
}

func (l Limits) For(kind Kind) int {
	switch kind {
	case KindCompile:
		return l.Compiles
	case KindRoutineEdit:
		return l.RoutineEdits
	case KindAIMessage:
		return l.AIMessages
	}
	return 0
}

type Period struct {
	ID                int       `db:"id" json:"id"`
	SubscriptionID    int       `db:"subscription_id" json:"subscriptionId"`
	UserID            int       `db:"user_id" json:"userId"`
	PeriodStart       time.Time `db:"period_start" json:"periodStart"`
	PeriodEnd         time.Time `db:"period_end" json:"periodEnd"`
	CompilesUsed      int       `db:"compiles_used" json:"compilesUsed"`
	CompilesLimit     int       `db:"compiles_limit" json:"compilesLimit"`
	RoutineEditsUsed  int       `db:"routine_edits_used" json:"routineEditsUsed"`
	RoutineEditsLimit int       `db:"routine_edits_limit" json:"routineEditsLimit"`
	AIMessagesUsed    int       `db:"ai_messages_used" json:"aiMessagesUsed"`
	AIMessagesLimit   int       `db:"ai_messages_limit" json:"aiMessagesLimit"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// Counter returns the (used, limit) pair tracked for kind.
func (p *Period) Counter(kind Kind) (used, limit int) {
	switch kind {
	case KindCompile:
		return p.CompilesUsed, p.CompilesLimit
	case KindRoutineEdit:
		return p.RoutineEditsUsed, p.RoutineEditsLimit
	case KindAIMessage:
		return p.AIMessagesUsed, p.AIMessagesLimit
	}
	return 0, 0
}

func (p *Period) Quota(kind Kind) *Quota {
	used, limit := p.Counter(kind)
	resetsAt := p.PeriodEnd
	return &Quota{
		Kind:     kind,
		Allowed:  used < limit,
		Used:     used,
		Limit:    limit,
		ResetsAt: &resetsAt,
	}
}

// Quota answers whether one more action of Kind fits in the current period.
// ResetsAt is nil when there is no active subscription.
type Quota struct {
	Kind     Kind       `json:"kind"`
	Allowed  bool       `json:"allowed"`
	Used     int        `json:"used"`
	Limit    int        `json:"limit"`
	ResetsAt *time.Time `json:"resetsAt"`
}

type Summary struct {
	SubscriptionID int             `json:"subscriptionId"`
	PeriodStart    time.Time       `json:"periodStart"`
	PeriodEnd      time.Time       `json:"periodEnd"`
	Counters       map[Kind]*Quota `json:"counters"`
}

type Event struct {
	ID            int       `db:"id" json:"id"`
	UsagePeriodID int       `db:"usage_period_id" json:"usagePeriodId"`
	Kind          Kind      `db:"kind" json:"kind"`
	UsedAfter     int       `db:"used_after" json:"usedAfter"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

var ErrQuotaExceeded = errors.New("quota exceeded")

// QuotaExceededError carries the counter state at the moment of denial.
// errors.Is(err, ErrQuotaExceeded) matches it.
type QuotaExceededError struct {
	Quota *Quota
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %d/%d used", e.Quota.Kind, e.Quota.Used, e.Quota.Limit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
