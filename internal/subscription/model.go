package subscription

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusOnTrial   Status = "on_trial"
	StatusPaused    Status = "paused"
	StatusPastDue   Status = "past_due"
	StatusUnpaid    Status = "unpaid"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusOnTrial, StatusPaused, StatusPastDue, StatusUnpaid, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Active reports whether the status grants usage of metered features.
func (s Status) Active() bool {
	return s == StatusActive || s == StatusOnTrial
}

// ActiveStatuses is used in SQL filters.
var ActiveStatuses = []string{string(StatusActive), string(StatusOnTrial)}

type Subscription struct {
	ID                     int        `db:"id" json:"id"`
	UserID                 int        `db:"user_id" json:"userId"`
	PlanID                 *int       `db:"plan_id" json:"planId,omitempty"`
	ProviderSubscriptionID string     `db:"provider_subscription_id" json:"providerSubscriptionId"`
	Status                 Status     `db:"status" json:"status"`
	RenewsAt               *time.Time `db:"renews_at" json:"renewsAt,omitempty"`
	EndsAt                 *time.Time `db:"ends_at" json:"endsAt,omitempty"`
	TrialEndsAt            *time.Time `db:"trial_ends_at" json:"trialEndsAt,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updatedAt"`
}

type Plan struct {
	ID         int       `db:"id" json:"id"`
	VariantID  string    `db:"variant_id" json:"variantId"`
	Name       string    `db:"name" json:"name"`
	PriceCents int64     `db:"price_cents" json:"priceCents"`
	Interval   string    `db:"interval" json:"interval"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// WebhookEvent is the billing provider's envelope.
type WebhookEvent struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			UserID FlexibleID `json:"user_id"`
		} `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         FlexibleID             `json:"id"`
		Attributes SubscriptionAttributes `json:"attributes"`
	} `json:"data"`
}

type SubscriptionAttributes struct {
	Status      Status     `json:"status"`
	VariantID   FlexibleID `json:"variant_id"`
	UserEmail   string     `json:"user_email"`
	RenewsAt    *time.Time `json:"renews_at"`
	EndsAt      *time.Time `json:"ends_at"`
	TrialEndsAt *time.Time `json:"trial_ends_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FlexibleID accepts both JSON strings and numbers. The provider sends ids
// as strings in some places and integers in others.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*f = FlexibleID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}

func (f FlexibleID) Int() (int, bool) {
	n, err := strconv.Atoi(string(f))
	return n, err == nil
}
