package entity

import "time"

// Metrics is a row in aether_campaign_metrics. Counters start at zero and are
// filled in by the outbound integrations.
type Metrics struct {
	ID             string    `db:"id" json:"id"`
	Campaign       string    `db:"campaign" json:"campaign"`
	TargetKeywords string    `db:"target_keywords" json:"target_keywords"`
	DailyLimit     int       `db:"daily_limit" json:"daily_limit"`
	LeadsContacted int       `db:"leads_contacted" json:"leads_contacted"`
	MeetingsBooked int       `db:"meetings_booked" json:"meetings_booked"`
	CostCents      int64     `db:"cost_cents" json:"cost_cents"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Lead is a row in aether_leads.
type Lead struct {
	ID        string    `db:"id" json:"id"`
	Campaign  string    `db:"campaign" json:"campaign"`
	Name      *string   `db:"name" json:"name"`
	Company   *string   `db:"company" json:"company"`
	Email     *string   `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
