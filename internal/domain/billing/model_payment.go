package billing

import (
	"time"

	"pigent-app/internal/domain/bots"
	"pigent-app/internal/domain/users"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Payload keys inside Transaction.RawPayload. Each writer owns its key.
const (
	PayloadInitialize   = "initialize"
	PayloadError        = "error"
	PayloadEvent        = "event"
	PayloadVerify       = "verify"
	PayloadMismatch     = "mismatch"
	PayloadBotReference = "bot_reference"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Transaction is one attempted charge. Amount is in major units and always
// comes from the price catalog.
type Transaction struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	Reference string          `gorm:"size:100;not null;uniqueIndex:idx_transactions_reference" json:"reference"`
	UserID    uint            `gorm:"not null;index" json:"-"`
	User      *users.User     `json:"-"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency  string          `gorm:"size:8;not null;default:'NGN'" json:"currency"`
	Plan      string          `gorm:"size:64" json:"plan"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	Express   bool            `json:"express"`
	Model     string          `gorm:"size:64" json:"model,omitempty"`
	Status    Status          `gorm:"size:16;not null;default:'pending';index" json:"status"`

	RawPayload datatypes.JSONMap `json:"-"`

	BotInstanceID *uint             `gorm:"uniqueIndex:idx_transactions_bot_instance_id" json:"-"`
	BotInstance   *bots.BotInstance `json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BotReference returns the linked bot reference recorded in the payload.
func (t *Transaction) BotReference() string {
	if t.RawPayload == nil {
		return ""
	}
	ref, _ := t.RawPayload[PayloadBotReference].(string)
	return ref
}

// MergePayload returns a copy of the stored payload with the given keys
// replaced. Keys not mentioned are preserved.
func (t *Transaction) MergePayload(updates map[string]any) datatypes.JSONMap {
	merged := make(datatypes.JSONMap, len(t.RawPayload)+len(updates))
	for k, v := range t.RawPayload {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}
