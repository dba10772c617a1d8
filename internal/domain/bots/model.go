package bots

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusReady, StatusFailed},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
// Ready and failed are terminal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusReady, StatusFailed:
		return st, true
	}
	return "", false
}

// BotInstance is the resource granted to a user after a successful payment.
type BotInstance struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	Reference string  `gorm:"size:36;not null;uniqueIndex:idx_bot_instances_reference" json:"reference"`
	OwnerID   uint    `gorm:"not null;index" json:"-"`
	NoteCount uint    `gorm:"not null;default:0" json:"note_count"`
	Status    Status  `gorm:"size:16;not null;default:'pending';index" json:"status"`
	BotURL    *string `json:"bot_url,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BotInstance) BeforeCreate(tx *gorm.DB) error {
	if b.Reference == "" {
		b.Reference = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	return nil
}
