package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pigent-app/internal/domain/billing"
	"pigent-app/internal/domain/bots"
	"pigent-app/internal/domain/pricing"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger persists payment attempts and owns every status transition.
// Success handling and bot provisioning share one database transaction that
// holds a row lock on the payment, so concurrent webhook and verify calls
// for one reference are serialized.
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Confirmation is a provider report that a charge succeeded.
type Confirmation struct {
	// Source is the payload key the report is stored under.
	Source   string
	Amount   int64
	Currency string
	Payload  map[string]any
}

// Outcome describes what a ledger call did.
type Outcome struct {
	Transaction *billing.Transaction
	Bot         *bots.BotInstance
	Changed     bool
	BotCreated  bool
}

func NewLedger(db *gorm.DB, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{db: db, logger: logger.Named("ledger")}
}

// Create stores a new pending transaction. The reference must be fresh.
func (l *Ledger) Create(ctx context.Context, t *billing.Transaction) error {
	t.Status = billing.StatusPending
	if err := l.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, reference string) (*billing.Transaction, error) {
	return l.find(l.db.WithContext(ctx).Where("reference = ?", reference))
}

// GetOwned scopes the lookup by owner; another user's reference is
// indistinguishable from a missing one.
func (l *Ledger) GetOwned(ctx context.Context, reference string, userID uint) (*billing.Transaction, error) {
	return l.find(l.db.WithContext(ctx).Where("reference = ? AND user_id = ?", reference, userID))
}

func (l *Ledger) find(q *gorm.DB) (*billing.Transaction, error) {
	var t billing.Transaction
	err := q.Preload("BotInstance").First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (l *Ledger) ListByUser(ctx context.Context, userID uint) ([]billing.Transaction, error) {
	var list []billing.Transaction
	err := l.db.WithContext(ctx).
		Preload("BotInstance").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (l *Ledger) ListAll(ctx context.Context, status billing.Status) ([]billing.Transaction, error) {
	q := l.db.WithContext(ctx).Preload("User").Preload("BotInstance")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []billing.Transaction
	err := q.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// ListStalePending returns pending transactions created before the cutoff,
// oldest first.
func (l *Ledger) ListStalePending(ctx context.Context, before time.Time, limit int) ([]billing.Transaction, error) {
	q := l.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", billing.StatusPending, before).
		Order("created_at, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var list []billing.Transaction
	err := q.Find(&list).Error
	return list, err
}

// RecordPayload merges one payload key without touching status.
func (l *Ledger) RecordPayload(ctx context.Context, reference, key string, value any) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockByReference(tx, reference)
		if err != nil {
			return err
		}
		return tx.Model(&billing.Transaction{}).
			Where("id = ?", t.ID).
			Update("raw_payload", t.MergePayload(map[string]any{key: value})).Error
	})
}

// MarkSuccess moves a pending transaction to success and provisions its bot
// in the same database transaction. Re-applying success is a no-op.
// A failed transaction stays failed (ErrTerminalState). A provider amount or
// currency that disagrees with the ledger fails the transaction
// (ErrAmountMismatch) without provisioning.
func (l *Ledger) MarkSuccess(ctx context.Context, reference string, conf Confirmation) (*Outcome, error) {
	if conf.Source == "" {
		conf.Source = billing.PayloadEvent
	}
	out := &Outcome{}
	var mismatch bool

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockByReference(tx, reference)
		if err != nil {
			return err
		}
		out.Transaction = t

		switch t.Status {
		case billing.StatusSuccess:
			return nil
		case billing.StatusFailed:
			return fmt.Errorf("%w: %s is %s", ErrTerminalState, reference, t.Status)
		}

		if reason := checkAmount(t, conf); reason != "" {
			mismatch = true
			return transition(tx, t, billing.StatusFailed, map[string]any{
				conf.Source: conf.Payload,
				billing.PayloadMismatch: map[string]any{
					"reason":            reason,
					"expected_amount":   pricing.ToMinorUnits(t.Amount),
					"expected_currency": t.Currency,
					"reported_amount":   conf.Amount,
					"reported_currency": conf.Currency,
				},
			})
		}

		if err := transition(tx, t, billing.StatusSuccess, map[string]any{conf.Source: conf.Payload}); err != nil {
			return err
		}
		out.Changed = true

		bot, created, err := provision(tx, t)
		if err != nil {
			return err
		}
		out.Bot, out.BotCreated = bot, created
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := l.logger.With(zap.String("reference", reference))
	switch {
	case mismatch:
		log.Error("provider amount mismatch, transaction failed",
			zap.Int64("reported_amount", conf.Amount),
			zap.String("reported_currency", conf.Currency))
		return out, ErrAmountMismatch
	case out.Changed:
		log.Info("transaction succeeded", zap.String("source", conf.Source), zap.String("bot_reference", out.Bot.Reference))
	default:
		log.Debug("success already recorded", zap.String("source", conf.Source))
	}
	return out, nil
}

// MarkFailed moves a pending transaction to failed and keeps the payload for
// audit. A successful transaction is never regressed; a failed one only has
// its payload refreshed.
func (l *Ledger) MarkFailed(ctx context.Context, reference, source string, payload any) (*Outcome, error) {
	out := &Outcome{}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockByReference(tx, reference)
		if err != nil {
			return err
		}
		out.Transaction = t

		switch t.Status {
		case billing.StatusSuccess:
			return nil
		case billing.StatusFailed:
			return tx.Model(&billing.Transaction{}).
				Where("id = ?", t.ID).
				Update("raw_payload", t.MergePayload(map[string]any{source: payload})).Error
		}

		out.Changed = true
		return transition(tx, t, billing.StatusFailed, map[string]any{source: payload})
	})
	if err != nil {
		return nil, err
	}

	if out.Changed {
		l.logger.Info("transaction failed", zap.String("reference", reference), zap.String("source", source))
	} else if out.Transaction.Status == billing.StatusSuccess {
		l.logger.Warn("ignoring failure report for successful transaction", zap.String("reference", reference))
	}
	return out, nil
}

// EnsureBot provisions the bot of a successful transaction if it has none.
// It is the repair path for a success recorded without a link.
func (l *Ledger) EnsureBot(ctx context.Context, reference string) (*Outcome, error) {
	out := &Outcome{}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockByReference(tx, reference)
		if err != nil {
			return err
		}
		out.Transaction = t
		if t.Status != billing.StatusSuccess {
			return fmt.Errorf("%w: %s is %s", ErrNotSuccessful, reference, t.Status)
		}

		bot, created, err := provision(tx, t)
		if err != nil {
			return err
		}
		out.Bot, out.BotCreated = bot, created
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.BotCreated {
		l.logger.Info("bot linked by repair", zap.String("reference", reference), zap.String("bot_reference", out.Bot.Reference))
	}
	return out, nil
}

func lockByReference(tx *gorm.DB, reference string) (*billing.Transaction, error) {
	var t billing.Transaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", reference).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// transition only ever leaves pending, so a terminal status cannot regress.
func transition(tx *gorm.DB, t *billing.Transaction, to billing.Status, payload map[string]any) error {
	merged := t.MergePayload(payload)
	res := tx.Model(&billing.Transaction{}).
		Where("id = ? AND status = ?", t.ID, billing.StatusPending).
		Updates(map[string]any{"status": to, "raw_payload": merged})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrTerminalState, t.Reference)
	}
	t.Status = to
	t.RawPayload = merged
	return nil
}

// checkAmount returns a non-empty reason when the provider reported an amount
// or currency that differs from the ledger. Missing fields are not checked.
func checkAmount(t *billing.Transaction, conf Confirmation) string {
	if conf.Amount != 0 && conf.Amount != pricing.ToMinorUnits(t.Amount) {
		return "amount"
	}
	if conf.Currency != "" && !strings.EqualFold(conf.Currency, t.Currency) {
		return "currency"
	}
	return ""
}
