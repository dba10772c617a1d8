package payments

import (
	"errors"
	"fmt"

	"pigent-app/internal/domain/billing"
	"pigent-app/internal/domain/bots"

	"gorm.io/gorm"
)

// provision returns the bot linked to t, creating and linking one if needed.
// It must run inside the transaction that locked t. The link is written with
// a compare-and-swap on the nullable unique bot_instance_id, so a lost race
// rolls the whole transaction back instead of creating a second bot.
func provision(tx *gorm.DB, t *billing.Transaction) (*bots.BotInstance, bool, error) {
	if t.BotInstanceID != nil {
		var bot bots.BotInstance
		if err := tx.First(&bot, *t.BotInstanceID).Error; err != nil {
			return nil, false, fmt.Errorf("load linked bot: %w", err)
		}
		return &bot, false, nil
	}

	// Rows written before the foreign key existed only carry the payload link.
	if ref := t.BotReference(); ref != "" {
		var bot bots.BotInstance
		err := tx.Where("reference = ?", ref).First(&bot).Error
		switch {
		case err == nil:
			return &bot, false, link(tx, t, &bot)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, false, err
		}
	}

	bot := &bots.BotInstance{OwnerID: t.UserID, Status: bots.StatusPending}
	if err := tx.Create(bot).Error; err != nil {
		return nil, false, fmt.Errorf("create bot: %w", err)
	}
	if err := link(tx, t, bot); err != nil {
		return nil, false, err
	}
	return bot, true, nil
}

func link(tx *gorm.DB, t *billing.Transaction, bot *bots.BotInstance) error {
	payload := t.MergePayload(map[string]any{billing.PayloadBotReference: bot.Reference})
	res := tx.Model(&billing.Transaction{}).
		Where("id = ? AND bot_instance_id IS NULL", t.ID).
		Updates(map[string]any{"bot_instance_id": bot.ID, "raw_payload": payload})
	if res.Error != nil {
		return fmt.Errorf("link bot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyLinked, t.Reference)
	}
	t.BotInstanceID = &bot.ID
	t.BotInstance = bot
	t.RawPayload = payload
	return nil
}
