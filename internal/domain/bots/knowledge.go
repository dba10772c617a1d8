package bots

import "time"

// Question is an entry in a bot's knowledge base.
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BotInstanceID uint      `gorm:"not null;index:idx_questions_bot_created,priority:1" json:"-"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	Answer        *Answer   `json:"-"`
	CreatedAt     time.Time `gorm:"index:idx_questions_bot_created,priority:2" json:"-"`
}

type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	QuestionID uint      `gorm:"not null;uniqueIndex" json:"question_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `json:"-"`
}

type Review struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	BotInstanceID uint         `gorm:"not null;index:idx_reviews_bot_created,priority:1" json:"-"`
	BotInstance   *BotInstance `json:"-"`
	UserID        uint         `gorm:"not null;index" json:"student"`
	Rating        uint8        `gorm:"not null" json:"rating"`
	Comment       string       `gorm:"type:text" json:"comment"`
	CreatedAt     time.Time    `gorm:"index:idx_reviews_bot_created,priority:2" json:"created_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)
