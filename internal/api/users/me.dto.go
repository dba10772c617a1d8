package users

import "time"

type MeResponse struct {
	User     UserDTO     `json:"user"`
	Bots     []BotDTO    `json:"bots"`
	Payments PaymentsDTO `json:"payments"`
}

type UserDTO struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type BotDTO struct {
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	BotURL    *string `json:"bot_url,omitempty"`
}

type PaymentsDTO struct {
	Pending int64 `json:"pending"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
}
