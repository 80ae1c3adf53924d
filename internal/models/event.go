package models

import "time"

// Command текстовая команда пользователя, например /start.
type Command struct {
	Name        string
	UserID      string
	ChatID      int64
	DisplayName string
}

// ButtonPress нажатие инлайн-кнопки.
type ButtonPress struct {
	ID          string // Идентификатор callback-запроса для подтверждения
	Code        string
	UserID      string
	ChatID      int64
	MessageID   int
	DisplayName string
}

// Button кнопка клавиатуры: либо с кодом обратного вызова, либо со ссылкой.
type Button struct {
	Text string
	Code string
	URL  string
}

// Render ответ пользователю. Если EditMessageID не ноль, редактируется существующее сообщение.
type Render struct {
	ChatID        int64
	Text          string
	Buttons       [][]Button
	EditMessageID int
	Markdown      bool
}

// SubscriptionEvent событие продления подписки, публикуемое во внешнюю очередь.
type SubscriptionEvent struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Kind            string    `json:"kind"`
	SubscriptionEnd string    `json:"subscription_end"`
	Months          int       `json:"months,omitempty"`
	Days            int       `json:"days,omitempty"`
	Devices         int       `json:"devices,omitempty"`
	Price           int       `json:"price"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Виды событий подписки.
const (
	EventPaid  = "paid"
	EventTrial = "trial"
)
