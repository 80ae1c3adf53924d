// Package telegram связывает контроллер бота с Telegram Bot API: получает обновления
// длинным опросом, переводит их в события бота и отправляет ответы.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/magabrotheeeer/byteport-bot/internal/lib/sl"
	"github.com/magabrotheeeer/byteport-bot/internal/models"
)

// API подмножество методов tgbotapi.BotAPI, которыми пользуется клиент.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler получает события мессенджера.
type Handler interface {
	HandleCommand(ctx context.Context, cmd models.Command)
	HandleButton(ctx context.Context, press models.ButtonPress)
}

// Client шлюз в Telegram.
type Client struct {
	api         API
	log         *slog.Logger
	pollTimeout int
}

// New подключается к Bot API по токену.
func New(token string, pollTimeout int, log *slog.Logger) (*Client, error) {
	const op = "telegram.New"
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("authorized on telegram", slog.String("account", api.Self.UserName))
	return NewWithAPI(api, pollTimeout, log), nil
}

// NewWithAPI создает клиент поверх готовой реализации API.
func NewWithAPI(api API, pollTimeout int, log *slog.Logger) *Client {
	return &Client{
		api:         api,
		log:         log,
		pollTimeout: pollTimeout,
	}
}

// Run получает обновления до отмены ctx. Каждое обновление обрабатывается в своей горутине;
// перед возвратом Run дожидается уже запущенных обработчиков.
func (c *Client) Run(ctx context.Context, h Handler) {
	const op = "telegram.Run"
	log := c.log.With(slog.String("op", op))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout
	updates := c.api.GetUpdatesChan(u)

	// Начатые обработчики доводятся до конца и после остановки опроса.
	handlerCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()

	log.Info("bot is polling for updates")
	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			log.Info("bot stopped polling")
			return
		case update, ok := <-updates:
			if !ok {
				log.Warn("updates channel closed")
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.dispatch(handlerCtx, h, update)
			}()
		}
	}
}

func (c *Client) dispatch(ctx context.Context, h Handler, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic while handling update", slog.Int("update_id", update.UpdateID), slog.Any("panic", r))
		}
	}()

	switch ev := ToEvent(update).(type) {
	case models.Command:
		h.HandleCommand(ctx, ev)
	case models.ButtonPress:
		h.HandleButton(ctx, ev)
	default:
		c.log.Debug("update skipped", slog.Int("update_id", update.UpdateID))
	}
}

// ToEvent переводит обновление в models.Command или models.ButtonPress.
// Для остальных обновлений возвращает nil.
func ToEvent(update tgbotapi.Update) any {
	if q := update.CallbackQuery; q != nil && q.From != nil {
		press := models.ButtonPress{
			ID:          q.ID,
			Code:        q.Data,
			UserID:      strconv.FormatInt(q.From.ID, 10),
			DisplayName: q.From.FirstName,
		}
		if q.Message != nil {
			press.MessageID = q.Message.MessageID
			if q.Message.Chat != nil {
				press.ChatID = q.Message.Chat.ID
			}
		}
		if press.ChatID == 0 {
			press.ChatID = q.From.ID
		}
		return press
	}

	if m := update.Message; m != nil && m.From != nil && m.Chat != nil && m.IsCommand() {
		return models.Command{
			Name:        m.Command(),
			UserID:      strconv.FormatInt(m.From.ID, 10),
			ChatID:      m.Chat.ID,
			DisplayName: m.From.FirstName,
		}
	}
	return nil
}

// Keyboard строит инлайн-клавиатуру из рядов кнопок.
func Keyboard(rows [][]models.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, r := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Code))
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// BuildChattable переводит ответ бота в запрос Bot API: новое сообщение
// или правку существующего, если задан EditMessageID.
func BuildChattable(r models.Render) tgbotapi.Chattable {
	var parseMode string
	if r.Markdown {
		parseMode = tgbotapi.ModeMarkdown
	}

	if r.EditMessageID != 0 {
		var edit tgbotapi.EditMessageTextConfig
		if len(r.Buttons) > 0 {
			edit = tgbotapi.NewEditMessageTextAndMarkup(r.ChatID, r.EditMessageID, r.Text, Keyboard(r.Buttons))
		} else {
			edit = tgbotapi.NewEditMessageText(r.ChatID, r.EditMessageID, r.Text)
		}
		edit.ParseMode = parseMode
		return edit
	}

	msg := tgbotapi.NewMessage(r.ChatID, r.Text)
	msg.ParseMode = parseMode
	if len(r.Buttons) > 0 {
		msg.ReplyMarkup = Keyboard(r.Buttons)
	}
	return msg
}

// Render отправляет или редактирует сообщение.
func (c *Client) Render(ctx context.Context, r models.Render) error {
	const op = "telegram.Render"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := c.api.Send(BuildChattable(r)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Acknowledge отвечает на нажатие кнопки. Пустой text просто снимает индикатор загрузки.
func (c *Client) Acknowledge(_ context.Context, callbackID, text string) error {
	const op = "telegram.Acknowledge"
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		c.log.Debug("callback answer failed", slog.String("callback_id", callbackID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
