// Package bot реализует диалоговый контроллер: переводит команды и нажатия кнопок
// в вызовы сервисов подписки и заказов и отрисовывает ответные экраны меню.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/byteport-bot/internal/lib/keylock"
	"github.com/magabrotheeeer/byteport-bot/internal/lib/sl"
	"github.com/magabrotheeeer/byteport-bot/internal/metrics"
	"github.com/magabrotheeeer/byteport-bot/internal/models"
	"github.com/magabrotheeeer/byteport-bot/internal/services/order"
)

// Gateway отправляет ответы в мессенджер.
type Gateway interface {
	Render(ctx context.Context, r models.Render) error
	Acknowledge(ctx context.Context, callbackID, text string) error
}

// Subscriptions состояние подписки пользователя.
type Subscriptions interface {
	GetOrCreate(ctx context.Context, userID string) (models.UserRecord, error)
	ExtendTrial(ctx context.Context, userID string, days int) (models.UserRecord, error)
	TrialEligible(rec models.UserRecord) bool
}

// Orders черновики заказов.
type Orders interface {
	SetPeriod(ctx context.Context, userID string, months int) (models.PendingOrder, error)
	SetDevices(ctx context.Context, userID string, devices int) (models.PendingOrder, error)
	ConfirmAndClear(ctx context.Context, userID string) (models.UserRecord, models.PendingOrder, error)
}

// Options параметры контроллера.
type Options struct {
	TrialDays        int
	BasePrice        int
	ChannelURL       string
	SupportURL       string
	RPS              float64 // Допустимая частота событий от одного пользователя
	Burst            int
	LimiterCacheSize int // Сколько последних пользователей помнит ограничитель
}

// Controller обрабатывает события мессенджера.
type Controller struct {
	gw       Gateway
	subs     Subscriptions
	orders   Orders
	metrics  *metrics.Metrics
	log      *slog.Logger
	opts     Options
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	trials   *keylock.Locker
}

// New создает контроллер.
func New(gw Gateway, subs Subscriptions, orders Orders, m *metrics.Metrics, log *slog.Logger, opts Options) (*Controller, error) {
	const op = "bot.New"
	limiters, err := lru.New[string, *rate.Limiter](opts.LimiterCacheSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Controller{
		gw:       gw,
		subs:     subs,
		orders:   orders,
		metrics:  m,
		log:      log,
		opts:     opts,
		limiters: limiters,
		trials:   keylock.New(keylock.DefaultShards),
	}, nil
}

// HandleCommand обрабатывает текстовую команду. Поддерживается только /start.
func (c *Controller) HandleCommand(ctx context.Context, cmd models.Command) {
	const op = "bot.HandleCommand"
	log := c.log.With(slog.String("op", op), sl.User(cmd.UserID), slog.String("command", cmd.Name))

	if cmd.Name != CommandStart {
		log.Debug("unsupported command ignored")
		return
	}
	if !c.allow(cmd.UserID) {
		c.metrics.RateLimited.Inc()
		log.Warn("command rate limited")
		return
	}

	s, err := c.mainMenu(ctx, cmd.UserID, cmd.DisplayName)
	if err != nil {
		log.Error("failed to build main menu", sl.Err(err))
		s = errorScreen()
	}
	c.render(ctx, log, cmd.ChatID, 0, s)
}

// HandleButton обрабатывает нажатие инлайн-кнопки. Каждое нажатие подтверждается ровно один раз.
func (c *Controller) HandleButton(ctx context.Context, press models.ButtonPress) {
	const op = "bot.HandleButton"
	log := c.log.With(slog.String("op", op), sl.User(press.UserID), slog.String("code", press.Code))

	var ackText string
	defer func() {
		if err := c.gw.Acknowledge(ctx, press.ID, ackText); err != nil {
			log.Error("failed to acknowledge button press", sl.Err(err))
		}
	}()

	if !IsValidCode(press.Code) {
		c.metrics.InvalidRequests.Inc()
		log.Warn("user sent invalid request")
		ackText = ackInvalidRequest
		return
	}
	c.metrics.ButtonPresses.WithLabelValues(press.Code).Inc()

	if !c.allow(press.UserID) {
		c.metrics.RateLimited.Inc()
		log.Warn("button press rate limited")
		ackText = ackTooManyRequest
		return
	}

	s, err := c.dispatch(ctx, log, press)
	if err != nil {
		log.Error("failed to handle button press", sl.Err(err))
		s = errorScreen()
	}
	c.render(ctx, log, press.ChatID, press.MessageID, s)
}

func (c *Controller) dispatch(ctx context.Context, log *slog.Logger, press models.ButtonPress) (screen, error) {
	userID := press.UserID

	if months, ok := periodCodes[press.Code]; ok {
		if _, err := c.orders.SetPeriod(ctx, userID, months); err != nil {
			return screen{}, err
		}
		return devicesScreen(), nil
	}

	if devices, ok := deviceCodes[press.Code]; ok {
		o, err := c.orders.SetDevices(ctx, userID, devices)
		if err != nil {
			return screen{}, err
		}
		return summaryScreen(o), nil
	}

	switch press.Code {
	case CodeBackMain:
		return c.mainMenu(ctx, userID, press.DisplayName)
	case CodeInfo:
		return c.infoScreen(), nil
	case CodeBuy, CodeBackBuy:
		rec, err := c.subs.GetOrCreate(ctx, userID)
		if err != nil {
			return screen{}, err
		}
		return c.buyScreen(c.subs.TrialEligible(rec)), nil
	case CodeBackDevices:
		return devicesScreen(), nil
	case CodePeriodFree:
		return c.activateTrial(ctx, log, userID)
	case CodePay:
		return c.pay(ctx, log, userID)
	case CodeProfile:
		rec, err := c.subs.GetOrCreate(ctx, userID)
		if err != nil {
			return screen{}, err
		}
		return profileScreen(userID, rec), nil
	case CodeInstall:
		return c.installScreen(), nil
	}
	return screen{}, fmt.Errorf("unhandled code %q", press.Code)
}

func (c *Controller) mainMenu(ctx context.Context, userID, name string) (screen, error) {
	rec, err := c.subs.GetOrCreate(ctx, userID)
	if err != nil {
		return screen{}, err
	}
	return c.mainMenuScreen(name, c.subs.TrialEligible(rec)), nil
}

// activateTrial проверяет право на пробный период и выдаёт его. Проверка и выдача
// выполняются под одной блокировкой пользователя.
func (c *Controller) activateTrial(ctx context.Context, log *slog.Logger, userID string) (screen, error) {
	unlock := c.trials.Lock(userID)
	defer unlock()

	rec, err := c.subs.GetOrCreate(ctx, userID)
	if err != nil {
		return screen{}, err
	}
	if !c.subs.TrialEligible(rec) {
		log.Warn("trial requested by ineligible user")
		return trialUnavailableScreen(), nil
	}

	rec, err = c.subs.ExtendTrial(ctx, userID, c.opts.TrialDays)
	if err != nil {
		return screen{}, err
	}
	c.metrics.Trials.Inc()
	log.Info("user activated trial period")
	return trialScreen(rec), nil
}

func (c *Controller) pay(ctx context.Context, log *slog.Logger, userID string) (screen, error) {
	rec, o, err := c.orders.ConfirmAndClear(ctx, userID)
	if errors.Is(err, order.ErrNoActiveOrder) {
		log.Info("pay pressed without active order")
		return sessionExpiredScreen(), nil
	}
	if err != nil {
		return screen{}, err
	}
	c.metrics.Purchase(o.PeriodMonths, o.Devices, o.Price)
	log.Info("user completed payment", slog.Any("order", o))
	return paidScreen(rec), nil
}

func (c *Controller) render(ctx context.Context, log *slog.Logger, chatID int64, editID int, s screen) {
	err := c.gw.Render(ctx, models.Render{
		ChatID:        chatID,
		Text:          s.text,
		Buttons:       s.buttons,
		EditMessageID: editID,
		Markdown:      s.markdown,
	})
	if err != nil {
		log.Error("failed to render response", sl.Err(err))
	}
}

// allow проверяет ограничитель частоты пользователя.
func (c *Controller) allow(userID string) bool {
	c.mu.Lock()
	limiter, ok := c.limiters.Get(userID)
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(c.opts.RPS), c.opts.Burst)
		c.limiters.Add(userID, limiter)
	}
	c.mu.Unlock()
	return limiter.Allow()
}
