// Package scheduler периодически напоминает пользователям об окончании подписки.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/byteport-bot/internal/lib/period"
	"github.com/magabrotheeeer/byteport-bot/internal/lib/sl"
	"github.com/magabrotheeeer/byteport-bot/internal/models"
)

// SubscriptionFinder ищет пользователей, чья подписка заканчивается в указанный день.
type SubscriptionFinder interface {
	EndingOn(ctx context.Context, day time.Time) ([]string, error)
}

// Notifier отправляет сообщение пользователю.
type Notifier interface {
	Render(ctx context.Context, r models.Render) error
}

// SchedulerService рассылает напоминания.
type SchedulerService struct {
	finder   SubscriptionFinder
	notifier Notifier
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(finder SubscriptionFinder, notifier Notifier, log *slog.Logger, interval time.Duration) *SchedulerService {
	return &SchedulerService{
		finder:   finder,
		notifier: notifier,
		log:      log,
		interval: interval,
		now:      time.Now,
	}
}

// Run выполняет проверку сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	s.runRemindExpiringTomorrow(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runRemindExpiringTomorrow(ctx)
		}
	}
}

func (s *SchedulerService) runRemindExpiringTomorrow(ctx context.Context) int {
	const op = "services.scheduler.runRemindExpiringTomorrow"
	log := s.log.With(slog.String("op", op))

	log.Info("starting search for subscriptions expiring tomorrow")
	tomorrow := period.AddDays(s.now(), 1)
	userIDs, err := s.finder.EndingOn(ctx, tomorrow)
	if err != nil {
		log.Error("failed to find expiring subscriptions", sl.Err(err))
		return 0
	}
	if len(userIDs) == 0 {
		log.Info("no expiring subscriptions found")
		return 0
	}
	log.Info("found expiring subscriptions", slog.Int("count", len(userIDs)))

	sent := 0
	for _, userID := range userIDs {
		chatID, err := strconv.ParseInt(userID, 10, 64)
		if err != nil {
			log.Warn("skipping user with non-numeric id", sl.User(userID))
			continue
		}
		err = s.notifier.Render(ctx, models.Render{
			ChatID: chatID,
			Text:   reminderText(period.FormatDate(tomorrow)),
			Buttons: [][]models.Button{
				{{Text: "💰 Продлить", Code: "buy"}},
			},
		})
		if err != nil {
			log.Error("failed to send reminder", sl.User(userID), sl.Err(err))
			continue
		}
		sent++
	}
	return sent
}

func reminderText(date string) string {
	return fmt.Sprintf("⏰ Ваша подписка BytePortVPN заканчивается %s.\n\n"+
		"Продлите её заранее, чтобы не потерять доступ.", date)
}
