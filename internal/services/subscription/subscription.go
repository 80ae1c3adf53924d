// Package subscription содержит правила продления подписки и доступ к записям пользователей.
//
// Все изменения одной записи выполняются под блокировкой пользователя, поэтому
// параллельные покупки одного пользователя не теряют продления друг друга.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/byteport-bot/internal/lib/keylock"
	"github.com/magabrotheeeer/byteport-bot/internal/lib/period"
	"github.com/magabrotheeeer/byteport-bot/internal/lib/sl"
	"github.com/magabrotheeeer/byteport-bot/internal/models"
	"github.com/magabrotheeeer/byteport-bot/internal/storage"
)

// Repository определяет методы хранилища записей пользователей.
type Repository interface {
	// Get возвращает запись или storage.ErrUserNotFound.
	Get(ctx context.Context, userID string) (*models.UserRecord, error)
	// Upsert сохраняет запись целиком.
	Upsert(ctx context.Context, userID string, rec models.UserRecord) error
	// List возвращает все записи.
	List(ctx context.Context) (map[string]models.UserRecord, error)
	// EndingOn возвращает идентификаторы пользователей с датой окончания date (YYYY-MM-DD).
	EndingOn(ctx context.Context, date string) ([]string, error)
}

// Publisher публикует события продления подписки.
type Publisher interface {
	Publish(ctx context.Context, ev models.SubscriptionEvent) error
}

// Options параметры правил подписки.
type Options struct {
	TrialEnabled bool             // Глобальный флаг программы пробного периода
	Key          string           // Заглушка ключа доступа
	Address      string           // Заглушка адреса сервера
	Now          func() time.Time // Источник текущего времени, по умолчанию time.Now
}

// Service реализует хранилище состояния подписки и правила её продления.
type Service struct {
	repo  Repository
	pub   Publisher
	log   *slog.Logger
	locks *keylock.Locker
	opts  Options
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, pub Publisher, log *slog.Logger, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:  repo,
		pub:   pub,
		log:   log,
		locks: keylock.New(keylock.DefaultShards),
		opts:  opts,
	}
}

// GetOrCreate возвращает запись пользователя, создавая запись по умолчанию при первом обращении.
// Признак Expired пересчитывается при каждом вызове.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (models.UserRecord, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.load(ctx, userID)
}

// TrialEligible сообщает, можно ли выдать пользователю пробный период.
// ExtendTrial этот предикат не проверяет: проверка остаётся за вызывающим.
func (s *Service) TrialEligible(rec models.UserRecord) bool {
	return s.opts.TrialEnabled && !rec.FreePeriodUsed
}

// ExtendPaid продлевает подписку на months календарных месяцев после оплаты.
// Если подписка ещё активна, новый срок прибавляется к оставшемуся времени.
func (s *Service) ExtendPaid(ctx context.Context, userID string, months, devices, price int) (models.UserRecord, error) {
	const op = "services.subscription.ExtendPaid"
	log := s.log.With(slog.String("op", op), sl.User(userID))

	unlock := s.locks.Lock(userID)
	defer unlock()

	rec, err := s.load(ctx, userID)
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.opts.Now()
	newEnd := period.AddMonths(s.base(log, now, rec), months)

	rec.SubscriptionEnd = period.FormatDate(newEnd)
	rec.Tariff = models.PaidTariff{Months: months, Devices: devices, Price: price}
	rec.Key = s.opts.Key
	rec.Address = s.opts.Address
	rec.Expired = false

	if err := s.save(ctx, log, userID, rec); err != nil {
		return models.UserRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("subscription extended",
		slog.String("subscription_end", rec.SubscriptionEnd),
		slog.Int("months", months),
		slog.Int("devices", devices),
		slog.Int("price", price),
	)

	s.publish(ctx, log, models.SubscriptionEvent{
		UserID:          userID,
		Kind:            models.EventPaid,
		SubscriptionEnd: rec.SubscriptionEnd,
		Months:          months,
		Devices:         devices,
		Price:           price,
		OccurredAt:      now,
	})
	return rec, nil
}

// ExtendTrial выдаёт пробный период на days дней и навсегда отмечает его использование.
func (s *Service) ExtendTrial(ctx context.Context, userID string, days int) (models.UserRecord, error) {
	const op = "services.subscription.ExtendTrial"
	log := s.log.With(slog.String("op", op), sl.User(userID))

	unlock := s.locks.Lock(userID)
	defer unlock()

	rec, err := s.load(ctx, userID)
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	if rec.FreePeriodUsed {
		log.Warn("trial granted to user who already used it")
	}

	now := s.opts.Now()
	newEnd := period.AddDays(s.base(log, now, rec), days)

	rec.SubscriptionEnd = period.FormatDate(newEnd)
	rec.Tariff = models.TrialTariff{Days: days}
	rec.Key = s.opts.Key
	rec.Address = s.opts.Address
	rec.Expired = false
	rec.FreePeriodUsed = true

	if err := s.save(ctx, log, userID, rec); err != nil {
		return models.UserRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("trial activated", slog.String("subscription_end", rec.SubscriptionEnd), slog.Int("days", days))

	s.publish(ctx, log, models.SubscriptionEvent{
		UserID:          userID,
		Kind:            models.EventTrial,
		SubscriptionEnd: rec.SubscriptionEnd,
		Days:            days,
		OccurredAt:      now,
	})
	return rec, nil
}

// EndingOn возвращает идентификаторы пользователей, чья подписка заканчивается в день day.
func (s *Service) EndingOn(ctx context.Context, day time.Time) ([]string, error) {
	const op = "services.subscription.EndingOn"
	ids, err := s.repo.EndingOn(ctx, period.FormatDate(day))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// load читает или создаёт запись и пересчитывает Expired. Вызывается под блокировкой пользователя.
func (s *Service) load(ctx context.Context, userID string) (models.UserRecord, error) {
	const op = "services.subscription.load"
	log := s.log.With(slog.String("op", op), sl.User(userID))

	stored, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		rec := models.NewUserRecord()
		if err := s.save(ctx, log, userID, rec); err != nil {
			return models.UserRecord{}, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("user record created")
		return rec, nil
	case err != nil:
		return models.UserRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	rec := *stored
	expired, err := period.Expired(s.opts.Now(), rec.SubscriptionEnd)
	if err != nil {
		log.Error("failed to parse subscription end", slog.String("subscription_end", rec.SubscriptionEnd), sl.Err(err))
	}
	if expired != rec.Expired {
		rec.Expired = expired
		if err := s.save(ctx, log, userID, rec); err != nil {
			return models.UserRecord{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return rec, nil
}

// base возвращает точку отсчёта продления; повреждённая дата считается отсутствием подписки.
func (s *Service) base(log *slog.Logger, now time.Time, rec models.UserRecord) time.Time {
	base, err := period.Base(now, rec.SubscriptionEnd)
	if err != nil {
		log.Warn("corrupted subscription end, extending from now",
			slog.String("subscription_end", rec.SubscriptionEnd), sl.Err(err))
	}
	return base
}

// save пишет запись в хранилище. Ошибка сохранения файла логируется и не прерывает операцию.
func (s *Service) save(ctx context.Context, log *slog.Logger, userID string, rec models.UserRecord) error {
	err := s.repo.Upsert(ctx, userID, rec)
	if errors.Is(err, storage.ErrPersist) {
		log.Error("failed to persist users, keeping in-memory state", sl.Err(err))
		return nil
	}
	return err
}

func (s *Service) publish(ctx context.Context, log *slog.Logger, ev models.SubscriptionEvent) {
	if s.pub == nil {
		return
	}
	ev.ID = uuid.NewString()
	if err := s.pub.Publish(ctx, ev); err != nil {
		log.Warn("failed to publish subscription event", slog.String("kind", ev.Kind), sl.Err(err))
	}
}
