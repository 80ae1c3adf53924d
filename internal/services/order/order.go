// Package order реализует черновики заказов: выбор срока, выбор устройств с расчётом цены
// и подтверждение оплаты с продлением подписки.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/byteport-bot/internal/lib/keylock"
	"github.com/magabrotheeeer/byteport-bot/internal/lib/sl"
	"github.com/magabrotheeeer/byteport-bot/internal/models"
)

var (
	// ErrNoActiveOrder у пользователя нет готового к оплате черновика.
	ErrNoActiveOrder = errors.New("no active order")
	// ErrInvalidPeriod недопустимый срок подписки.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidDevices недопустимое количество устройств.
	ErrInvalidDevices = errors.New("invalid devices count")
)

// Store хранилище черновиков заказов.
type Store interface {
	// Get возвращает черновик и признак его наличия.
	Get(ctx context.Context, userID string) (models.PendingOrder, bool, error)
	// Put сохраняет черновик, перезаписывая предыдущий.
	Put(ctx context.Context, userID string, o models.PendingOrder) error
	// Delete удаляет черновик.
	Delete(ctx context.Context, userID string) error
}

// Extender продлевает оплаченную подписку.
type Extender interface {
	ExtendPaid(ctx context.Context, userID string, months, devices, price int) (models.UserRecord, error)
}

// Service управляет черновиками заказов.
type Service struct {
	store     Store
	extender  Extender
	log       *slog.Logger
	locks     *keylock.Locker
	basePrice int
}

// NewService создает новый экземпляр Service. basePrice: цена одного месяца на одно устройство.
func NewService(store Store, extender Extender, log *slog.Logger, basePrice int) *Service {
	return &Service{
		store:     store,
		extender:  extender,
		log:       log,
		locks:     keylock.New(keylock.DefaultShards),
		basePrice: basePrice,
	}
}

// SetPeriod начинает новый черновик с выбранным сроком, перезаписывая предыдущий.
func (s *Service) SetPeriod(ctx context.Context, userID string, months int) (models.PendingOrder, error) {
	const op = "services.order.SetPeriod"

	discount, err := Discount(months)
	if err != nil {
		return models.PendingOrder{}, fmt.Errorf("%s: %w", op, err)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	o := models.PendingOrder{PeriodMonths: months, DiscountPercent: discount}
	if err := s.store.Put(ctx, userID, o); err != nil {
		return models.PendingOrder{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// SetDevices фиксирует количество устройств и считает цену.
// Если срок ещё не выбран, используется один месяц без скидки.
func (s *Service) SetDevices(ctx context.Context, userID string, devices int) (models.PendingOrder, error) {
	const op = "services.order.SetDevices"
	log := s.log.With(slog.String("op", op), sl.User(userID))

	if _, ok := deviceOptions[devices]; !ok {
		return models.PendingOrder{}, fmt.Errorf("%s: %w: %d", op, ErrInvalidDevices, devices)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	o, found, err := s.store.Get(ctx, userID)
	if err != nil {
		return models.PendingOrder{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found || o.PeriodMonths == 0 {
		log.Warn("devices selected without period, using defaults")
		o = models.PendingOrder{PeriodMonths: 1, DiscountPercent: 0}
	}

	o.Devices = devices
	o.Price = Price(s.basePrice, o.PeriodMonths, devices, o.DiscountPercent)
	if err := s.store.Put(ctx, userID, o); err != nil {
		return models.PendingOrder{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// ConfirmAndClear продлевает подписку по черновику и удаляет его.
// Без готового черновика возвращает ErrNoActiveOrder, подписка не меняется.
// Блокировка пользователя удерживается до конца продления, поэтому повторная оплата
// того же черновика невозможна.
func (s *Service) ConfirmAndClear(ctx context.Context, userID string) (models.UserRecord, models.PendingOrder, error) {
	const op = "services.order.ConfirmAndClear"
	log := s.log.With(slog.String("op", op), sl.User(userID))

	unlock := s.locks.Lock(userID)
	defer unlock()

	o, found, err := s.store.Get(ctx, userID)
	if err != nil {
		return models.UserRecord{}, models.PendingOrder{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found || !o.Ready() {
		return models.UserRecord{}, models.PendingOrder{}, fmt.Errorf("%s: %w", op, ErrNoActiveOrder)
	}

	rec, err := s.extender.ExtendPaid(ctx, userID, o.PeriodMonths, o.Devices, o.Price)
	if err != nil {
		return models.UserRecord{}, models.PendingOrder{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.Delete(ctx, userID); err != nil {
		// Подписка уже продлена: черновик нельзя оставлять готовым к оплате.
		log.Error("failed to delete pending order", sl.Err(err))
		if putErr := s.store.Put(ctx, userID, models.PendingOrder{}); putErr != nil {
			log.Error("failed to reset pending order", sl.Err(putErr))
		}
	}
	log.Info("payment confirmed", slog.Any("order", o))
	return rec, o, nil
}
