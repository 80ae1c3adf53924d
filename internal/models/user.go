// Package models содержит доменные структуры бота: запись пользователя с состоянием подписки,
// тариф, черновик заказа, а также события мессенджера и ответы на них.
package models

import (
	"encoding/json"
	"fmt"
)

// UserRecord состояние подписки пользователя.
// Поле Expired производное: оно пересчитывается из SubscriptionEnd при каждом чтении
// и не считается источником истины, даже если было сохранено.
type UserRecord struct {
	SubscriptionEnd string // Дата окончания в формате YYYY-MM-DD, пустая строка, если подписки не было
	Tariff          Tariff // nil, если тарифа нет
	Key             string // Ключ доступа
	Address         string // Адрес сервера
	Expired         bool   // Подписка отсутствует или истекла
	FreePeriodUsed  bool   // Пробный период уже использован, обратно в false не сбрасывается
}

// NewUserRecord возвращает запись нового пользователя.
func NewUserRecord() UserRecord {
	return UserRecord{Expired: true}
}

type userRecordJSON struct {
	SubscriptionEnd string          `json:"subscription_end"`
	Tariff          json.RawMessage `json:"tariff"`
	Key             string          `json:"key"`
	Address         string          `json:"address"`
	Expired         bool            `json:"expired"`
	FreePeriodUsed  bool            `json:"free_period_used"`
}

// MarshalJSON сериализует запись в формат users.json: тариф вложенным объектом или пустой строкой.
func (u UserRecord) MarshalJSON() ([]byte, error) {
	tariff, err := EncodeTariff(u.Tariff)
	if err != nil {
		return nil, err
	}
	return json.Marshal(userRecordJSON{
		SubscriptionEnd: u.SubscriptionEnd,
		Tariff:          tariff,
		Key:             u.Key,
		Address:         u.Address,
		Expired:         u.Expired,
		FreePeriodUsed:  u.FreePeriodUsed,
	})
}

// UnmarshalJSON разбирает запись из формата users.json.
func (u *UserRecord) UnmarshalJSON(data []byte) error {
	var raw userRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("models.UserRecord: %w", err)
	}
	tariff, err := DecodeTariff(raw.Tariff)
	if err != nil {
		return err
	}
	*u = UserRecord{
		SubscriptionEnd: raw.SubscriptionEnd,
		Tariff:          tariff,
		Key:             raw.Key,
		Address:         raw.Address,
		Expired:         raw.Expired,
		FreePeriodUsed:  raw.FreePeriodUsed,
	}
	return nil
}
