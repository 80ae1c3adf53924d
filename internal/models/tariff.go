package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tariff описание оплаченного периода. Реализуется только PaidTariff и TrialTariff.
type Tariff interface {
	// Cost стоимость периода в рублях.
	Cost() int
	isTariff()
}

// PaidTariff оплаченный тариф: срок в месяцах, количество устройств и итоговая цена.
type PaidTariff struct {
	Months  int `json:"months"`
	Devices int `json:"devices"`
	Price   int `json:"price"`
}

// TrialTariff бесплатный пробный период в днях.
type TrialTariff struct {
	Days int `json:"days"`
}

func (PaidTariff) isTariff()  {}
func (TrialTariff) isTariff() {}

// Cost возвращает цену оплаченного тарифа.
func (p PaidTariff) Cost() int { return p.Price }

// Cost пробный период всегда бесплатный.
func (TrialTariff) Cost() int { return 0 }

type tariffJSON struct {
	Trial   bool `json:"trial,omitempty"`
	Days    int  `json:"days,omitempty"`
	Months  int  `json:"months,omitempty"`
	Devices int  `json:"devices,omitempty"`
	Price   int  `json:"price"`
}

var emptyTariff = []byte(`""`)

// EncodeTariff сериализует тариф. Отсутствующий тариф записывается пустой строкой.
func EncodeTariff(t Tariff) (json.RawMessage, error) {
	var v tariffJSON
	switch tt := t.(type) {
	case nil:
		return emptyTariff, nil
	case PaidTariff:
		v = tariffJSON{Months: tt.Months, Devices: tt.Devices, Price: tt.Price}
	case TrialTariff:
		v = tariffJSON{Trial: true, Days: tt.Days, Price: 0}
	default:
		return nil, fmt.Errorf("models.EncodeTariff: unknown tariff %T", t)
	}
	return json.Marshal(v)
}

// DecodeTariff разбирает тариф: пустая строка, null или отсутствие значения дают nil,
// объект с "trial": true даёт TrialTariff, любой другой объект даёт PaidTariff.
func DecodeTariff(data []byte) (Tariff, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, emptyTariff) {
		return nil, nil
	}
	var v tariffJSON
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, fmt.Errorf("models.DecodeTariff: %w", err)
	}
	if v.Trial {
		return TrialTariff{Days: v.Days}, nil
	}
	return PaidTariff{Months: v.Months, Devices: v.Devices, Price: v.Price}, nil
}
