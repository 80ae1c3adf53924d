package models

// PendingOrder черновик покупки пользователя между выбором периода и оплатой.
// Не сохраняется в хранилище пользователей.
type PendingOrder struct {
	PeriodMonths    int `json:"period"`
	DiscountPercent int `json:"discount"`
	Devices         int `json:"devices,omitempty"`
	Price           int `json:"price,omitempty"`
}

// Ready сообщает, выбраны ли устройства и посчитана ли цена.
func (o PendingOrder) Ready() bool {
	return o.Devices > 0 && o.Price > 0
}
