package order

import "fmt"

// discounts скидка в процентах по сроку подписки.
var discounts = map[int]int{
	1: 0,
	3: 5,
	6: 10,
}

// deviceOptions допустимое количество устройств.
var deviceOptions = map[int]struct{}{
	1: {},
	3: {},
	5: {},
}

// Discount возвращает скидку в процентах для срока months.
func Discount(months int) (int, error) {
	d, ok := discounts[months]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPeriod, months)
	}
	return d, nil
}

// Price считает цену заказа с отбрасыванием дробной части:
// floor(base * months * devices * (1 - discount/100)).
func Price(base, months, devices, discountPercent int) int {
	return base * months * devices * (100 - discountPercent) / 100
}
