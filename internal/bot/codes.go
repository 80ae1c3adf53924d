package bot

// Коды обратного вызова инлайн-кнопок.
const (
	CodeBuy         = "buy"
	CodeProfile     = "profile"
	CodeInfo        = "info"
	CodeInstall     = "install"
	CodeBackMain    = "back_main"
	CodePeriod1     = "period_1"
	CodePeriod3     = "period_3"
	CodePeriod6     = "period_6"
	CodePeriodFree  = "period_free"
	CodeDevices1    = "devices_1"
	CodeDevices3    = "devices_3"
	CodeDevices5    = "devices_5"
	CodePay         = "pay"
	CodeBackBuy     = "back_buy"
	CodeBackDevices = "back_devices"
)

// CommandStart единственная обрабатываемая текстовая команда.
const CommandStart = "start"

var periodCodes = map[string]int{
	CodePeriod1: 1,
	CodePeriod3: 3,
	CodePeriod6: 6,
}

var deviceCodes = map[string]int{
	CodeDevices1: 1,
	CodeDevices3: 3,
	CodeDevices5: 5,
}

var validCodes = map[string]struct{}{
	CodeBuy:         {},
	CodeProfile:     {},
	CodeInfo:        {},
	CodeInstall:     {},
	CodeBackMain:    {},
	CodePeriod1:     {},
	CodePeriod3:     {},
	CodePeriod6:     {},
	CodePeriodFree:  {},
	CodeDevices1:    {},
	CodeDevices3:    {},
	CodeDevices5:    {},
	CodePay:         {},
	CodeBackBuy:     {},
	CodeBackDevices: {},
}

// IsValidCode сообщает, входит ли код в фиксированный набор кнопок.
func IsValidCode(code string) bool {
	_, ok := validCodes[code]
	return ok
}
