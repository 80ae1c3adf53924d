package bot

import (
	"fmt"
	"strings"

	"github.com/magabrotheeeer/byteport-bot/internal/models"
)

// screen текст и клавиатура одного экрана меню.
type screen struct {
	text     string
	buttons  [][]models.Button
	markdown bool
}

const (
	ackInvalidRequest = "Некорректный запрос"
	ackTooManyRequest = "Слишком много запросов, подождите немного"
)

func cb(text, code string) models.Button {
	return models.Button{Text: text, Code: code}
}

func link(text, url string) models.Button {
	return models.Button{Text: text, URL: url}
}

func row(buttons ...models.Button) []models.Button {
	return buttons
}

func (c *Controller) mainMenuScreen(name string, trialAvailable bool) screen {
	var trial string
	if trialAvailable {
		trial = fmt.Sprintf("\n🎁 Как новому пользователю, тебе доступен бесплатный пробный период на %d дней.\n"+
			"Для получения выбери его при покупке.\n", c.opts.TrialDays)
	}
	text := fmt.Sprintf("👋 Привет, %s! 🚀 Добро пожаловать в BytePortVPN!\n\n"+
		"Подключайся и забудь про проблемы с доступом! 🔗\n%s\n"+
		"🎹 Выберите действие:", name, trial)

	return screen{
		text: text,
		buttons: [][]models.Button{
			row(cb("💰 Купить", CodeBuy), cb("👤 Профиль", CodeProfile), cb("🔧 Установить", CodeInstall)),
			row(cb("📑 Подробнее о нашем VPN", CodeInfo)),
			row(link("📜 ТГК (Отзывы, Новости)", c.opts.ChannelURL), link("🆘 Поддержка", c.opts.SupportURL)),
		},
	}
}

func (c *Controller) infoScreen() screen {
	text := "📑 Информация о BytePortVPN\n\n🚀 *Быстрый. Современный. Стабильный.*\n" +
		"BytePortVPN — Это твой пропуск в свободный интернет. Никаких лагов, никаких запретов.\n\n" +
		"🔒 *Безопасность* — Твои данные под замком, мы даже не ведём логов.\n" +
		"⚡ *Скорость* — Стримы, игры, видео, минимальные потери скорости.\n" +
		"🌍 *Доступ* — Контент из любой точки мира, как должно было быть всегда!\n" +
		fmt.Sprintf("💰 *Цена* — Минимальные цены доступные каждому. Всего *%dруб./мес.*\n", c.opts.BasePrice) +
		"🌐 *Поддержка* — Мы на связи.\n\n" +
		"Просто подключайся и забудь о границах. *Свободный интернет доступен каждому!* 🚀🔗"

	return screen{
		text:     text,
		buttons:  [][]models.Button{row(cb("🔙 Назад", CodeBackMain), cb("💰 Купить", CodeBuy))},
		markdown: true,
	}
}

func (c *Controller) buyScreen(trialAvailable bool) screen {
	text := "💳 Выберите период подписки:\n\n" +
		"(✳ Чем больше месяцев вы выбираете, тем дешевле подписка в сумме)\n" +
		fmt.Sprintf("Стоимость одного месяца - %dруб.", c.opts.BasePrice)

	buttons := [][]models.Button{
		row(cb("1 месяц", CodePeriod1), cb("3 месяца (-5%)", CodePeriod3)),
		row(cb("6 месяцев (-10%)", CodePeriod6)),
	}
	if trialAvailable {
		buttons = append(buttons, row(cb(fmt.Sprintf("🆓 Пробный период (%d дней) [БЕСПЛАТНО]", c.opts.TrialDays), CodePeriodFree)))
	}
	buttons = append(buttons, row(cb("🔙 Назад", CodeBackMain)))
	return screen{text: text, buttons: buttons}
}

func devicesScreen() screen {
	return screen{
		text: "📱 Выберите количество устройств для подключения:",
		buttons: [][]models.Button{
			row(cb("1 устройство", CodeDevices1), cb("3 устройства", CodeDevices3), cb("5 устройств", CodeDevices5)),
			row(cb("🔙 Назад", CodeBackBuy)),
		},
	}
}

func summaryScreen(o models.PendingOrder) screen {
	text := fmt.Sprintf("💰 Итого: %d руб.\n\n"+
		"*Вы покупаете:*\n"+
		"- Период: %d месяц(ев)\n"+
		"- Устройства: %d\n"+
		"- Цена: %d руб.\n\n"+
		"⬇ Нажмите для перенаправления к оплате.", o.Price, o.PeriodMonths, o.Devices, o.Price)

	return screen{
		text: text,
		buttons: [][]models.Button{
			row(cb("✅ Оплатить", CodePay)),
			row(cb("🔙 Назад", CodeBackDevices)),
		},
		markdown: true,
	}
}

func afterPurchaseButtons() [][]models.Button {
	return [][]models.Button{row(cb("🔙 Назад", CodeBackMain), cb("🔧 Установить", CodeInstall))}
}

func paidScreen(rec models.UserRecord) screen {
	return screen{
		text: fmt.Sprintf("✅ Оплата прошла успешно!\n\n"+
			"📅 Подписка продлена до: %s\n"+
			"🔑 Ключ: %s\n"+
			"🌐 Адрес: %s\n\n"+
			"Приятного использования нашего VPN!", rec.SubscriptionEnd, rec.Key, rec.Address),
		buttons: afterPurchaseButtons(),
	}
}

func trialScreen(rec models.UserRecord) screen {
	return screen{
		text: fmt.Sprintf("✅ Бесплатный пробный период активирован!\n\n"+
			"Подписка до: %s\n"+
			"Ключ: %s\n"+
			"Адрес: %s\n\n"+
			"Приятного использования нашего VPN!", rec.SubscriptionEnd, rec.Key, rec.Address),
		buttons: afterPurchaseButtons(),
	}
}

func trialUnavailableScreen() screen {
	return screen{
		text: "🚫 Пробный период уже использован или сейчас недоступен.\n\nВыберите платный период подписки.",
		buttons: [][]models.Button{
			row(cb("💰 Купить", CodeBuy)),
			row(cb("🔙 Назад", CodeBackMain)),
		},
	}
}

func sessionExpiredScreen() screen {
	return screen{
		text: "⌛ Сессия покупки истекла. Пожалуйста, начните покупку заново.",
		buttons: [][]models.Button{
			row(cb("💰 Купить", CodeBuy)),
			row(cb("🔙 Назад", CodeBackMain)),
		},
	}
}

func errorScreen() screen {
	return screen{
		text:    "⚠️ Что-то пошло не так. Попробуйте позже.",
		buttons: [][]models.Button{row(cb("🔙 Назад", CodeBackMain))},
	}
}

func tariffText(t models.Tariff) string {
	switch tt := t.(type) {
	case models.PaidTariff:
		return fmt.Sprintf("%d месяц(ев), %d устройств, %d руб.", tt.Months, tt.Devices, tt.Price)
	case models.TrialTariff:
		return fmt.Sprintf("Пробный период: %d дней, %d руб.", tt.Days, tt.Cost())
	default:
		return "Отсутствует"
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func profileScreen(userID string, rec models.UserRecord) screen {
	text := fmt.Sprintf("👤 Профиль пользователя ID-%s:\n\n"+
		"📅 Подписка до: %s\n"+
		"📝 Тариф: %s\n\n"+
		"🔑 Ключ: %s\n"+
		"🌐 Адрес: %s",
		userID,
		orDefault(rec.SubscriptionEnd, "Не оформлена"),
		tariffText(rec.Tariff),
		orDefault(rec.Key, "Нет"),
		orDefault(rec.Address, "Нет"),
	)
	if rec.Expired {
		text += "\n\n⚠️ Подписка истекла. Купите подписку заново, для возобновления доступа."
	}
	return screen{
		text:    text,
		buttons: [][]models.Button{row(cb("🔙 Назад", CodeBackMain))},
	}
}

func (c *Controller) installScreen() screen {
	return screen{
		text: "🔧 Инструкция по подключению к VPN:\n\n" +
			"1️⃣ Скачайте прокси-клиент WireGuard.\n" +
			"2️⃣ Добавьте новый туннель с полученными данными.\n" +
			"3️⃣ Подключитесь к туннелю и наслаждайтесь безопасным соединением!\n\n" +
			"💡 При возникновении вопросов обращайтесь в поддержку.",
		buttons: [][]models.Button{row(cb("🔙 Назад", CodeBackMain), link("🆘 Поддержка", c.opts.SupportURL))},
	}
}
