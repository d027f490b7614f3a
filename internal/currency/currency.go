package currency

import (
	"fmt"
	"strings"

	"github.com/kurshub/miniapp-backend/internal/models"
)

// Поддерживаемые валюты
const (
	RUB = "RUB"
	USD = "USD"
	EUR = "EUR"
	UAH = "UAH"
)

// Курсы для валют без явно заданной цены. Грубые фиксированные курсы,
// используются только как запасной вариант, когда админ не заполнил
// цену в конкретной валюте
const (
	fallbackRateUSD = 90.0
	fallbackRateEUR = 100.0
	fallbackRateUAH = 2.5
)

// countryCurrency — валюта по коду страны из Telegram-профиля.
// Всё, чего нет в списке, получает рубли
var countryCurrency = map[string]string{
	"RU": RUB,
	"BY": RUB,
	"KZ": RUB,
	"UA": UAH,
	"US": USD,
	"DE": EUR,
	"FR": EUR,
	"ES": EUR,
	"IT": EUR,
	"NL": EUR,
	"PT": EUR,
	"AT": EUR,
	"FI": EUR,
	"IE": EUR,
	"GR": EUR,
}

// languageCurrency — валюта по языку Telegram-профиля, когда страны нет.
// Язык — слабый сигнал, поэтому список короче странового
var languageCurrency = map[string]string{
	"ru": RUB,
	"be": RUB,
	"kk": RUB,
	"uk": UAH,
	"en": USD,
	"de": EUR,
	"fr": EUR,
	"es": EUR,
	"it": EUR,
}

// ForCountry возвращает валюту для кода страны (ISO 3166-1 alpha-2)
func ForCountry(countryCode string) string {
	if c, ok := countryCurrency[strings.ToUpper(strings.TrimSpace(countryCode))]; ok {
		return c
	}
	return RUB
}

// ForLanguage возвращает валюту по языковому коду из Telegram WebApp
func ForLanguage(languageCode string) string {
	lang := strings.ToLower(strings.TrimSpace(languageCode))
	if idx := strings.IndexByte(lang, '-'); idx >= 0 {
		lang = lang[:idx]
	}
	if c, ok := languageCurrency[lang]; ok {
		return c
	}
	return RUB
}

// Supported проверяет, что код валюты нам известен
func Supported(code string) bool {
	switch code {
	case RUB, USD, EUR, UAH:
		return true
	}
	return false
}

// PriceFor возвращает цену пакета консультаций в валюте пользователя.
// Явно заданная админом цена имеет приоритет; иначе пересчитываем от
// рублёвой по фиксированному курсу
func PriceFor(p models.ConsultationPrice, code string) float64 {
	switch code {
	case USD:
		if p.PriceUSD != nil {
			return *p.PriceUSD
		}
		return round2(p.PriceRUB / fallbackRateUSD)
	case EUR:
		if p.PriceEUR != nil {
			return *p.PriceEUR
		}
		return round2(p.PriceRUB / fallbackRateEUR)
	case UAH:
		if p.PriceUAH != nil {
			return *p.PriceUAH
		}
		return round2(p.PriceRUB / fallbackRateUAH)
	default:
		return p.PriceRUB
	}
}

// Symbol возвращает знак валюты для сообщений пользователю
func Symbol(code string) string {
	switch code {
	case USD:
		return "$"
	case EUR:
		return "€"
	case UAH:
		return "₴"
	default:
		return "₽"
	}
}

// Format печатает сумму с символом валюты: "1500 ₽", "16.67 $"
func Format(amount float64, code string) string {
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("%d %s", int64(amount), Symbol(code))
	}
	return fmt.Sprintf("%.2f %s", amount, Symbol(code))
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
