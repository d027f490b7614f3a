package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kurshub/miniapp-backend/internal/models"
)

func fptr(v float64) *float64 { return &v }

func TestForCountry(t *testing.T) {
	assert.Equal(t, RUB, ForCountry("RU"))
	assert.Equal(t, RUB, ForCountry("by"))
	assert.Equal(t, UAH, ForCountry("UA"))
	assert.Equal(t, USD, ForCountry("US"))
	assert.Equal(t, EUR, ForCountry("DE"))
	// Неизвестная страна и пустой код падают в рубли
	assert.Equal(t, RUB, ForCountry("JP"))
	assert.Equal(t, RUB, ForCountry(""))
}

func TestForLanguage(t *testing.T) {
	assert.Equal(t, RUB, ForLanguage("ru"))
	assert.Equal(t, UAH, ForLanguage("uk"))
	assert.Equal(t, USD, ForLanguage("en-US"))
	assert.Equal(t, EUR, ForLanguage("DE"))
	assert.Equal(t, RUB, ForLanguage("ja"))
	assert.Equal(t, RUB, ForLanguage(""))
}

func TestPriceFor_ExplicitPriceWins(t *testing.T) {
	p := models.ConsultationPrice{Quantity: 1, PriceRUB: 9000, PriceUSD: fptr(95)}

	assert.Equal(t, 95.0, PriceFor(p, USD))
	assert.Equal(t, 9000.0, PriceFor(p, RUB))
}

func TestPriceFor_FallbackRates(t *testing.T) {
	p := models.ConsultationPrice{Quantity: 1, PriceRUB: 9000}

	assert.Equal(t, 100.0, PriceFor(p, USD)) // 9000/90
	assert.Equal(t, 90.0, PriceFor(p, EUR))  // 9000/100
	assert.Equal(t, 3600.0, PriceFor(p, UAH))
	assert.Equal(t, 9000.0, PriceFor(p, "XXX")) // неизвестная валюта = рубли

	// Некруглый пересчёт округляется до копеек
	odd := models.ConsultationPrice{PriceRUB: 1000}
	assert.Equal(t, 11.11, PriceFor(odd, USD))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1500 ₽", Format(1500, RUB))
	assert.Equal(t, "16.67 $", Format(16.67, USD))
	assert.Equal(t, "90 €", Format(90, EUR))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(RUB))
	assert.True(t, Supported(UAH))
	assert.False(t, Supported("GBP"))
}
