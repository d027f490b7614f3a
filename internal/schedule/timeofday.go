package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
)

// TimeOfDay — время внутри календарного дня в минутах от полуночи.
// Сквозь полночь не переходим: вся арифметика живёт в пределах одного дня.
type TimeOfDay int

const MinutesPerDay = 24 * 60

// ParseTimeOfDay разбирает "HH:MM" (допускается "HH:MM:SS", секунды отбрасываются)
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("%w: invalid time %q", apperrors.ErrValidation, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: invalid time %q", apperrors.ErrValidation, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: invalid time %q", apperrors.ErrValidation, s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Hour возвращает час начала (для почасовой классификации)
func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

// Valid сообщает, лежит ли время внутри суток
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}
