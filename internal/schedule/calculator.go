package schedule

import "sort"

// Window — открытый админом интервал доступности внутри одного дня.
// Инвариант: Start < End. Конец интервала сам по себе временем начала
// брони не является (полуоткрытый интервал).
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// BookingBufferMinutes — буфер вокруг существующей брони: час до и час после
// занятого времени закрыты для новых броней. Моделирует реально занятый
// календарь консультанта, а не только сам час сессии.
const BookingBufferMinutes = 60

// DefaultStepMinutes — шаг сетки времён по умолчанию (исторически
// поддерживался и получасовой шаг, поэтому шаг конфигурируем).
const DefaultStepMinutes = 60

// ComputeAvailableTimes возвращает отсортированные времена начала, доступные
// для брони. windows — окна этой даты с is_available=true; bookings — времена
// начала активных (pending/confirmed) броней этой даты. Пустой результат —
// валидный ответ "всё занято", а не ошибка.
func ComputeAvailableTimes(windows []Window, bookings []TimeOfDay, stepMinutes int) []TimeOfDay {
	if stepMinutes <= 0 {
		stepMinutes = DefaultStepMinutes
	}

	candidates := make(map[TimeOfDay]struct{})
	for _, w := range windows {
		if w.Start >= w.End {
			continue
		}
		for t := w.Start; t < w.End && t.Valid(); t += TimeOfDay(stepMinutes) {
			candidates[t] = struct{}{}
		}
	}

	result := make([]TimeOfDay, 0, len(candidates))
	for t := range candidates {
		if !blocked(t, bookings) {
			result = append(result, t)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// blocked: кандидат закрыт, если отстоит от начала любой активной брони
// не более чем на час в любую сторону (для почасовой сетки это ровно
// {h-1, h, h+1}).
func blocked(t TimeOfDay, bookings []TimeOfDay) bool {
	for _, b := range bookings {
		d := int(t) - int(b)
		if d < 0 {
			d = -d
		}
		if d <= BookingBufferMinutes {
			return true
		}
	}
	return false
}

// HourState — статус часа в админском календаре
type HourState string

const (
	HourBusy        HourState = "busy"
	HourFree        HourState = "free"
	HourUnavailable HourState = "unavailable"
)

// HourStatus — грубая почасовая классификация для админского календаря:
// busy, если на этот час есть активная бронь; иначе free, если час лежит
// внутри доступного окна; иначе unavailable. Буфер здесь сознательно НЕ
// применяется — это отображение, намеренно расходящееся с калькулятором
// бронирования; объединять их нельзя, иначе наблюдаемое поведение
// админ-календаря тихо изменится.
func HourStatus(windows []Window, bookings []TimeOfDay, hour int) HourState {
	for _, b := range bookings {
		if b.Hour() == hour {
			return HourBusy
		}
	}
	t := TimeOfDay(hour * 60)
	for _, w := range windows {
		if w.Start <= t && t < w.End {
			return HourFree
		}
	}
	return HourUnavailable
}
