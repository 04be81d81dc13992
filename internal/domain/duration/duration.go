// Пакет duration — расчёт длительности отсутствия в часах по датам
// и времени начала и окончания.
package duration

import (
	"errors"
	"fmt"
	"time"
)

// ErrIncomplete — не заполнена одна из четырёх составляющих интервала.
var ErrIncomplete = errors.New("интервал заполнен не полностью")

// Форматы времени: из формы приходит HH:MM, из PostgreSQL (time) — HH:MM:SS.
var timeLayouts = []string{"15:04", "15:04:05"}

// Hours возвращает длительность интервала в часах с дробной частью.
// Если конец раньше начала, результат равен 0.
func Hours(start, end time.Time) float64 {
	h := end.Sub(start).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// ComputeHours разбирает дату (YYYY-MM-DD) и время начала и окончания
// в часовом поясе loc и возвращает длительность в часах.
func ComputeHours(startDate, startTime, endDate, endTime string, loc *time.Location) (float64, error) {
	if startDate == "" || startTime == "" || endDate == "" || endTime == "" {
		return 0, ErrIncomplete
	}
	if loc == nil {
		loc = time.UTC
	}

	start, err := parseDateTime(startDate, startTime, loc)
	if err != nil {
		return 0, fmt.Errorf("начало: %w", err)
	}
	end, err := parseDateTime(endDate, endTime, loc)
	if err != nil {
		return 0, fmt.Errorf("окончание: %w", err)
	}
	return Hours(start, end), nil
}

func parseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation("2006-01-02 "+layout, date+" "+clock, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("некорректные дата/время %q %q", date, clock)
}
