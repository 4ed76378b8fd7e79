package progress

import (
	"sort"
	"time"

	"github.com/lingua-hub/lingua-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (серия календарных дней с активностью)
// ══════════════════════════════════════════════════════════════════════════════

// NextStreak вычисляет новую серию для завершения в момент now при
// предыдущей активности prevDate (nil - первая активность вообще).
//
// Правила, в календарных днях референсного часового пояса:
//   - первая активность: серия = 1;
//   - тот же день: серия = max(prev, 1) - повтор в тот же день не
//     увеличивает серию, но устанавливает её минимум в 1;
//   - следующий день: серия = prev + 1;
//   - разрыв больше дня: серия начинается заново с 1.
//
// Отрицательный разрыв (рассинхронизация часов) трактуется как "тот же день".
// Второе возвращаемое значение сообщает, что существовавшая серия оборвалась.
func NextStreak(prevStreak int, prevDate *time.Time, now time.Time) (int, bool) {
	if prevDate == nil {
		return 1, false
	}

	dayGap := timeutil.DaysBetween(*prevDate, now)
	if dayGap < 0 {
		dayGap = 0
	}

	switch {
	case dayGap == 0:
		if prevStreak < 1 {
			return 1, false
		}
		return prevStreak, false
	case dayGap == 1:
		return prevStreak + 1, false
	default:
		return 1, prevStreak > 1
	}
}

// LongestStreak возвращает длину самой долгой серии последовательных
// календарных дней среди всех моментов завершений. Несколько завершений
// в один день считаются одним днём. Значение не зависит от текущей
// серии и может её превышать.
func LongestStreak(completedAt []time.Time) int {
	if len(completedAt) == 0 {
		return 0
	}

	// Уникальные дни, затем сортировка по возрастанию.
	seen := make(map[time.Time]struct{}, len(completedAt))
	days := make([]time.Time, 0, len(completedAt))
	for _, t := range completedAt {
		day := timeutil.StartOfDay(t)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest := 1
	run := 1
	for i := 1; i < len(days); i++ {
		if timeutil.DaysBetween(days[i-1], days[i]) == 1 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}

	return longest
}
