// Package period содержит арифметику оплаченного периода подписки.
package period

import "time"

const (
	monthlyMonths = 1
	yearlyMonths  = 12
)

// Months возвращает длительность оплаченного периода в месяцах для плана.
// Для неизвестного плана возвращает 0.
func Months(plan string) int {
	switch plan {
	case "MONTHLY":
		return monthlyMonths
	case "YEARLY":
		return yearlyMonths
	default:
		return 0
	}
}

// End возвращает конец оплаченного периода, начатого в момент now.
func End(plan string, now time.Time) time.Time {
	return now.AddDate(0, Months(plan), 0)
}
