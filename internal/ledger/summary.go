package ledger

import (
	"sort"
	"time"
)

// Summary aggregates one month of building finances.
type Summary struct {
	Month              time.Time        `json:"month"`
	Balance            Money            `json:"balance"`
	TotalExpenses      Money            `json:"totalExpenses"`
	ExpensesByCategory map[string]Money `json:"expensesByCategory"`
	Collected          Money            `json:"collected"`
	Expected           Money            `json:"expected"`
	PaidApartments     int              `json:"paidApartments"`
	TotalApartments    int              `json:"totalApartments"`
	Outstanding        []string         `json:"outstanding"`
}

// CollectionRate is collected over expected, 0 when nothing is expected.
func (s Summary) CollectionRate() float64 {
	if s.Expected <= 0 {
		return 0
	}
	return float64(s.Collected) / float64(s.Expected)
}

// Summarize computes the summary for the month containing month.
// An apartment counts as paid once its payments for the month cover its fee.
func Summarize(month time.Time, balances []Balance, expenses []Expense, payments []Payment, fees []ApartmentFee) Summary {
	month = firstOfMonth(month)
	s := Summary{
		Month:              month,
		ExpensesByCategory: make(map[string]Money),
		TotalApartments:    len(fees),
	}
	for _, b := range balances {
		s.Balance += b.Amount
	}
	for _, e := range expenses {
		if !sameMonth(e.Date, month) {
			continue
		}
		s.TotalExpenses += e.Amount
		category := e.Category
		if category == "" {
			category = "אחר"
		}
		s.ExpensesByCategory[category] += e.Amount
	}

	paid := make(map[string]Money)
	for _, p := range payments {
		if !sameMonth(p.Month, month) {
			continue
		}
		s.Collected += p.Amount
		paid[p.Apartment] += p.Amount
	}
	for _, f := range fees {
		s.Expected += f.MonthlyFee
		if paid[f.Apartment] >= f.MonthlyFee {
			s.PaidApartments++
		} else {
			s.Outstanding = append(s.Outstanding, f.Apartment)
		}
	}
	sort.Strings(s.Outstanding)
	return s
}

func sameMonth(t, month time.Time) bool {
	return t.Year() == month.Year() && t.Month() == month.Month()
}
