package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want Money
	}{
		{"1,234.50", 123450},
		{"₪ 80", 8000},
		{"₪1,200", 120000},
		{"1,200 ש\"ח", 120000},
		{"-12", -1200},
		{"12-", -1200},
		{"(300)", -30000},
		{"0.5", 50},
		{".75", 75},
		{"10.999", 1099},
		{"‏₪ 450", 45000},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "abc", "₪", "1.2.3"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatShekels(t *testing.T) {
	assert.Equal(t, "₪0", FormatShekels(0))
	assert.Equal(t, "₪450", FormatShekels(45000))
	assert.Equal(t, "₪1,234.50", FormatShekels(123450))
	assert.Equal(t, "₪1,000,000", FormatShekels(100000000))
	assert.Equal(t, "-₪12.05", FormatShekels(-1205))
	assert.Equal(t, "₪999", Money(99900).String())
	assert.InDelta(t, 12.5, Money(1250).Shekels(), 0.0001)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"05/03/2026", "5/3/2026", "5.3.2026", "2026-03-05", "05/03/26", "5/3/2026 14:30:00"} {
		got, err := ParseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseDate("March fifth")
	assert.Error(t, err)
}

func TestParseMonth(t *testing.T) {
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"03/2026", "3/2026", "2026-03", "מרץ 2026", "March 2026", "17/03/2026"} {
		got, err := ParseMonth(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseMonth("מרץ")
	assert.Error(t, err)
}

func TestHebrewMonth(t *testing.T) {
	assert.Equal(t, "ינואר", HebrewMonth(time.January))
	assert.Equal(t, "דצמבר", HebrewMonth(time.December))
	assert.Empty(t, HebrewMonth(0))
	assert.Equal(t, "מרץ 2026", FormatMonth(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)))
}

func TestParseExpensesHebrewHeaders(t *testing.T) {
	rows := [][]string{
		{"תאריך", "קטגוריה", "תיאור", "ספק", "סכום"},
		{"01/03/2026", "ניקיון", "ניקיון חדר מדרגות", "שירותי ניקיון בע\"מ", "₪450"},
		{"bad", "חשמל", "", "", "100"},
		{"15/03/2026", "חשמל", "חשבון חשמל", "חברת החשמל", "1,230.40"},
	}

	parsed, err := ParseExpenses(rows)

	require.NoError(t, err)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "ניקיון", parsed.Items[0].Category)
	assert.Equal(t, Money(45000), parsed.Items[0].Amount)
	assert.Equal(t, Money(123040), parsed.Items[1].Amount)
	require.Len(t, parsed.RowErrors, 1)
	assert.Contains(t, parsed.RowErrors[0].Error(), "row 3")
}

func TestParseExpensesEnglishHeaders(t *testing.T) {
	rows := [][]string{
		{"Date", "Amount", "Description"},
		{"2026-03-02", "80", "Light bulbs"},
	}

	parsed, err := ParseExpenses(rows)

	require.NoError(t, err)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "Light bulbs", parsed.Items[0].Description)
}

func TestParseMissingColumn(t *testing.T) {
	_, err := ParseExpenses([][]string{{"תיאור", "סכום"}})
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "date")

	_, err = ParseBalances(nil)
	require.ErrorIs(t, err, ErrMissingColumn)

	_, err = ParsePayments([][]string{{"דירה", "סכום"}})
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseBalances(t *testing.T) {
	rows := [][]string{
		{"חשבון", "יתרה", "תאריך עדכון"},
		{"עו\"ש", "12,500.00", "31/03/2026"},
		{"פיקדון", "(1,000)", ""},
	}

	parsed, err := ParseBalances(rows)

	require.NoError(t, err)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, Money(1250000), parsed.Items[0].Amount)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), parsed.Items[0].AsOf)
	assert.Equal(t, Money(-100000), parsed.Items[1].Amount)
	assert.True(t, parsed.Items[1].AsOf.IsZero())
}

func TestParsePayments(t *testing.T) {
	rows := [][]string{
		{"דירה", "דייר", "חודש", "סכום", "תאריך תשלום", "אמצעי תשלום"},
		{"1", "כהן", "מרץ 2026", "250", "02/03/2026", "העברה"},
		{"2", "לוי", "", "250", "05/03/2026", "מזומן"},
		{"", "ריק", "מרץ 2026", "250", "", ""},
	}

	parsed, err := ParsePayments(rows)

	require.NoError(t, err)
	require.Len(t, parsed.Items, 2)
	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, march, parsed.Items[0].Month)
	assert.Equal(t, march, parsed.Items[1].Month, "month falls back to the payment date")
	assert.Equal(t, "מזומן", parsed.Items[1].Method)
	assert.Len(t, parsed.RowErrors, 1)
}

func TestParseApartmentFees(t *testing.T) {
	rows := [][]string{
		{"דירה", "בעלים", "דמי ועד", "חוב"},
		{"1", "כהן", "250", ""},
		{"2", "לוי", "300", "600"},
		{"3", "", "abc", ""},
	}

	parsed, err := ParseApartmentFees(rows)

	require.NoError(t, err)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, Money(60000), parsed.Items[1].Debt)
	assert.Len(t, parsed.RowErrors, 1)
}

func TestSummarize(t *testing.T) {
	march := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	balances := []Balance{{Amount: 1000000}, {Amount: 50000}}
	expenses := []Expense{
		{Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Category: "ניקיון", Amount: 45000},
		{Date: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), Amount: 5000},
		{Date: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), Category: "ניקיון", Amount: 99999},
	}
	payments := []Payment{
		{Apartment: "1", Month: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Amount: 25000},
		{Apartment: "2", Month: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Amount: 10000},
		{Apartment: "3", Month: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Amount: 25000},
	}
	fees := []ApartmentFee{
		{Apartment: "1", MonthlyFee: 25000},
		{Apartment: "2", MonthlyFee: 25000},
		{Apartment: "3", MonthlyFee: 25000},
	}

	s := Summarize(march, balances, expenses, payments, fees)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), s.Month)
	assert.Equal(t, Money(1050000), s.Balance)
	assert.Equal(t, Money(50000), s.TotalExpenses)
	assert.Equal(t, Money(45000), s.ExpensesByCategory["ניקיון"])
	assert.Equal(t, Money(5000), s.ExpensesByCategory["אחר"])
	assert.Equal(t, Money(35000), s.Collected)
	assert.Equal(t, Money(75000), s.Expected)
	assert.Equal(t, 1, s.PaidApartments)
	assert.Equal(t, 3, s.TotalApartments)
	assert.Equal(t, []string{"2", "3"}, s.Outstanding)
	assert.InDelta(t, 35000.0/75000.0, s.CollectionRate(), 0.0001)
	assert.Zero(t, Summary{}.CollectionRate())
}
