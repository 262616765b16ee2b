package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingColumn is returned when a required header cannot be found.
var ErrMissingColumn = errors.New("missing column")

// Balance is the balance of one bank account.
type Balance struct {
	Account string    `json:"account"`
	Amount  Money     `json:"amount"`
	AsOf    time.Time `json:"asOf"`
}

// Expense is one building expense.
type Expense struct {
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Vendor      string    `json:"vendor"`
	Amount      Money     `json:"amount"`
}

// Payment is a tenant's committee fee payment for a month.
type Payment struct {
	Apartment string    `json:"apartment"`
	Tenant    string    `json:"tenant"`
	Month     time.Time `json:"month"`
	Amount    Money     `json:"amount"`
	PaidAt    time.Time `json:"paidAt"`
	Method    string    `json:"method"`
}

// ApartmentFee is the monthly fee owed by an apartment.
type ApartmentFee struct {
	Apartment  string `json:"apartment"`
	Owner      string `json:"owner"`
	MonthlyFee Money  `json:"monthlyFee"`
	Debt       Money  `json:"debt"`
}

// Parsed holds the records decoded from a sheet and the rows that were
// skipped.
type Parsed[T any] struct {
	Items     []T
	RowErrors []error
}

// column aliases, Hebrew first.
var (
	colAccount     = []string{"חשבון", "account"}
	colBalance     = []string{"יתרה", "balance", "amount", "סכום"}
	colAsOf        = []string{"תאריך עדכון", "תאריך", "updated", "date"}
	colDate        = []string{"תאריך", "date"}
	colCategory    = []string{"קטגוריה", "סוג", "category"}
	colDescription = []string{"תיאור", "פירוט", "description"}
	colVendor      = []string{"ספק", "vendor", "payee"}
	colAmount      = []string{"סכום", "amount"}
	colApartment   = []string{"דירה", "מספר דירה", "apartment", "apt"}
	colTenant      = []string{"דייר", "שם", "tenant", "name"}
	colMonth       = []string{"חודש", "month"}
	colPaidAt      = []string{"תאריך תשלום", "paid at", "paid", "תאריך", "date"}
	colMethod      = []string{"אמצעי תשלום", "method"}
	colOwner       = []string{"בעלים", "שם", "owner", "name"}
	colFee         = []string{"דמי ועד", "תשלום חודשי", "monthly fee", "fee"}
	colDebt        = []string{"חוב", "debt", "arrears"}
)

type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

// index returns the column of the first alias present, or -1.
func (h header) index(aliases []string) int {
	for _, a := range aliases {
		if i, ok := h[a]; ok {
			return i
		}
	}
	return -1
}

func (h header) require(aliases []string) (int, error) {
	if i := h.index(aliases); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %s", ErrMissingColumn, aliases[len(aliases)-1])
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseRows splits off the header row and applies parse to every data row.
// Row numbers in errors are 1-based sheet rows.
func parseRows[T any](rows [][]string, setup func(header) (func([]string) (T, error), error)) (Parsed[T], error) {
	var out Parsed[T]
	if len(rows) == 0 {
		return out, fmt.Errorf("%w: no header row", ErrMissingColumn)
	}
	parse, err := setup(newHeader(rows[0]))
	if err != nil {
		return out, err
	}
	for i, row := range rows[1:] {
		item, err := parse(row)
		if err != nil {
			out.RowErrors = append(out.RowErrors, fmt.Errorf("row %d: %w", i+2, err))
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// ParseBalances decodes the balance sheet.
func ParseBalances(rows [][]string) (Parsed[Balance], error) {
	return parseRows(rows, func(h header) (func([]string) (Balance, error), error) {
		amountCol, err := h.require(colBalance)
		if err != nil {
			return nil, err
		}
		accountCol, asOfCol := h.index(colAccount), h.index(colAsOf)
		return func(row []string) (Balance, error) {
			amount, err := ParseAmount(cell(row, amountCol))
			if err != nil {
				return Balance{}, err
			}
			b := Balance{Account: cell(row, accountCol), Amount: amount}
			if raw := cell(row, asOfCol); raw != "" {
				if b.AsOf, err = ParseDate(raw); err != nil {
					return Balance{}, err
				}
			}
			return b, nil
		}, nil
	})
}

// ParseExpenses decodes the expenses sheet.
func ParseExpenses(rows [][]string) (Parsed[Expense], error) {
	return parseRows(rows, func(h header) (func([]string) (Expense, error), error) {
		dateCol, err := h.require(colDate)
		if err != nil {
			return nil, err
		}
		amountCol, err := h.require(colAmount)
		if err != nil {
			return nil, err
		}
		categoryCol, descCol, vendorCol := h.index(colCategory), h.index(colDescription), h.index(colVendor)
		return func(row []string) (Expense, error) {
			date, err := ParseDate(cell(row, dateCol))
			if err != nil {
				return Expense{}, err
			}
			amount, err := ParseAmount(cell(row, amountCol))
			if err != nil {
				return Expense{}, err
			}
			return Expense{
				Date:        date,
				Category:    cell(row, categoryCol),
				Description: cell(row, descCol),
				Vendor:      cell(row, vendorCol),
				Amount:      amount,
			}, nil
		}, nil
	})
}

// ParsePayments decodes the payments sheet. A missing month falls back to
// the month of the payment date.
func ParsePayments(rows [][]string) (Parsed[Payment], error) {
	return parseRows(rows, func(h header) (func([]string) (Payment, error), error) {
		aptCol, err := h.require(colApartment)
		if err != nil {
			return nil, err
		}
		amountCol, err := h.require(colAmount)
		if err != nil {
			return nil, err
		}
		monthCol, paidCol := h.index(colMonth), h.index(colPaidAt)
		if monthCol < 0 && paidCol < 0 {
			return nil, fmt.Errorf("%w: month", ErrMissingColumn)
		}
		tenantCol, methodCol := h.index(colTenant), h.index(colMethod)
		return func(row []string) (Payment, error) {
			apt := cell(row, aptCol)
			if apt == "" {
				return Payment{}, fmt.Errorf("empty apartment")
			}
			amount, err := ParseAmount(cell(row, amountCol))
			if err != nil {
				return Payment{}, err
			}
			p := Payment{Apartment: apt, Tenant: cell(row, tenantCol), Amount: amount, Method: cell(row, methodCol)}
			if raw := cell(row, paidCol); raw != "" {
				if p.PaidAt, err = ParseDate(raw); err != nil {
					return Payment{}, err
				}
			}
			switch raw := cell(row, monthCol); {
			case raw != "":
				if p.Month, err = ParseMonth(raw); err != nil {
					return Payment{}, err
				}
			case !p.PaidAt.IsZero():
				p.Month = firstOfMonth(p.PaidAt)
			default:
				return Payment{}, fmt.Errorf("no month or payment date")
			}
			return p, nil
		}, nil
	})
}

// ParseApartmentFees decodes the apartments sheet.
func ParseApartmentFees(rows [][]string) (Parsed[ApartmentFee], error) {
	return parseRows(rows, func(h header) (func([]string) (ApartmentFee, error), error) {
		aptCol, err := h.require(colApartment)
		if err != nil {
			return nil, err
		}
		feeCol, err := h.require(colFee)
		if err != nil {
			return nil, err
		}
		ownerCol, debtCol := h.index(colOwner), h.index(colDebt)
		return func(row []string) (ApartmentFee, error) {
			apt := cell(row, aptCol)
			if apt == "" {
				return ApartmentFee{}, fmt.Errorf("empty apartment")
			}
			fee, err := ParseAmount(cell(row, feeCol))
			if err != nil {
				return ApartmentFee{}, err
			}
			a := ApartmentFee{Apartment: apt, Owner: cell(row, ownerCol), MonthlyFee: fee}
			if raw := cell(row, debtCol); raw != "" {
				if a.Debt, err = ParseAmount(raw); err != nil {
					return ApartmentFee{}, err
				}
			}
			return a, nil
		}, nil
	})
}
