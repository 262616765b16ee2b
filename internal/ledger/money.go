// Package ledger turns spreadsheet rows into the building's financial
// records and formats them for display.
package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in agorot (1/100 shekel).
type Money int64

// Shekels returns the amount as a float for display math.
func (m Money) Shekels() float64 {
	return float64(m) / 100
}

func (m Money) String() string {
	return FormatShekels(m)
}

// ParseAmount accepts values such as "1,234.50", "₪ 80", "-12", "(300)" and
// "1,200 ש\"ח". Parentheses and a leading or trailing minus mean negative.
func ParseAmount(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("₪", "", "ש\"ח", "", "ש״ח", "", "NIS", "", ",", "", " ", "", "\u00a0", "", "\u200f", "", "\u200e", "").Replace(s)
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimPrefix(s, "-")
	}
	if s == "" {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	m := Money(w*100 + f)
	if negative {
		m = -m
	}
	return m, nil
}

// FormatShekels renders m as "₪1,234.50"; whole amounts drop the decimals.
func FormatShekels(m Money) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	whole := groupThousands(int64(m) / 100)
	if frac := int64(m) % 100; frac != 0 {
		return fmt.Sprintf("%s₪%s.%02d", sign, whole, frac)
	}
	return sign + "₪" + whole
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
