package settings

import "strings"

// Tab identifies a dashboard section.
type Tab string

const (
	TabOverview   Tab = "overview"
	TabExpenses   Tab = "expenses"
	TabPayments   Tab = "payments"
	TabApartments Tab = "apartments"
)

// AllTabs lists the tabs in display order.
func AllTabs() []Tab {
	return []Tab{TabOverview, TabExpenses, TabPayments, TabApartments}
}

// IsValid returns whether the tab is one of the supported values.
func (t Tab) IsValid() bool {
	switch t {
	case TabOverview, TabExpenses, TabPayments, TabApartments:
		return true
	default:
		return false
	}
}

// Label is the Hebrew title shown in the tab bar.
func (t Tab) Label() string {
	switch t {
	case TabOverview:
		return "סקירה"
	case TabExpenses:
		return "הוצאות"
	case TabPayments:
		return "תשלומים"
	case TabApartments:
		return "דירות"
	default:
		return string(t)
	}
}

// DefaultTab returns the tab used when the value is missing or invalid.
func DefaultTab() Tab {
	return TabOverview
}

// NormalizeTab converts arbitrary input to a valid tab.
func NormalizeTab(raw string) Tab {
	tab := Tab(strings.ToLower(strings.TrimSpace(raw)))
	if tab.IsValid() {
		return tab
	}
	return DefaultTab()
}
