package state

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/dashboard"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/ledger"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/tui/render"
)

const dateLayout = "02/01/2006"

// View renders the TUI.
func (m *Model) View() string {
	width := m.width
	if width == 0 {
		width = defaultViewportWidth
	}

	var s strings.Builder
	s.WriteString(render.TabBar(m.tabs, m.activeTab(), width))
	s.WriteString("\n\n")
	s.WriteString(m.viewport.View())
	s.WriteString("\n")

	tab := string(m.activeTab())
	state := render.StatusState{
		Refreshing:  m.refresh.InProgress[tab],
		Spinner:     m.spinner.View(),
		Scheduler:   m.status,
		LastRefresh: m.refresh.LastRefreshTime,
		TabError:    m.refresh.Errors[tab],
		Width:       width,
	}
	if m.hasMessage {
		state.Message = m.message.Text
		state.MessageType = m.message.Type
	}
	s.WriteString(render.StatusBar(state))
	s.WriteString("\n")
	s.WriteString(render.Footer(m.keys.shortHelp(), width))
	return s.String()
}

// updateViewportContent renders the active tab's tables into the viewport.
func (m *Model) updateViewportContent() {
	width := m.viewport.Width
	data := m.deps.Data.Data()

	var tables []render.Table
	switch m.activeTab() {
	case settings.TabOverview:
		sum := m.deps.Data.Summary(m.deps.Now())
		tables = []render.Table{overviewTable(sum), categoryTable(sum)}
	case settings.TabExpenses:
		tables = []render.Table{expensesTable(data.Expenses)}
	case settings.TabPayments:
		tables = []render.Table{paymentsTable(data.Payments)}
	case settings.TabApartments:
		tables = []render.Table{apartmentsTable(data.Fees)}
	}

	parts := make([]string, 0, len(tables))
	for _, t := range tables {
		parts = append(parts, render.RenderTable(t, width))
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
}

func overviewTable(sum ledger.Summary) render.Table {
	outstanding := "-"
	if len(sum.Outstanding) > 0 {
		outstanding = strings.Join(sum.Outstanding, ", ")
	}
	return render.Table{
		Headers: []string{"נושא", ledger.FormatMonth(sum.Month)},
		Rows: [][]string{
			{"יתרה", ledger.FormatShekels(sum.Balance)},
			{"הוצאות החודש", ledger.FormatShekels(sum.TotalExpenses)},
			{"נגבה", fmt.Sprintf("%s מתוך %s (%.0f%%)", ledger.FormatShekels(sum.Collected), ledger.FormatShekels(sum.Expected), sum.CollectionRate()*100)},
			{"דירות ששילמו", fmt.Sprintf("%d/%d", sum.PaidApartments, sum.TotalApartments)},
			{"דירות בפיגור", outstanding},
		},
	}
}

func categoryTable(sum ledger.Summary) render.Table {
	categories := make([]string, 0, len(sum.ExpensesByCategory))
	for c := range sum.ExpensesByCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return sum.ExpensesByCategory[categories[i]] > sum.ExpensesByCategory[categories[j]]
	})

	t := render.Table{Headers: []string{"קטגוריה", "סכום"}}
	for _, c := range categories {
		t.Rows = append(t.Rows, []string{c, ledger.FormatShekels(sum.ExpensesByCategory[c])})
	}
	return t
}

func expensesTable(expenses []ledger.Expense) render.Table {
	sorted := append([]ledger.Expense(nil), expenses...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	t := render.Table{Headers: []string{"תאריך", "קטגוריה", "תיאור", "ספק", "סכום"}}
	for _, e := range sorted {
		t.Rows = append(t.Rows, []string{e.Date.Format(dateLayout), e.Category, e.Description, e.Vendor, ledger.FormatShekels(e.Amount)})
	}
	return t
}

func paymentsTable(payments []ledger.Payment) render.Table {
	sorted := append([]ledger.Payment(nil), payments...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Month.After(sorted[j].Month) })

	t := render.Table{Headers: []string{"דירה", "דייר", "חודש", "סכום", "שולם"}}
	for _, p := range sorted {
		paid := ""
		if !p.PaidAt.IsZero() {
			paid = p.PaidAt.Format(dateLayout)
		}
		t.Rows = append(t.Rows, []string{p.Apartment, p.Tenant, ledger.FormatMonth(p.Month), ledger.FormatShekels(p.Amount), paid})
	}
	return t
}

func apartmentsTable(fees []ledger.ApartmentFee) render.Table {
	sorted := append([]ledger.ApartmentFee(nil), fees...)
	sort.SliceStable(sorted, func(i, j int) bool { return apartmentLess(sorted[i].Apartment, sorted[j].Apartment) })

	t := render.Table{Headers: []string{"דירה", "בעלים", "דמי ועד", "חוב"}}
	for _, f := range sorted {
		t.Rows = append(t.Rows, []string{f.Apartment, f.Owner, ledger.FormatShekels(f.MonthlyFee), ledger.FormatShekels(f.Debt)})
	}
	return t
}

// apartmentLess orders numeric apartment numbers numerically.
func apartmentLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

var _ DataSource = (*dashboard.Service)(nil)
