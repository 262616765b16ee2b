// Package dashboard owns the building's ledger data and turns each dashboard
// tab into refresh operations for the coordinator.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/clock"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/ledger"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/logging"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/refresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/store"
)

// Kind names one dataset. It doubles as the snapshot key in the cache.
type Kind string

const (
	KindBalances   Kind = "balances"
	KindExpenses   Kind = "expenses"
	KindPayments   Kind = "payments"
	KindApartments Kind = "apartments"
)

// Kinds lists every dataset.
func Kinds() []Kind {
	return []Kind{KindBalances, KindExpenses, KindPayments, KindApartments}
}

// SheetNames maps datasets to spreadsheet tab names.
type SheetNames map[Kind]string

// DefaultSheetNames are the committee spreadsheet's tab titles.
func DefaultSheetNames() SheetNames {
	return SheetNames{
		KindBalances:   "יתרה",
		KindExpenses:   "הוצאות",
		KindPayments:   "תשלומים",
		KindApartments: "דירות",
	}
}

// Fetcher downloads a sheet's rows.
type Fetcher interface {
	FetchSheet(ctx context.Context, sheet string) ([][]string, error)
}

// Cache persists snapshots and refresh history.
type Cache interface {
	SaveSnapshot(ctx context.Context, kind string, payload []byte, fetchedAt time.Time) error
	LoadSnapshot(ctx context.Context, kind string) (store.Snapshot, error)
	RecordRun(ctx context.Context, run store.Run) (string, error)
}

// Registrar accepts tab registrations.
type Registrar interface {
	Register(tabID string, ops ...refresh.Operation)
}

// ResultSource publishes completed refreshes.
type ResultSource interface {
	OnResult(fn func(refresh.Result)) (cancel func())
}

// Data is a copy of the service's current datasets.
type Data struct {
	Balances  []ledger.Balance
	Expenses  []ledger.Expense
	Payments  []ledger.Payment
	Fees      []ledger.ApartmentFee
	UpdatedAt map[Kind]time.Time
	// SkippedRows counts rows that could not be parsed on the last load.
	SkippedRows map[Kind]int
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used to stamp fetched data.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCache sets where snapshots and runs are written.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithSheetNames overrides the spreadsheet tab names.
func WithSheetNames(names SheetNames) Option {
	return func(s *Service) {
		for k, v := range names {
			if v != "" {
				s.sheets[k] = v
			}
		}
	}
}

// Service loads ledger data and serves copies of it.
type Service struct {
	fetcher Fetcher
	cache   Cache
	clock   clock.Clock
	logger  logging.Logger
	sheets  SheetNames

	mu   sync.RWMutex
	data Data
}

// New creates a Service that fetches through f.
func New(f Fetcher, opts ...Option) *Service {
	s := &Service{
		fetcher: f,
		clock:   clock.Real(),
		logger:  logging.Nop(),
		sheets:  DefaultSheetNames(),
		data: Data{
			UpdatedAt:   make(map[Kind]time.Time),
			SkippedRows: make(map[Kind]int),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Operations returns the refresh operations backing tab, or nil for an
// unknown tab.
func (s *Service) Operations(tab settings.Tab) []refresh.Operation {
	switch tab {
	case settings.TabOverview:
		return []refresh.Operation{s.loader(KindBalances), s.loader(KindExpenses)}
	case settings.TabExpenses:
		return []refresh.Operation{s.loader(KindExpenses)}
	case settings.TabPayments:
		return []refresh.Operation{s.loader(KindPayments)}
	case settings.TabApartments:
		return []refresh.Operation{s.loader(KindApartments)}
	default:
		return nil
	}
}

// Wire registers every dashboard tab with r.
func (s *Service) Wire(r Registrar) {
	for _, tab := range settings.AllTabs() {
		r.Register(string(tab), s.Operations(tab)...)
	}
}

// RecordRuns writes a history row for every applied refresh published by
// src. The returned function stops recording.
func (s *Service) RecordRuns(src ResultSource) (cancel func()) {
	return src.OnResult(func(r refresh.Result) {
		if s.cache == nil || r.Discarded {
			return
		}
		run := store.Run{Tab: r.TabID, StartedAt: r.StartedAt, FinishedAt: r.FinishedAt}
		if r.Err != nil {
			run.Error = r.Err.Error()
		}
		if _, err := s.cache.RecordRun(context.Background(), run); err != nil {
			s.logger.Warn("failed to record refresh run", "tab", r.TabID, "error", err)
		}
	})
}

// LoadCached fills the datasets from the cache. Missing snapshots are
// skipped; other failures are joined into the returned error.
func (s *Service) LoadCached(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	var errs []error
	for _, kind := range Kinds() {
		snap, err := s.cache.LoadSnapshot(ctx, string(kind))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.restore(kind, snap); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", kind, err))
			continue
		}
		s.logger.Debug("loaded cached snapshot", "kind", kind, "fetched_at", snap.FetchedAt)
	}
	return errors.Join(errs...)
}

func (s *Service) restore(kind Kind, snap store.Snapshot) error {
	switch kind {
	case KindBalances:
		return restoreInto(s, kind, snap, func(d *Data, v []ledger.Balance) { d.Balances = v })
	case KindExpenses:
		return restoreInto(s, kind, snap, func(d *Data, v []ledger.Expense) { d.Expenses = v })
	case KindPayments:
		return restoreInto(s, kind, snap, func(d *Data, v []ledger.Payment) { d.Payments = v })
	case KindApartments:
		return restoreInto(s, kind, snap, func(d *Data, v []ledger.ApartmentFee) { d.Fees = v })
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}
}

func restoreInto[T any](s *Service, kind Kind, snap store.Snapshot, apply func(*Data, []T)) error {
	var items []T
	if err := json.Unmarshal(snap.Payload, &items); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	apply(&s.data, items)
	s.data.UpdatedAt[kind] = snap.FetchedAt
	return nil
}

func (s *Service) loader(kind Kind) refresh.Operation {
	switch kind {
	case KindBalances:
		return load(s, kind, ledger.ParseBalances, func(d *Data, v []ledger.Balance) { d.Balances = v })
	case KindExpenses:
		return load(s, kind, ledger.ParseExpenses, func(d *Data, v []ledger.Expense) { d.Expenses = v })
	case KindPayments:
		return load(s, kind, ledger.ParsePayments, func(d *Data, v []ledger.Payment) { d.Payments = v })
	default:
		return load(s, kind, ledger.ParseApartmentFees, func(d *Data, v []ledger.ApartmentFee) { d.Fees = v })
	}
}

// load builds an operation that fetches, parses and swaps in one dataset.
// Data is only replaced when the whole sheet parsed; bad rows are skipped
// and counted.
func load[T any](s *Service, kind Kind, parse func([][]string) (ledger.Parsed[T], error), apply func(*Data, []T)) refresh.Operation {
	return func(ctx context.Context) error {
		sheet := s.sheets[kind]
		rows, err := s.fetcher.FetchSheet(ctx, sheet)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", kind, err)
		}
		parsed, err := parse(rows)
		if err != nil {
			return fmt.Errorf("parse %s: %w", kind, err)
		}
		for _, rowErr := range parsed.RowErrors {
			s.logger.Debug("skipped sheet row", "kind", kind, "error", rowErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		now := s.clock.Now()
		s.mu.Lock()
		apply(&s.data, parsed.Items)
		s.data.UpdatedAt[kind] = now
		s.data.SkippedRows[kind] = len(parsed.RowErrors)
		s.mu.Unlock()

		s.save(ctx, kind, parsed.Items, now)
		return nil
	}
}

func (s *Service) save(ctx context.Context, kind Kind, items any, fetchedAt time.Time) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(items)
	if err != nil {
		s.logger.Warn("failed to encode snapshot", "kind", kind, "error", err)
		return
	}
	if err := s.cache.SaveSnapshot(context.WithoutCancel(ctx), string(kind), payload, fetchedAt); err != nil {
		s.logger.Warn("failed to cache snapshot", "kind", kind, "error", err)
	}
}

// Data returns a copy of the current datasets.
func (s *Service) Data() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := Data{
		Balances:    append([]ledger.Balance(nil), s.data.Balances...),
		Expenses:    append([]ledger.Expense(nil), s.data.Expenses...),
		Payments:    append([]ledger.Payment(nil), s.data.Payments...),
		Fees:        append([]ledger.ApartmentFee(nil), s.data.Fees...),
		UpdatedAt:   make(map[Kind]time.Time, len(s.data.UpdatedAt)),
		SkippedRows: make(map[Kind]int, len(s.data.SkippedRows)),
	}
	for k, v := range s.data.UpdatedAt {
		d.UpdatedAt[k] = v
	}
	for k, v := range s.data.SkippedRows {
		d.SkippedRows[k] = v
	}
	return d
}

// Summary summarizes the month containing month.
func (s *Service) Summary(month time.Time) ledger.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.Summarize(month, s.data.Balances, s.data.Expenses, s.data.Payments, s.data.Fees)
}

// UpdatedAt returns when kind was last loaded, zero if never.
func (s *Service) UpdatedAt(kind Kind) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.UpdatedAt[kind]
}
