// Package service orchestrates the dashboard pipeline: pulling or receiving
// raw records, normalizing them, caching them in the store and reconciling
// the rendered tables in place.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/diagnostics"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/normalize"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/push"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/reconcile"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/render"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/repository"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/store"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/upstream"
)

// Broadcaster fans applied envelopes out to stream clients.
type Broadcaster interface {
	Broadcast(env push.Envelope)
}

// detailView is the rendered detail table of one expanded portfolio.
type detailView struct {
	table      *render.Table
	reconciler *reconcile.Reconciler
}

// DashboardService owns the dashboard state: the normalized record store,
// the rendered tables and their reconcilers.
type DashboardService struct {
	store     *store.Store
	upstream  *upstream.Client
	snapshots *repository.SnapshotRepository
	notifier  *diagnostics.Notifier
	hub       Broadcaster
	sched     reconcile.Scheduler
	entryID   string
	log       zerolog.Logger

	mu              sync.Mutex
	accountsTable   *render.Table
	accountsRec     *reconcile.Reconciler
	portfoliosTable *render.Table
	portfoliosRec   *reconcile.Reconciler
	details         map[string]*detailView
	lastFileUpdate  string
}

// Options wires a DashboardService. Store and Upstream are required; the
// rest may be nil and the concern is skipped.
type Options struct {
	Store     *store.Store
	Upstream  *upstream.Client
	Snapshots *repository.SnapshotRepository
	Notifier  *diagnostics.Notifier
	Hub       Broadcaster
	Scheduler reconcile.Scheduler
	EntryID   string
	Logger    zerolog.Logger
}

// NewDashboardService creates the service and its empty tables.
func NewDashboardService(opts Options) *DashboardService {
	s := &DashboardService{
		store:     opts.Store,
		upstream:  opts.Upstream,
		snapshots: opts.Snapshots,
		notifier:  opts.Notifier,
		hub:       opts.Hub,
		sched:     opts.Scheduler,
		entryID:   opts.EntryID,
		log:       opts.Logger,
		details:   make(map[string]*detailView),
	}
	s.accountsTable = render.NewTable("accounts", render.AccountColumns)
	s.accountsRec = reconcile.New(reconcile.Config{
		Target:    s.accountsTable,
		Scheduler: s.sched,
		Footer:    render.AccountFooterCells,
		Logger:    s.log,
	})
	s.portfoliosTable = render.NewTable("portfolios", render.PortfolioColumns)
	s.portfoliosRec = reconcile.New(reconcile.Config{
		Target:    s.portfoliosTable,
		Scheduler: s.sched,
		Footer:    render.PortfolioFooterCells,
		Logger:    s.log,
	})
	return s
}

// Refresh pulls fresh account and portfolio records from the upstream and
// rebuilds the dashboard state from them.
func (s *DashboardService) Refresh(ctx context.Context) error {
	rawAccounts, err := s.upstream.FetchAccounts(ctx)
	if err != nil {
		return err
	}
	rawPortfolios, err := s.upstream.FetchPortfolios(ctx)
	if err != nil {
		return err
	}

	s.setAccounts(normalize.NormalizeAccounts(rawAccounts))
	s.setPortfolios(normalize.NormalizePortfolios(rawPortfolios))
	s.log.Info().
		Int("accounts", len(rawAccounts)).
		Int("portfolios", len(rawPortfolios)).
		Msg("dashboard refreshed from upstream")
	return nil
}

// RegisterHandlers binds the service's apply methods to the push data types.
func (s *DashboardService) RegisterHandlers(d *push.Dispatcher) {
	d.Register(push.DataAccounts, s.ApplyAccounts)
	d.Register(push.DataPortfolios, s.ApplyPortfolioValues)
	d.Register(push.DataPositions, s.ApplyPositions)
	d.Register(push.DataLastFileUpdate, s.ApplyLastFileUpdate)
}

// ApplyAccounts applies a pushed full account set.
func (s *DashboardService) ApplyAccounts(data json.RawMessage) error {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding accounts payload: %w", err)
	}

	s.setAccounts(normalize.NormalizeAccounts(raw))
	s.broadcast(push.DataAccounts, data)
	return nil
}

// ApplyPortfolioValues applies a pushed portfolio value update. The update
// may be partial; cached sub-structures survive the merge.
func (s *DashboardService) ApplyPortfolioValues(data json.RawMessage) error {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding portfolio values payload: %w", err)
	}

	incoming := normalize.NormalizePortfolios(raw)
	s.store.MergePortfolios(incoming)

	updates := make([]reconcile.RowUpdate, 0, len(incoming))
	for _, p := range incoming {
		// Reconcile against the merged record, so preserved sub-structures
		// keep feeding the gain columns.
		merged, ok := s.store.Portfolio(p.UUID)
		if !ok {
			merged = p
		}
		updates = append(updates, render.PortfolioUpdate(merged))
		s.observePortfolio(merged)

		if p.Positions != nil {
			s.store.SetPortfolioPositions(p.UUID, p.Positions)
			s.applyDetail(p.UUID, p.Positions)
		}
	}
	s.portfoliosRec.Apply(updates)
	s.broadcast(push.DataPortfolios, data)
	return nil
}

// positionsPayload is one portfolio's pushed detail list.
type positionsPayload struct {
	PortfolioUUID string           `json:"portfolio_uuid"`
	Positions     []map[string]any `json:"positions"`
}

// ApplyPositions applies pushed position detail lists.
func (s *DashboardService) ApplyPositions(data json.RawMessage) error {
	var payloads []positionsPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		// Single-object payloads are accepted too.
		var single positionsPayload
		if err := json.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("decoding positions payload: %w", err)
		}
		payloads = []positionsPayload{single}
	}

	for _, payload := range payloads {
		if payload.PortfolioUUID == "" {
			continue
		}
		positions := normalize.NormalizePositions(payload.Positions, payload.PortfolioUUID)
		s.store.SetPortfolioPositions(payload.PortfolioUUID, positions)
		for _, pos := range positions {
			s.observePosition(pos)
		}
		s.applyDetail(payload.PortfolioUUID, positions)
	}
	s.broadcast(push.DataPositions, data)
	return nil
}

// ApplyLastFileUpdate records the upstream file timestamp.
func (s *DashboardService) ApplyLastFileUpdate(data json.RawMessage) error {
	var stamp string
	if err := json.Unmarshal(data, &stamp); err != nil {
		return fmt.Errorf("decoding last file update payload: %w", err)
	}

	s.mu.Lock()
	s.lastFileUpdate = stamp
	s.mu.Unlock()
	s.broadcast(push.DataLastFileUpdate, data)
	return nil
}

// LastFileUpdate returns the most recent upstream file timestamp.
func (s *DashboardService) LastFileUpdate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFileUpdate
}

// Accounts returns a deep copy of the cached account records.
func (s *DashboardService) Accounts() []model.Account {
	return s.store.Snapshot().Accounts
}

// Portfolios returns a deep copy of the cached portfolio records.
func (s *DashboardService) Portfolios() []model.Portfolio {
	return s.store.Snapshot().Portfolios
}

// AccountsTable returns the rendered accounts table.
func (s *DashboardService) AccountsTable() *render.Table {
	return s.accountsTable
}

// PortfoliosTable returns the rendered portfolio overview table.
func (s *DashboardService) PortfoliosTable() *render.Table {
	return s.portfoliosTable
}

// ExpandPortfolio renders the detail table for one portfolio. Cached
// positions render immediately; otherwise the detail is fetched from the
// upstream first. Pending detail updates flush once the rows exist.
func (s *DashboardService) ExpandPortfolio(ctx context.Context, uuid string) (*render.Table, []model.Position, error) {
	if _, ok := s.store.Portfolio(uuid); !ok {
		return nil, nil, apperrors.ErrPortfolioNotFound
	}

	positions, cached := s.store.PortfolioPositions(uuid)
	if !cached {
		raw, err := s.upstream.FetchPositions(ctx, uuid)
		if err != nil {
			return nil, nil, err
		}
		positions = normalize.NormalizePositions(raw, uuid)
		s.store.SetPortfolioPositions(uuid, positions)
	}

	view := s.detailView(uuid)
	s.renderPositions(view.table, positions)
	view.reconciler.FlushPending()
	return view.table, positions, nil
}

// CollapsePortfolio drops the rendered detail table. The cached position
// records stay, so re-expanding renders without a fetch.
func (s *DashboardService) CollapsePortfolio(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.details, uuid)
}

// PersistSnapshot saves the current store state for a warm start.
func (s *DashboardService) PersistSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	snap := s.store.Snapshot()
	snap.LastFileUpdate = s.LastFileUpdate()
	return s.snapshots.Save(ctx, snap)
}

// RestoreSnapshot loads the persisted store state and renders it, so the
// dashboard serves cached data before the first refresh completes.
func (s *DashboardService) RestoreSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return apperrors.ErrSnapshotNotFound
	}
	snap, savedAt, err := s.snapshots.Load(ctx)
	if err != nil {
		return err
	}

	s.setAccounts(snap.Accounts)
	s.setPortfolios(snap.Portfolios)
	if snap.LastFileUpdate != "" {
		s.mu.Lock()
		s.lastFileUpdate = snap.LastFileUpdate
		s.mu.Unlock()
	}
	s.log.Info().Time("saved_at", savedAt).Msg("dashboard state restored from snapshot")
	return nil
}

// Health summarizes the service state.
type Health struct {
	Accounts       int    `json:"accounts"`
	Portfolios     int    `json:"portfolios"`
	LastFileUpdate string `json:"last_file_update,omitempty"`
	UpstreamPull   bool   `json:"upstream_pull"`
}

// Health reports cache sizes and upstream mode.
func (s *DashboardService) Health() Health {
	snap := s.store.Snapshot()
	return Health{
		Accounts:       len(snap.Accounts),
		Portfolios:     len(snap.Portfolios),
		LastFileUpdate: s.LastFileUpdate(),
		UpstreamPull:   s.upstream != nil && s.upstream.Enabled(),
	}
}

// setAccounts replaces the cached accounts and reconciles the table.
func (s *DashboardService) setAccounts(accounts []model.Account) {
	s.store.SetAccounts(accounts)

	updates := make([]reconcile.RowUpdate, 0, len(accounts))
	keep := make(map[string]bool, len(accounts))
	for _, acc := range accounts {
		if acc.UUID == "" {
			continue
		}
		keep[acc.UUID] = true
		if _, exists := s.accountsTable.LocateRow(acc.UUID); !exists {
			// New rows render whole, without the changed-value flash.
			s.accountsTable.SetRow(acc.UUID, render.AccountRowAttrs(acc), render.AccountCells(acc))
		} else {
			updates = append(updates, render.AccountUpdate(acc))
		}
		s.observeAccount(acc)
	}
	s.removeStale(s.accountsTable, keep)
	s.accountsRec.Apply(updates)
	s.accountsTable.WriteFooter(render.AccountFooterCells(s.accountsTable))
}

// setPortfolios replaces the cached portfolios and reconciles the table.
func (s *DashboardService) setPortfolios(portfolios []model.Portfolio) {
	s.store.SetPortfolios(portfolios)

	updates := make([]reconcile.RowUpdate, 0, len(portfolios))
	keep := make(map[string]bool, len(portfolios))
	for _, p := range portfolios {
		if p.UUID == "" {
			continue
		}
		keep[p.UUID] = true
		if _, exists := s.portfoliosTable.LocateRow(p.UUID); !exists {
			s.portfoliosTable.SetRow(p.UUID, render.PortfolioRowAttrs(p), render.PortfolioCells(p))
		} else {
			updates = append(updates, render.PortfolioUpdate(p))
		}
		s.observePortfolio(p)

		if p.Positions != nil {
			s.store.SetPortfolioPositions(p.UUID, p.Positions)
		}
	}
	s.removeStale(s.portfoliosTable, keep)
	s.portfoliosRec.Apply(updates)
	s.portfoliosTable.WriteFooter(render.PortfolioFooterCells(s.portfoliosTable))
}

func (s *DashboardService) removeStale(table *render.Table, keep map[string]bool) {
	for _, key := range table.Keys() {
		if !keep[key] {
			table.RemoveRow(key)
		}
	}
}

// detailView returns the rendered detail view for a portfolio, creating it
// on first expansion.
func (s *DashboardService) detailView(uuid string) *detailView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.details[uuid]
	if !ok {
		table := render.NewTable("positions", render.PositionColumns)
		view = &detailView{
			table: table,
			reconciler: reconcile.New(reconcile.Config{
				Target:    table,
				Scheduler: s.sched,
				Footer:    render.PositionFooterCells,
				Logger:    s.log,
			}),
		}
		s.details[uuid] = view
	}
	return view
}

// applyDetail reconciles new positions into an open detail view. Collapsed
// portfolios have no view; the cache update alone is enough for them.
func (s *DashboardService) applyDetail(uuid string, positions []model.Position) {
	s.mu.Lock()
	view, open := s.details[uuid]
	s.mu.Unlock()
	if !open {
		return
	}

	updates := make([]reconcile.RowUpdate, 0, len(positions))
	keep := make(map[string]bool, len(positions))
	for _, pos := range positions {
		keep[pos.SecurityUUID] = true
		if _, exists := view.table.LocateRow(pos.SecurityUUID); !exists {
			view.table.SetRow(pos.SecurityUUID, render.PositionRowAttrs(pos), render.PositionCells(pos))
		} else {
			updates = append(updates, render.PositionUpdate(pos))
		}
	}
	s.removeStale(view.table, keep)
	view.reconciler.Apply(updates)
	view.table.WriteFooter(render.PositionFooterCells(view.table))
}

// renderPositions fully renders a detail table from cached records.
func (s *DashboardService) renderPositions(table *render.Table, positions []model.Position) {
	keep := make(map[string]bool, len(positions))
	for _, pos := range positions {
		keep[pos.SecurityUUID] = true
		table.SetRow(pos.SecurityUUID, render.PositionRowAttrs(pos), render.PositionCells(pos))
	}
	s.removeStale(table, keep)
	table.WriteFooter(render.PositionFooterCells(table))
}

func (s *DashboardService) broadcast(dataType string, data json.RawMessage) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(push.Envelope{DataType: dataType, EntryID: s.entryID, Data: data})
}

func (s *DashboardService) observeAccount(acc model.Account) {
	if s.notifier != nil {
		s.notifier.ObserveAccount(acc)
	}
}

func (s *DashboardService) observePortfolio(p model.Portfolio) {
	if s.notifier != nil {
		s.notifier.ObservePortfolio(p)
	}
}

func (s *DashboardService) observePosition(pos model.Position) {
	if s.notifier != nil {
		s.notifier.ObservePosition(pos)
	}
}
