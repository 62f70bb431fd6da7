// Package store holds the last-known normalized dashboard records for one
// dashboard instance. The store is created per instance and passed by
// reference into the pipeline; there are no package-level caches. Readers
// always receive deep copies, never references into live cache memory.
package store

import (
	"sync"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
)

// Store caches accounts, portfolios and per-portfolio position detail.
// All methods are safe for concurrent use; writes come from the pipeline,
// reads from HTTP handlers.
type Store struct {
	mu sync.RWMutex

	accounts []model.Account

	portfolios     map[string]model.Portfolio
	portfolioOrder []string

	// positionDetails is a separate cache keyed by portfolio UUID, holding
	// the expanded detail list. It is independent of the embedded positions
	// on the portfolio record itself.
	positionDetails map[string][]model.Position
}

// New creates an empty store.
func New() *Store {
	return &Store{
		portfolios:      make(map[string]model.Portfolio),
		positionDetails: make(map[string][]model.Position),
	}
}

// Snapshot is a deep-copied view of the cached collections. LastFileUpdate
// is not tracked by the store; the service fills it when persisting.
type Snapshot struct {
	Accounts       []model.Account
	Portfolios     []model.Portfolio
	LastFileUpdate string
}

// SetAccounts replaces the entire accounts collection. Entries without a
// UUID are dropped.
func (s *Store) SetAccounts(accounts []model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = s.accounts[:0]
	for _, acc := range accounts {
		if acc.UUID == "" {
			continue
		}
		s.accounts = append(s.accounts, acc.Clone())
	}
}

// SetPortfolios replaces the entire portfolios collection, keyed by UUID.
// Entries without a resolvable UUID are dropped.
func (s *Store) SetPortfolios(portfolios []model.Portfolio) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.portfolios = make(map[string]model.Portfolio, len(portfolios))
	s.portfolioOrder = s.portfolioOrder[:0]
	for _, p := range portfolios {
		if p.UUID == "" {
			continue
		}
		if _, exists := s.portfolios[p.UUID]; !exists {
			s.portfolioOrder = append(s.portfolioOrder, p.UUID)
		}
		s.portfolios[p.UUID] = p.Clone()
	}
}

// MergePortfolios upserts incoming portfolio records. Incoming fields
// override prior fields, but the prior Performance, DataState and embedded
// Positions survive when the incoming record does not carry them, so a
// partial push update never clobbers cached sub-structures.
func (s *Store) MergePortfolios(portfolios []model.Portfolio) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, incoming := range portfolios {
		if incoming.UUID == "" {
			continue
		}
		merged := incoming.Clone()
		if prior, exists := s.portfolios[incoming.UUID]; exists {
			if merged.Performance == nil {
				merged.Performance = prior.Performance
			}
			if merged.DataState == nil {
				merged.DataState = prior.DataState
			}
			if merged.Positions == nil {
				merged.Positions = prior.Positions
			}
		} else {
			s.portfolioOrder = append(s.portfolioOrder, incoming.UUID)
		}
		s.portfolios[incoming.UUID] = merged
	}
}

// Portfolio returns a deep copy of a single cached portfolio.
func (s *Store) Portfolio(uuid string) (model.Portfolio, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.portfolios[uuid]
	if !ok {
		return model.Portfolio{}, false
	}
	return p.Clone(), true
}

// SetPortfolioPositions replaces the cached position detail for a portfolio.
// Passing an empty or nil list clears the cached detail.
func (s *Store) SetPortfolioPositions(uuid string, positions []model.Position) {
	if uuid == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(positions) == 0 {
		delete(s.positionDetails, uuid)
		return
	}
	detail := make([]model.Position, len(positions))
	for i, pos := range positions {
		detail[i] = pos.Clone()
	}
	s.positionDetails[uuid] = detail
}

// PortfolioPositions returns a deep copy of the cached detail list for a
// portfolio, reporting false when nothing is cached.
func (s *Store) PortfolioPositions(uuid string) ([]model.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	detail, ok := s.positionDetails[uuid]
	if !ok {
		return nil, false
	}
	positions := make([]model.Position, len(detail))
	for i, pos := range detail {
		positions[i] = pos.Clone()
	}
	return positions, true
}

// Snapshot exports deep-cloned copies of both top-level collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Accounts:   make([]model.Account, len(s.accounts)),
		Portfolios: make([]model.Portfolio, 0, len(s.portfolioOrder)),
	}
	for i, acc := range s.accounts {
		snap.Accounts[i] = acc.Clone()
	}
	for _, uuid := range s.portfolioOrder {
		if p, ok := s.portfolios[uuid]; ok {
			snap.Portfolios = append(snap.Portfolios, p.Clone())
		}
	}
	return snap
}

// Clear empties every cached collection. Used for hard resets when the
// dashboard is reconfigured.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = nil
	s.portfolios = make(map[string]model.Portfolio)
	s.portfolioOrder = nil
	s.positionDetails = make(map[string][]model.Position)
}
