package reconcile

import (
	"math"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	// currencyEpsilon is the tolerance for comparing currency cells. Values
	// closer than half a cent are the same value with formatting jitter.
	currencyEpsilon = 5e-3

	// FlashDuration is how long a patched cell stays in the changed state.
	FlashDuration = 800 * time.Millisecond
)

// RetryPolicy bounds how long a pending update waits for its row to appear.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy retries every half second for up to ten attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 10, Delay: 500 * time.Millisecond}
}

// FooterFunc recomputes the footer cells from the target's current rows.
// It runs after a batch of patches so the footer always reflects what the
// target actually displays, not what the update claimed.
type FooterFunc func(target RenderTarget) map[string]Cell

// Config wires a Reconciler. Target is required; zero-value fields fall
// back to the runtime scheduler, the default retry policy and a disabled
// logger.
type Config struct {
	Target    RenderTarget
	Scheduler Scheduler
	Footer    FooterFunc
	Retry     RetryPolicy
	Logger    zerolog.Logger
}

// Reconciler diffs incoming row updates against a render target and patches
// only the cells that changed. Safe for concurrent use; timer callbacks and
// pipeline goroutines share one lock.
type Reconciler struct {
	mu      sync.Mutex
	target  RenderTarget
	sched   Scheduler
	footer  FooterFunc
	policy  RetryPolicy
	pending *cache.Cache
	log     zerolog.Logger
}

// New creates a Reconciler for one render target.
func New(cfg Config) *Reconciler {
	if cfg.Scheduler == nil {
		cfg.Scheduler = TimerScheduler{}
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	// Pending entries outlive the full retry budget so a slow chain never
	// loses its payload to cache expiry.
	ttl := cfg.Retry.Delay * time.Duration(cfg.Retry.MaxAttempts+2)
	return &Reconciler{
		target:  cfg.Target,
		sched:   cfg.Scheduler,
		footer:  cfg.Footer,
		policy:  cfg.Retry,
		pending: cache.New(ttl, 2*ttl),
		log:     cfg.Logger,
	}
}

// Apply reconciles a batch of row updates. Rows present in the target are
// patched cell by cell; rows not rendered yet are queued for retry. The
// footer is recomputed once per batch, and only when something changed.
func (r *Reconciler) Apply(updates []RowUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patched := false
	for _, update := range updates {
		if update.Key == "" {
			continue
		}
		row, ok := r.target.LocateRow(update.Key)
		if !ok {
			r.queue(update)
			continue
		}
		if r.applyRow(row, update) {
			patched = true
		}
	}
	if patched {
		r.writeFooter()
	}
}

// FlushPending applies every queued update whose row has since appeared.
// Called when a collapsed detail panel is expanded and its rows render.
func (r *Reconciler) FlushPending() {
	r.mu.Lock()
	defer r.mu.Unlock()

	patched := false
	for key, item := range r.pending.Items() {
		update, ok := item.Object.(RowUpdate)
		if !ok {
			r.pending.Delete(key)
			continue
		}
		row, found := r.target.LocateRow(key)
		if !found {
			continue
		}
		r.pending.Delete(key)
		if r.applyRow(row, update) {
			patched = true
		}
	}
	if patched {
		r.writeFooter()
	}
}

// PendingCount reports how many updates are queued for absent rows.
func (r *Reconciler) PendingCount() int {
	return r.pending.ItemCount()
}

// applyRow patches the cells of one row that differ from the update.
// Returns whether any cell was written. Caller holds the lock.
func (r *Reconciler) applyRow(row Row, update RowUpdate) bool {
	patched := false
	for column, next := range update.Cells {
		current, exists := row.Cell(column)
		if exists && cellsEqual(current, next) {
			continue
		}
		r.target.PatchCell(update.Key, column, next)
		r.flash(update.Key, column)
		patched = true
	}
	return patched
}

// flash marks a cell changed and schedules the clear.
func (r *Reconciler) flash(key, column string) {
	r.target.SetFlash(key, column, true)
	r.sched.AfterFunc(FlashDuration, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.target.SetFlash(key, column, false)
	})
}

func (r *Reconciler) writeFooter() {
	if r.footer == nil {
		return
	}
	r.target.WriteFooter(r.footer(r.target))
}

// queue stores an update for a row that is not rendered yet. A newer update
// for the same key overwrites the queued one; the running retry chain picks
// up whatever payload is current when it fires.
func (r *Reconciler) queue(update RowUpdate) {
	if _, running := r.pending.Get(update.Key); running {
		r.pending.SetDefault(update.Key, update)
		return
	}
	r.pending.SetDefault(update.Key, update)
	r.scheduleRetry(update.Key, 0)
}

func (r *Reconciler) scheduleRetry(key string, attempt int) {
	r.sched.AfterFunc(r.policy.Delay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		item, ok := r.pending.Get(key)
		if !ok {
			return
		}
		update, ok := item.(RowUpdate)
		if !ok {
			r.pending.Delete(key)
			return
		}
		if row, found := r.target.LocateRow(key); found {
			r.pending.Delete(key)
			if r.applyRow(row, update) {
				r.writeFooter()
			}
			return
		}
		if attempt+1 >= r.policy.MaxAttempts {
			r.pending.Delete(key)
			r.log.Debug().
				Str("row", key).
				Int("attempts", attempt+1).
				Msg("abandoning pending update, row never rendered")
			return
		}
		r.scheduleRetry(key, attempt+1)
	})
}

// cellsEqual reports whether two cells display the same value. Currency
// cells compare numerically within the epsilon; everything else compares
// by rendered text.
func cellsEqual(a, b Cell) bool {
	if a.HasValue != b.HasValue || a.Tone != b.Tone {
		return false
	}
	if b.Kind == CellCurrency && a.HasValue && b.HasValue {
		return math.Abs(a.Value-b.Value) < currencyEpsilon
	}
	return a.Text == b.Text
}
