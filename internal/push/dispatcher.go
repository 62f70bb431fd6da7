package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
)

// HandlerFunc applies one decoded push payload to the pipeline.
type HandlerFunc func(data json.RawMessage) error

// Dispatcher routes envelopes to the handler registered for their data
// type. Envelopes addressed to a different entry are ignored; the caller
// decides whether that is worth logging.
type Dispatcher struct {
	entryID  string
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	log      zerolog.Logger
}

// NewDispatcher creates a dispatcher bound to one dashboard entry.
func NewDispatcher(entryID string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		entryID:  entryID,
		handlers: make(map[string]HandlerFunc),
		log:      log,
	}
}

// Register binds a handler to a data type, replacing any previous one.
func (d *Dispatcher) Register(dataType string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[dataType] = h
}

// Dispatch routes one envelope. An envelope addressed to a different entry
// returns ErrEntryMismatch, an unregistered data type ErrUnknownDataType;
// handler failures are wrapped with the data type.
func (d *Dispatcher) Dispatch(env Envelope) error {
	if env.EntryID != "" && d.entryID != "" && env.EntryID != d.entryID {
		return fmt.Errorf("%w: envelope for %q, dispatcher bound to %q",
			apperrors.ErrEntryMismatch, env.EntryID, d.entryID)
	}

	d.mu.RLock()
	handler, ok := d.handlers[env.DataType]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownDataType, env.DataType)
	}

	if err := handler(env.Data); err != nil {
		return fmt.Errorf("applying %s push: %w", env.DataType, err)
	}
	return nil
}

// DispatchBatch routes a batch of envelopes with per-envelope isolation.
// A failing envelope never blocks the remaining ones; entry mismatches are
// logged and skipped, other failures are joined into the returned error.
func (d *Dispatcher) DispatchBatch(envs []Envelope) error {
	var errs []error
	for _, env := range envs {
		err := d.Dispatch(env)
		if err == nil {
			continue
		}
		if errors.Is(err, apperrors.ErrEntryMismatch) {
			d.log.Debug().
				Str("data_type", env.DataType).
				Str("entry_id", env.EntryID).
				Msg("ignoring push for foreign entry")
			continue
		}
		d.log.Warn().Err(err).Str("data_type", env.DataType).Msg("push apply failed")
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
