package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/api/response"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/push"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/validation"
)

// maxPushBody caps the accepted push payload size.
const maxPushBody = 4 << 20

// IngestHandler accepts push envelopes and routes them into the pipeline.
type IngestHandler struct {
	dispatcher *push.Dispatcher
	log        zerolog.Logger
}

// NewIngestHandler creates an ingest handler.
func NewIngestHandler(dispatcher *push.Dispatcher, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{dispatcher: dispatcher, log: log}
}

// Push applies a single envelope or a batch. Envelopes for foreign entries
// are skipped silently; a failing envelope does not block the rest.
func (h *IngestHandler) Push(w http.ResponseWriter, r *http.Request) {
	body, err := readEnvelopes(r)
	if err != nil {
		verr := validation.New()
		verr.Add("body", "must be a push envelope or an array of envelopes")
		response.Error(w, verr)
		return
	}

	verr := validation.New()
	for _, env := range body {
		if env.DataType == "" {
			verr.Add("data_type", "is required")
			break
		}
	}
	if verr.HasErrors() {
		response.Error(w, verr)
		return
	}

	if err := h.dispatcher.DispatchBatch(body); err != nil {
		h.log.Warn().Err(err).Msg("push batch partially failed")
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"status": "applied", "count": len(body)})
}

// readEnvelopes buffers the body and accepts either a single envelope or
// an array of envelopes.
func readEnvelopes(r *http.Request) ([]push.Envelope, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPushBody))
	if err != nil {
		return nil, err
	}

	var batch []push.Envelope
	if err := json.Unmarshal(body, &batch); err == nil {
		return batch, nil
	}
	var single push.Envelope
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []push.Envelope{single}, nil
}
