// Package push routes incoming data pushes to the dashboard pipeline and
// fans applied updates out to connected stream clients.
package push

import "encoding/json"

// Data types carried by push envelopes.
const (
	DataAccounts       = "accounts"
	DataPortfolios     = "portfolio_values"
	DataPositions      = "portfolio_positions"
	DataLastFileUpdate = "last_file_update"

	// DataDiagnostics is outbound only; no ingest handler accepts it.
	DataDiagnostics = "diagnostics"
)

// Envelope is one push message: a data type, the originating entry and the
// raw payload. The payload stays raw until the registered handler for the
// data type decodes it.
type Envelope struct {
	DataType string          `json:"data_type"`
	EntryID  string          `json:"entry_id,omitempty"`
	Data     json.RawMessage `json:"data"`
}
