package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given UUID is not cached.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrAccountNotFound indicates that an account with the given UUID is not cached.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPositionsNotFound indicates that no position detail is cached for a portfolio.
	ErrPositionsNotFound = errors.New("portfolio positions not found")

	// ErrSnapshotNotFound indicates that no persisted snapshot exists for an entity.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSettingNotFound indicates that a settings key has never been written.
	ErrSettingNotFound = errors.New("setting not found")
)

// Normalization errors represent raw payload entries that cannot be shaped
// into canonical records. They carry the rejection reason for a single entry
// and never abort the surrounding batch.
var (
	// ErrNotAnObject indicates that a raw payload entry is not a JSON object.
	ErrNotAnObject = errors.New("payload entry is not an object")

	// ErrMissingRequiredField indicates that a required field is missing,
	// empty after trimming, or not a finite number.
	ErrMissingRequiredField = errors.New("missing required field")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrEntryMismatch indicates that a push envelope carries an entry_id
	// that does not match the configured dashboard entry.
	ErrEntryMismatch = errors.New("push envelope entry_id does not match configured entry")

	// ErrUnknownDataType indicates a push envelope with an unrecognized data_type.
	ErrUnknownDataType = errors.New("unknown push data_type")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data. These errors indicate that an operation failed, but not due
// to missing entities or validation issues.
var (
	// Upstream operation errors
	ErrUpstreamUnavailable     = errors.New("upstream request failed")
	ErrFailedToFetchAccounts   = errors.New("failed to fetch accounts")
	ErrFailedToFetchPortfolios = errors.New("failed to fetch portfolios")
	ErrFailedToFetchPositions  = errors.New("failed to fetch portfolio positions")

	// Persistence operation errors
	ErrFailedToPersistSnapshot = errors.New("failed to persist snapshot")
	ErrFailedToLoadSnapshot    = errors.New("failed to load snapshot")
	ErrFailedToStoreSetting    = errors.New("failed to store setting")
	ErrFailedToLoadSetting     = errors.New("failed to load setting")
)
