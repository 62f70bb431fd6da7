package normalize

import (
	"fmt"
	"strings"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
)

// NormalizeAccount shapes a raw payload entry into an Account record.
// A non-object entry or one without a uuid is rejected with a reason.
func NormalizeAccount(raw any) (model.Account, error) {
	obj, ok := asObject(raw)
	if !ok {
		return model.Account{}, fmt.Errorf("account: %w", apperrors.ErrNotAnObject)
	}

	uuid, ok := stringField(obj, "uuid")
	if !ok {
		return model.Account{}, fmt.Errorf("account: %w: uuid", apperrors.ErrMissingRequiredField)
	}
	name, ok := stringField(obj, "name")
	if !ok {
		return model.Account{}, fmt.Errorf("account: %w: name", apperrors.ErrMissingRequiredField)
	}

	acc := model.Account{
		UUID:          uuid,
		Name:          name,
		Balance:       numberPtr(obj, "balance"),
		CoverageRatio: coverageRatio(obj),
		FxRate:        numberPtr(obj, "fx_rate"),
	}

	if code, ok := stringField(obj, "currency_code"); ok && len(code) == 3 {
		acc.CurrencyCode = strings.ToUpper(code)
	}
	if v, ok := numberField(obj, "orig_balance"); ok {
		acc.OrigBalance = v
	}
	if fx, ok := boolField(obj, "fx_unavailable"); ok {
		acc.FxUnavailable = fx
	}
	if source, ok := stringField(obj, "fx_rate_source"); ok {
		acc.FxRateSource = source
	}
	if ts, ok := stringField(obj, "fx_rate_timestamp"); ok {
		acc.FxRateTimestamp = ts
	}
	if prov, ok := stringField(obj, "provenance"); ok {
		acc.Provenance = prov
	}
	if run, ok := stringField(obj, "metric_run_uuid"); ok {
		acc.MetricRunUUID = run
	}

	// EUR accounts without an explicit converted balance fall back to the
	// native balance; any other account without one is FX-unavailable.
	if acc.Balance == nil {
		if acc.CurrencyCode == "" || acc.CurrencyCode == "EUR" {
			acc.Balance = model.Float64Ptr(acc.OrigBalance)
		} else {
			acc.FxUnavailable = true
		}
	}

	acc.Badges = accountBadges(acc)
	return acc, nil
}

// NormalizeAccounts maps a raw payload array through NormalizeAccount,
// silently dropping entries that fail validation. The element type is
// generic so decoded batches ([]map[string]any) pass through unconverted.
func NormalizeAccounts[T any](raw []T) []model.Account {
	accounts := make([]model.Account, 0, len(raw))
	for _, entry := range raw {
		acc, err := NormalizeAccount(entry)
		if err != nil {
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts
}

// accountBadges derives the display annotations for an account.
func accountBadges(acc model.Account) []string {
	var badges []string
	if acc.FxUnavailable {
		badges = append(badges, "fx-unavailable")
	}
	if acc.CoverageRatio != nil && *acc.CoverageRatio < 1 {
		badges = append(badges, "partial-coverage")
	}
	return badges
}
