package testutil

import (
	"github.com/google/uuid"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
)

// AccountBuilder builds account records for tests.
type AccountBuilder struct {
	account model.Account
}

// NewAccount creates a builder with sensible EUR defaults.
func NewAccount() *AccountBuilder {
	balance := 1000.0
	return &AccountBuilder{account: model.Account{
		UUID:         uuid.New().String(),
		Name:         "Testkonto",
		CurrencyCode: "EUR",
		OrigBalance:  balance,
		Balance:      &balance,
	}}
}

func (b *AccountBuilder) WithUUID(id string) *AccountBuilder {
	b.account.UUID = id
	return b
}

func (b *AccountBuilder) WithName(name string) *AccountBuilder {
	b.account.Name = name
	return b
}

func (b *AccountBuilder) WithBalance(balance float64) *AccountBuilder {
	b.account.Balance = &balance
	b.account.OrigBalance = balance
	return b
}

// WithoutConversion marks the account foreign-currency without a converted
// balance.
func (b *AccountBuilder) WithoutConversion(currency string) *AccountBuilder {
	b.account.CurrencyCode = currency
	b.account.Balance = nil
	b.account.FxUnavailable = true
	b.account.Badges = []string{"fx-unavailable"}
	return b
}

func (b *AccountBuilder) Build() model.Account {
	return b.account.Clone()
}

// PortfolioBuilder builds portfolio records for tests.
type PortfolioBuilder struct {
	portfolio model.Portfolio
}

// NewPortfolio creates a builder with a fully valued portfolio.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{portfolio: model.Portfolio{
		UUID:          uuid.New().String(),
		Name:          "Testdepot",
		PositionCount: 2,
		CurrentValue:  model.Float64Ptr(1100),
		PurchaseSum:   1000,
		GainAbs:       model.Float64Ptr(100),
		GainPct:       model.Float64Ptr(10),
		HasValue:      true,
	}}
}

func (b *PortfolioBuilder) WithUUID(id string) *PortfolioBuilder {
	b.portfolio.UUID = id
	return b
}

func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.portfolio.Name = name
	return b
}

func (b *PortfolioBuilder) WithValue(current float64) *PortfolioBuilder {
	b.portfolio.CurrentValue = model.Float64Ptr(current)
	b.portfolio.HasValue = true
	return b
}

// WithoutValue strips the current value and marks the row FX-unavailable.
func (b *PortfolioBuilder) WithoutValue() *PortfolioBuilder {
	b.portfolio.CurrentValue = nil
	b.portfolio.GainAbs = nil
	b.portfolio.GainPct = nil
	b.portfolio.HasValue = false
	b.portfolio.FxUnavailable = true
	return b
}

func (b *PortfolioBuilder) WithPerformance(gainAbs, gainPct float64) *PortfolioBuilder {
	b.portfolio.Performance = &model.Performance{
		GainAbs:        gainAbs,
		GainPct:        gainPct,
		TotalChangeEUR: gainAbs,
		TotalChangePct: gainPct,
		Source:         model.PerformanceSourceDerived,
	}
	return b
}

func (b *PortfolioBuilder) WithPositions(positions ...model.Position) *PortfolioBuilder {
	b.portfolio.Positions = positions
	b.portfolio.PositionCount = len(positions)
	return b
}

func (b *PortfolioBuilder) Build() model.Portfolio {
	return b.portfolio.Clone()
}

// PositionBuilder builds position records for tests.
type PositionBuilder struct {
	position model.Position
}

// NewPosition creates a builder with the required fields set.
func NewPosition() *PositionBuilder {
	return &PositionBuilder{position: model.Position{
		SecurityUUID:    uuid.New().String(),
		Name:            "Testaktie",
		CurrentHoldings: 10,
		PurchaseValue:   1000,
		CurrentValue:    1250,
		CurrencyCode:    "EUR",
	}}
}

func (b *PositionBuilder) WithUUID(id string) *PositionBuilder {
	b.position.SecurityUUID = id
	return b
}

func (b *PositionBuilder) WithPortfolio(portfolioUUID string) *PositionBuilder {
	b.position.PortfolioUUID = portfolioUUID
	return b
}

func (b *PositionBuilder) WithValues(purchase, current float64) *PositionBuilder {
	b.position.PurchaseValue = purchase
	b.position.CurrentValue = current
	return b
}

func (b *PositionBuilder) Build() model.Position {
	return b.position.Clone()
}
