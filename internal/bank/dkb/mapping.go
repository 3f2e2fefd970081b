package dkb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/finsync/internal/ledger"
)

type money struct {
	CurrencyCode string `json:"currencyCode"`
	Value        string `json:"value"`
}

type product struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
}

type accountAttributes struct {
	IBAN         string  `json:"iban"`
	HolderName   string  `json:"holderName"`
	CurrencyCode string  `json:"currencyCode"`
	Product      product `json:"product"`
	Balance      *money  `json:"balance"`
}

type accountResource struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Attributes accountAttributes `json:"attributes"`
}

type accountsResponse struct {
	Data []accountResource `json:"data"`
}

type accountResponse struct {
	Data accountResource `json:"data"`
}

type party struct {
	Name string `json:"name"`
	IBAN string `json:"iban"`
}

type transactionAttributes struct {
	Status          string `json:"status"`
	BookingDate     string `json:"bookingDate"`
	ValueDate       string `json:"valueDate"`
	Description     string `json:"description"`
	TransactionType string `json:"transactionType"`
	Amount          *money `json:"amount"`
	Creditor        *party `json:"creditor"`
	Debtor          *party `json:"debtor"`
}

type transactionResource struct {
	ID         string                `json:"id"`
	Attributes transactionAttributes `json:"attributes"`
}

type pageLinks struct {
	Next string `json:"next"`
}

type transactionsResponse struct {
	Data  []transactionResource `json:"data"`
	Links *pageLinks            `json:"links"`
}

// accountTypes maps DKB product types to the unified enum. Unknown types are
// treated as checking accounts.
var accountTypes = map[string]ledger.AccountType{
	"checking-account":         ledger.AccountChecking,
	"checking-account-private": ledger.AccountChecking,
	"savings-account":          ledger.AccountSavings,
	"tagesgeld":                ledger.AccountSavings,
	"credit-card":              ledger.AccountCredit,
	"debit-card":               ledger.AccountChecking,
	"brokerage-account":        ledger.AccountInvestment,
	"depot":                    ledger.AccountInvestment,
}

func mapAccountType(productType string) ledger.AccountType {
	if t, ok := accountTypes[strings.ToLower(strings.TrimSpace(productType))]; ok {
		return t
	}
	return ledger.AccountChecking
}

func mapAccount(res accountResource) (ledger.Account, error) {
	if strings.TrimSpace(res.ID) == "" {
		return ledger.Account{}, errors.New("missing id")
	}
	a := res.Attributes
	name := strings.TrimSpace(a.Product.DisplayName)
	if name == "" {
		name = a.IBAN
	}
	if name == "" {
		name = res.ID
	}
	currency := a.CurrencyCode
	if currency == "" && a.Balance != nil {
		currency = a.Balance.CurrencyCode
	}
	if currency == "" {
		currency = "EUR"
	}
	return ledger.Account{
		ID:            ledger.AccountID(InstitutionID, res.ID),
		ExternalID:    res.ID,
		InstitutionID: InstitutionID,
		Name:          name,
		Type:          mapAccountType(a.Product.Type),
		Currency:      currency,
		IBAN:          a.IBAN,
		HolderName:    strings.TrimSpace(a.HolderName),
	}, nil
}

func mapTransaction(accountID string, res transactionResource) (ledger.Transaction, error) {
	a := res.Attributes
	if a.Amount == nil {
		return ledger.Transaction{}, errors.New("missing amount")
	}
	amount, err := parseAmount(a.Amount.Value)
	if err != nil {
		return ledger.Transaction{}, err
	}

	var booking *time.Time
	if a.BookingDate != "" {
		bd, err := time.Parse(ledger.DateLayout, a.BookingDate)
		if err != nil {
			return ledger.Transaction{}, fmt.Errorf("bookingDate %q: %w", a.BookingDate, err)
		}
		booking = &bd
	}
	var date time.Time
	switch {
	case booking != nil:
		date = *booking
	case a.ValueDate != "":
		date, err = time.Parse(ledger.DateLayout, a.ValueDate)
		if err != nil {
			return ledger.Transaction{}, fmt.Errorf("valueDate %q: %w", a.ValueDate, err)
		}
	default:
		return ledger.Transaction{}, errors.New("missing bookingDate and valueDate")
	}

	direction := ledger.DirectionFor(amount)
	raw := map[string]string{ledger.RawSource: "dkb-api"}
	if res.ID != "" {
		raw["externalId"] = res.ID
	}
	if a.TransactionType != "" {
		raw["transactionType"] = a.TransactionType
	}
	creditor, debtor := partyName(a.Creditor), partyName(a.Debtor)
	if creditor != "" {
		raw[ledger.RawCreditorName] = creditor
	}
	if debtor != "" {
		raw[ledger.RawDebtorName] = debtor
	}

	counterparty := debtor
	if direction == ledger.Debit {
		counterparty = creditor
	}

	currency := a.Amount.CurrencyCode
	if currency == "" {
		currency = "EUR"
	}
	return ledger.Transaction{
		AccountID:    accountID,
		Date:         date,
		BookingDate:  booking,
		Amount:       amount,
		Currency:     currency,
		Description:  strings.TrimSpace(a.Description),
		Counterparty: counterparty,
		Direction:    direction,
		Raw:          raw,
	}, nil
}

func partyName(p *party) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Name)
}

func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}
