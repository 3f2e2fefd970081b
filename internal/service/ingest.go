package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/finsync/internal/ledger"
	"github.com/jask/finsync/internal/logger"
)

// CSV sources, used as institution ids of accounts created by an import.
const (
	SourceDKBCSV = "dkb-csv"
	SourceANZCSV = "anz-csv"
)

// IngestService imports bank CSV exports into the ledger. Invalid rows are
// skipped and reported; they never abort the batch.
type IngestService struct {
	Store       LedgerStore
	Categorizer *Categorizer
}

// ImportTarget names the account rows are booked to. An ID matching an
// existing ledger account reuses it; otherwise an account is derived from
// Name.
type ImportTarget struct {
	ID         string
	Name       string
	HolderName string
	Currency   string
}

type IngestResult struct {
	AccountID string  `json:"accountId"`
	Imported  int     `json:"imported"`
	Skipped   int     `json:"skipped"`
	Errors    []error `json:"-"`
}

// Row is one parsed CSV line before tagging. Amounts are signed cents.
type Row struct {
	BookingDate  time.Time
	AmountCents  int64
	Description  string
	Counterparty string
	Category     ledger.Category
	Raw          map[string]string
}

// ImportDKB ingests DKB's semicolon separated German export.
func (s *IngestService) ImportDKB(ctx context.Context, r io.Reader, target ImportTarget) (IngestResult, error) {
	rows, rowErrs, err := ParseDKBCSV(r)
	if err != nil {
		return IngestResult{}, err
	}
	if target.Currency == "" {
		target.Currency = "EUR"
	}
	return s.ingest(ctx, SourceDKBCSV, target, rows, rowErrs)
}

// ImportANZSimple ingests ANZ export with no headers: date, amount, description.
func (s *IngestService) ImportANZSimple(ctx context.Context, r io.Reader, target ImportTarget) (IngestResult, error) {
	if strings.TrimSpace(target.Name) == "" && target.ID == "" {
		target.Name = "ANZ"
	}
	if target.Currency == "" {
		target.Currency = "AUD"
	}
	rows, rowErrs := ParseANZSimple(r)
	return s.ingest(ctx, SourceANZCSV, target, rows, rowErrs)
}

func (s *IngestService) ingest(ctx context.Context, source string, target ImportTarget, rows []Row, rowErrs []error) (IngestResult, error) {
	log := logger.FromContext(ctx).With().Str("source", source).Logger()
	res := IngestResult{Errors: rowErrs}
	for _, e := range rowErrs {
		log.Warn().Err(e).Msg("skipping invalid row")
	}

	l, err := s.Store.Read(ctx)
	if err != nil {
		return res, fmt.Errorf("read ledger: %w", err)
	}
	acct, err := resolveAccount(l, source, target)
	if err != nil {
		return res, err
	}
	res.AccountID = acct.ID

	txs := make([]ledger.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.transaction(acct))
	}
	pass := newBatch(l, s.Categorizer)
	fresh := pass.admit(acct, txs)
	res.Imported = len(fresh)
	res.Skipped = len(txs) - len(fresh)

	l.UpsertAccount(acct)
	l.Transactions = append(l.Transactions, fresh...)
	if err := s.Store.Write(ctx, l); err != nil {
		return res, fmt.Errorf("persist import: %w", err)
	}
	pass.commit(fresh)
	log.Info().
		Str("account_id", acct.ID).
		Int("imported", res.Imported).
		Int("duplicates", res.Skipped).
		Int("invalid", len(rowErrs)).
		Msg("csv import finished")
	return res, nil
}

func (row Row) transaction(acct ledger.Account) ledger.Transaction {
	amount := decimal.New(row.AmountCents, -2).InexactFloat64()
	booking := row.BookingDate
	raw := map[string]string{}
	for k, v := range row.Raw {
		raw[k] = v
	}
	return ledger.Transaction{
		AccountID:    acct.ID,
		Date:         row.BookingDate,
		BookingDate:  &booking,
		Amount:       amount,
		Currency:     acct.Currency,
		Description:  row.Description,
		Counterparty: row.Counterparty,
		Category:     row.Category,
		Direction:    ledger.DirectionFor(amount),
		Raw:          raw,
	}
}

func resolveAccount(l ledger.Ledger, source string, target ImportTarget) (ledger.Account, error) {
	if target.ID != "" {
		if acct, ok := l.AccountByID(target.ID); ok {
			if target.HolderName != "" {
				acct.HolderName = target.HolderName
			}
			return acct, nil
		}
	}
	name := strings.TrimSpace(target.Name)
	if name == "" {
		name = strings.TrimSpace(target.ID)
	}
	if name == "" {
		return ledger.Account{}, errors.New("account name required")
	}
	external := deterministicAccountID(name)
	return ledger.Account{
		ID:            ledger.AccountID(source, external),
		ExternalID:    external,
		InstitutionID: source,
		Name:          name,
		Type:          ledger.AccountChecking,
		Currency:      target.Currency,
		HolderName:    strings.TrimSpace(target.HolderName),
	}, nil
}

func deterministicAccountID(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// dkbColumns lists accepted header spellings per field, newest export first.
var dkbColumns = map[string][]string{
	"date":     {"Buchungsdatum", "Buchungstag"},
	"status":   {"Status"},
	"payer":    {"Zahlungspflichtige*r", "Auftraggeber / Begünstigter"},
	"payee":    {"Zahlungsempfänger*in", "Auftraggeber / Begünstigter"},
	"purpose":  {"Verwendungszweck"},
	"type":     {"Umsatztyp", "Buchungstext"},
	"amount":   {"Betrag (€)", "Betrag (EUR)", "Betrag"},
	"iban":     {"IBAN", "Kontonummer"},
	"mandate":  {"Mandatsreferenz"},
	"creditor": {"Gläubiger-ID"},
}

// ParseDKBCSV reads the DKB export. Preamble lines before the header row are
// ignored, and rows not yet booked are skipped silently. Only a missing
// header is fatal; bad rows come back as row errors.
func ParseDKBCSV(r io.Reader) ([]Row, []error, error) {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.Comma = ';'
	csvr.FieldsPerRecord = -1
	csvr.LazyQuotes = true

	var cols map[string]int
	var rows []Row
	var rowErrs []error
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if cols == nil {
			cols = dkbHeader(rec)
			continue
		}
		if isBlank(rec) {
			continue
		}
		row, ok, err := dkbRow(rec, cols)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if ok {
			rows = append(rows, row)
		}
	}
	if cols == nil {
		return nil, rowErrs, errors.New("dkb csv: header row not found")
	}
	return rows, rowErrs, nil
}

func dkbHeader(rec []string) map[string]int {
	index := make(map[string]int, len(rec))
	for i, h := range rec {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	cols := map[string]int{}
	for field, names := range dkbColumns {
		for _, n := range names {
			if i, ok := index[n]; ok {
				cols[field] = i
				break
			}
		}
	}
	if _, ok := cols["date"]; !ok {
		return nil
	}
	if _, ok := cols["amount"]; !ok {
		return nil
	}
	return cols
}

func sharedPartyColumn(cols map[string]int) bool {
	payer, ok1 := cols["payer"]
	payee, ok2 := cols["payee"]
	return ok1 && ok2 && payer == payee
}

func dkbRow(rec []string, cols map[string]int) (Row, bool, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	if st := field("status"); st != "" && !strings.EqualFold(st, "Gebucht") {
		return Row{}, false, nil
	}
	date, err := parseGermanDate(field("date"))
	if err != nil {
		return Row{}, false, fmt.Errorf("date: %w", err)
	}
	cents, err := germanAmountToCents(field("amount"))
	if err != nil {
		return Row{}, false, fmt.Errorf("amount: %w", err)
	}

	payer, payee := field("payer"), field("payee")
	if sharedPartyColumn(cols) {
		// Legacy exports name only the other party; the holder's side stays unknown.
		if cents < 0 {
			payer = ""
		} else {
			payee = ""
		}
	}
	counterparty := payer
	if cents < 0 {
		counterparty = payee
	}
	raw := map[string]string{ledger.RawSource: SourceDKBCSV}
	if payee != "" {
		raw[ledger.RawCreditorName] = payee
	}
	if payer != "" {
		raw[ledger.RawDebtorName] = payer
	}
	for _, k := range []string{"type", "iban", "mandate", "creditor"} {
		if v := field(k); v != "" {
			raw[k] = v
		}
	}
	desc := field("purpose")
	if desc == "" {
		desc = field("type")
	}
	return Row{
		BookingDate:  date,
		AmountCents:  cents,
		Description:  desc,
		Counterparty: counterparty,
		Raw:          raw,
	}, true, nil
}

// ParseANZSimple reads the headerless "date, amount, description" export.
func ParseANZSimple(r io.Reader) ([]Row, []error) {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	var rows []Row
	var rowErrs []error
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if isBlank(rec) {
			continue
		}
		if len(rec) < 3 {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: expected 3 columns (date, amount, description)", line))
			continue
		}
		date, err := calendarDate("2/01/2006", rec[0])
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d date: %w", line, err))
			continue
		}
		cents, err := dollarsToCents(rec[1])
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		rows = append(rows, Row{
			BookingDate: date,
			AmountCents: cents,
			Description: strings.TrimSpace(rec[2]),
			Raw:         map[string]string{ledger.RawSource: SourceANZCSV},
		})
	}
	return rows, rowErrs
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// calendarDate parses a date-only value as a UTC calendar day.
func calendarDate(layout, s string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseGermanDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := calendarDate("02.01.2006", s); err == nil {
		return t, nil
	}
	return calendarDate("02.01.06", s)
}

func dollarsToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return toCents(s)
}

// germanAmountToCents parses "1.234,56 €" style amounts.
func germanAmountToCents(s string) (int64, error) {
	s = strings.NewReplacer("€", "", "EUR", "", "\u00a0", "", " ", "", ".", "").Replace(s)
	s = strings.ReplaceAll(s, ",", ".")
	return toCents(s)
}

func toCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
