package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/finsync/internal/ledger"
	"github.com/jask/finsync/internal/logger"
)

const dkbExport = `"Girokonto";"DE02120300000000202051"
""
"Kontostand vom 31.01.2025:";"1.234,56 €"
""
"Buchungsdatum";"Wertstellung";"Status";"Zahlungspflichtige*r";"Zahlungsempfänger*in";"Verwendungszweck";"Umsatztyp";"IBAN";"Betrag (€)";"Gläubiger-ID";"Mandatsreferenz";"Kundenreferenz"
"31.01.25";"31.01.25";"Gebucht";"ACME GmbH";"Max Mustermann";"Gehalt Januar";"Eingang";"DE89370400440532013000";"3.100,00";"";"";""
"15.01.25";"15.01.25";"Gebucht";"Max Mustermann";"Netflix International B.V.";"Netflix Monatsabo";"Ausgang";"NL00BANK0123456789";"-12,99 €";"NL12ZZZ";"M-42";""
"14.01.25";"14.01.25";"Gebucht";"Max Mustermann";"Max Mustermann";"Sparen";"Ausgang";"DE02120300000000202099";"-500,00";"";"";""
"13.01.25";"13.01.25";"Vorgemerkt";"Max Mustermann";"REWE";"Kartenzahlung";"Ausgang";"";"-20,00";"";"";""
"12.01.2025";"12.01.25";"Gebucht";"Max Mustermann";"Shell";"Shell Tankstelle";"Ausgang";"";"-61,30";"";"";""
"kaputt";"";"Gebucht";"";"";"";"";"";"-1,00";"";"";""
"11.01.25";"";"Gebucht";"";"";"";"";"";"abc";"";"";""
`

func TestParseDKBCSV(t *testing.T) {
	rows, rowErrs, err := ParseDKBCSV(strings.NewReader(dkbExport))
	require.NoError(t, err)
	require.Len(t, rowErrs, 2)
	assert.Contains(t, rowErrs[0].Error(), "date")
	assert.Contains(t, rowErrs[1].Error(), "amount")

	require.Len(t, rows, 4, "pending row is skipped")
	salary := rows[0]
	assert.Equal(t, date("2025-01-31"), salary.BookingDate)
	assert.Equal(t, int64(310000), salary.AmountCents)
	assert.Equal(t, "ACME GmbH", salary.Counterparty)
	assert.Equal(t, "Gehalt Januar", salary.Description)

	netflix := rows[1]
	assert.Equal(t, int64(-1299), netflix.AmountCents)
	assert.Equal(t, "Netflix International B.V.", netflix.Counterparty)
	assert.Equal(t, "Netflix International B.V.", netflix.Raw[ledger.RawCreditorName])
	assert.Equal(t, "Max Mustermann", netflix.Raw[ledger.RawDebtorName])
	assert.Equal(t, "M-42", netflix.Raw["mandate"])

	assert.Equal(t, date("2025-01-12"), rows[3].BookingDate, "four digit years are accepted")
}

func TestParseDKBCSV_MissingHeader(t *testing.T) {
	_, _, err := ParseDKBCSV(strings.NewReader("\"a\";\"b\"\n\"1\";\"2\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestParseDKBCSV_LegacyHeader(t *testing.T) {
	in := `"Buchungstag";"Wertstellung";"Buchungstext";"Auftraggeber / Begünstigter";"Verwendungszweck";"Kontonummer";"BLZ";"Betrag (EUR)";"Gläubiger-ID";"Mandatsreferenz";"Kundenreferenz";
"02.01.2024";"02.01.2024";"Lastschrift";"Stadtwerke Berlin";"Abschlag Strom";"DE1";"";"-1.045,50";"";"";"";
"03.01.2024";"03.01.2024";"Gutschrift";"Max Mustermann";"Umbuchung";"DE2";"";"200,00";"";"";"";
`
	rows, rowErrs, err := ParseDKBCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(-104550), rows[0].AmountCents)
	assert.Equal(t, "Stadtwerke Berlin", rows[0].Counterparty)
	assert.Equal(t, "Abschlag Strom", rows[0].Description)

	// The single party column only names the other side.
	assert.Equal(t, "Stadtwerke Berlin", rows[0].Raw[ledger.RawCreditorName])
	assert.NotContains(t, rows[0].Raw, ledger.RawDebtorName)
	assert.Equal(t, "Max Mustermann", rows[1].Raw[ledger.RawDebtorName])
	assert.NotContains(t, rows[1].Raw, ledger.RawCreditorName)

	tx := rows[1].transaction(ledger.Account{ID: "dkb-csv_x", HolderName: "Max Mustermann"})
	assert.False(t, IsInternalTransfer(&tx, ledger.Account{ID: "dkb-csv_x", HolderName: "Max Mustermann"}),
		"one named side is not evidence of a transfer")
}

func TestParseANZSimple(t *testing.T) {
	in := "3/02/2026,203.92,PAYMENT THANKYOU 528417\n" +
		"14/02/2026,-1,234.50,WOOLWORTHS 1234\n" +
		"\n" +
		"31/02/2026,-5.00,BAD DATE\n" +
		"15/02/2026,-5.00\n" +
		"16/02/2026,\"-1,234.50\",WOOLWORTHS 1234\n"
	rows, rowErrs := ParseANZSimple(strings.NewReader(in))
	require.Len(t, rows, 3)
	assert.Equal(t, date("2026-02-03"), rows[0].BookingDate)
	assert.Equal(t, int64(20392), rows[0].AmountCents)
	assert.Equal(t, "PAYMENT THANKYOU 528417", rows[0].Description)
	assert.Equal(t, int64(-100), rows[1].AmountCents, "unquoted thousands separator splits the column")
	assert.Equal(t, int64(-123450), rows[2].AmountCents)
	require.Len(t, rowErrs, 2)
}

func TestImportDKB(t *testing.T) {
	var logs bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(&logs))
	store := NewMemoryStore(ledger.Ledger{})
	svc := &IngestService{Store: store}

	res, err := svc.ImportDKB(ctx, strings.NewReader(dkbExport), ImportTarget{Name: "DKB Giro", HolderName: "Max Mustermann"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Imported)
	assert.Zero(t, res.Skipped)
	assert.Len(t, res.Errors, 2, "invalid rows are reported, the batch continues")
	assert.Contains(t, logs.String(), "skipping invalid row")

	l, err := store.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Validate())
	require.Len(t, l.Accounts, 1)
	acct := l.Accounts[0]
	assert.Equal(t, res.AccountID, acct.ID)
	assert.True(t, strings.HasPrefix(acct.ID, SourceDKBCSV+"_"))
	assert.Equal(t, "EUR", acct.Currency)

	cats := map[string]ledger.Category{}
	for _, tx := range l.Transactions {
		cats[tx.Description] = tx.Category
	}
	assert.Equal(t, ledger.CategoryIncome, cats["Gehalt Januar"])
	assert.Equal(t, ledger.CategorySubscriptions, cats["Netflix Monatsabo"])
	assert.Equal(t, ledger.CategoryInternalTransfer, cats["Sparen"])
	assert.Equal(t, ledger.CategoryTransport, cats["Shell Tankstelle"])

	again, err := svc.ImportDKB(ctx, strings.NewReader(dkbExport), ImportTarget{Name: "dkb giro ", HolderName: "Max Mustermann"})
	require.NoError(t, err)
	assert.Equal(t, res.AccountID, again.AccountID, "account ids are derived from the name")
	assert.Zero(t, again.Imported)
	assert.Equal(t, 4, again.Skipped)

	l, err = store.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, l.Transactions, 4)
}

func TestImportDKB_IntoExistingAccount(t *testing.T) {
	store := NewMemoryStore(ledger.Ledger{Accounts: []ledger.Account{
		{ID: "dkb_giro", ExternalID: "giro", InstitutionID: "dkb", Name: "Girokonto", Currency: "EUR", HolderName: "Max Mustermann"},
	}})
	svc := &IngestService{Store: store}

	res, err := svc.ImportDKB(context.Background(), strings.NewReader(dkbExport), ImportTarget{ID: "dkb_giro"})
	require.NoError(t, err)
	assert.Equal(t, "dkb_giro", res.AccountID)

	l, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, l.Accounts, 1)
	for _, tx := range l.Transactions {
		if tx.Description == "Sparen" {
			assert.Equal(t, ledger.CategoryInternalTransfer, tx.Category, "holder name comes from the existing account")
		}
	}
}

func TestImportANZSimple(t *testing.T) {
	store := NewMemoryStore(ledger.Ledger{})
	svc := &IngestService{Store: store}
	in := "3/02/2026,-82.10,WOOLWORTHS 1234 SYDNEY\n3/02/2026,-82.10,WOOLWORTHS 1234 SYDNEY\nnope\n"

	res, err := svc.ImportANZSimple(context.Background(), strings.NewReader(in), ImportTarget{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped, "rows equal in every identity field collapse")
	assert.Len(t, res.Errors, 1)

	l, err := store.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, l.Accounts, 1)
	assert.Equal(t, "ANZ", l.Accounts[0].Name)
	assert.Equal(t, "AUD", l.Accounts[0].Currency)
	require.Len(t, l.Transactions, 1)
	assert.Equal(t, ledger.CategoryGroceries, l.Transactions[0].Category)
	assert.Equal(t, -82.10, l.Transactions[0].Amount)
}

func TestGermanAmountToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1.234,56", 123456, false},
		{"-12,99 €", -1299, false},
		{"-0,5", -50, false},
		{"3 100,00", 310000, false},
		{"", 0, true},
		{"zwölf", 0, true},
	}
	for _, tt := range tests {
		got, err := germanAmountToCents(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
