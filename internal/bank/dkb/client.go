// Package dkb implements the bank adapter for DKB's JSON:API banking backend.
package dkb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jask/finsync/internal/bank"
	"github.com/jask/finsync/internal/ledger"
	"github.com/jask/finsync/internal/logger"
)

const (
	// InstitutionID prefixes every account id this adapter emits.
	InstitutionID = "dkb"

	// DefaultBaseURL is DKB's banking API host.
	DefaultBaseURL = "https://banking.dkb.de"

	// DefaultMaxPages bounds one account's transaction listing.
	DefaultMaxPages = 50

	// Credential keys expected in bank.Credentials.
	CredCookie    = "cookie"
	CredXSRFToken = "xsrfToken"
)

// Config holds transport settings.
type Config struct {
	BaseURL  string
	MaxPages int
	Timeout  time.Duration
}

// Client is the DKB adapter.
type Client struct {
	baseURL    string
	maxPages   int
	httpClient *http.Client
	now        func() time.Time
}

var _ bank.Adapter = (*Client)(nil)

// NewClient creates a DKB client, filling unset config fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxPages:   cfg.MaxPages,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
}

func (c *Client) InstitutionID() string { return InstitutionID }

// FetchAccounts lists the accounts visible to the session.
func (c *Client) FetchAccounts(ctx context.Context, creds bank.Credentials) ([]ledger.Account, error) {
	const op = "dkb: fetch accounts"
	if err := validateCredentials(op, creds); err != nil {
		return nil, err
	}
	var resp accountsResponse
	if err := c.get(ctx, op, "/api/accounts/accounts", nil, creds, &resp); err != nil {
		return nil, err
	}
	accounts := make([]ledger.Account, 0, len(resp.Data))
	for i, res := range resp.Data {
		acct, err := mapAccount(res)
		if err != nil {
			return nil, bank.MalformedError(op, fmt.Errorf("account %d: %w", i, err))
		}
		accounts = append(accounts, acct)
	}
	log := logger.FromContext(ctx)
	log.Debug().Int("accounts", len(accounts)).Msg("dkb accounts fetched")
	return accounts, nil
}

// FetchTransactions follows the cursor chain of an account's booked
// transactions. Exceeding the page cap is an error, never a truncation.
func (c *Client) FetchTransactions(ctx context.Context, accountID string, creds bank.Credentials, since *time.Time) ([]ledger.Transaction, error) {
	const op = "dkb: fetch transactions"
	if err := validateCredentials(op, creds); err != nil {
		return nil, err
	}
	externalID, err := externalIDFor(accountID)
	if err != nil {
		return nil, bank.MalformedError(op, err)
	}
	path := "/api/accounts/accounts/" + url.PathEscape(externalID) + "/transactions"

	var all []ledger.Transaction
	cursor := ""
	for page := 1; ; page++ {
		if page > c.maxPages {
			return nil, bank.PaginationLimitError(op, c.maxPages)
		}
		params := url.Values{}
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		var resp transactionsResponse
		if err := c.get(ctx, op, path, params, creds, &resp); err != nil {
			return nil, err
		}
		for i, res := range resp.Data {
			if !strings.EqualFold(res.Attributes.Status, "booked") {
				continue
			}
			tx, err := mapTransaction(accountID, res)
			if err != nil {
				return nil, bank.MalformedError(op, fmt.Errorf("page %d item %d: %w", page, i, err))
			}
			all = append(all, tx)
		}
		next := ""
		if resp.Links != nil {
			next = resp.Links.Next
		}
		if next == "" {
			break
		}
		if next == cursor {
			return nil, bank.MalformedError(op, fmt.Errorf("cursor %q repeated on page %d", next, page))
		}
		cursor = next
	}

	filtered := bank.FilterSince(all, since)
	log := logger.FromContext(ctx)
	log.Debug().
		Str("account_id", accountID).
		Int("fetched", len(all)).
		Int("returned", len(filtered)).
		Msg("dkb transactions fetched")
	return filtered, nil
}

// FetchBalance reads the account's current balance.
func (c *Client) FetchBalance(ctx context.Context, accountID string, creds bank.Credentials) (ledger.Balance, error) {
	const op = "dkb: fetch balance"
	if err := validateCredentials(op, creds); err != nil {
		return ledger.Balance{}, err
	}
	externalID, err := externalIDFor(accountID)
	if err != nil {
		return ledger.Balance{}, bank.MalformedError(op, err)
	}
	var resp accountResponse
	if err := c.get(ctx, op, "/api/accounts/accounts/"+url.PathEscape(externalID), nil, creds, &resp); err != nil {
		return ledger.Balance{}, err
	}
	bal := resp.Data.Attributes.Balance
	if bal == nil {
		return ledger.Balance{}, bank.MalformedError(op, errors.New("missing balance"))
	}
	amount, err := parseAmount(bal.Value)
	if err != nil {
		return ledger.Balance{}, bank.MalformedError(op, err)
	}
	return ledger.Balance{
		AccountID: accountID,
		Amount:    amount,
		Currency:  bal.CurrencyCode,
		FetchedAt: c.now().UTC(),
	}, nil
}

func validateCredentials(op string, creds bank.Credentials) error {
	var missing []string
	if strings.TrimSpace(creds.Get(CredCookie)) == "" {
		missing = append(missing, CredCookie)
	}
	if strings.TrimSpace(creds.Get(CredXSRFToken)) == "" {
		missing = append(missing, CredXSRFToken)
	}
	if len(missing) > 0 {
		return bank.AuthError(op, 0, fmt.Errorf("missing credentials: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func externalIDFor(accountID string) (string, error) {
	prefix := InstitutionID + "_"
	if !strings.HasPrefix(accountID, prefix) || len(accountID) == len(prefix) {
		return "", fmt.Errorf("account id %q is not a %s account", accountID, InstitutionID)
	}
	return strings.TrimPrefix(accountID, prefix), nil
}

// get performs one authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, creds bank.Credentials, out any) error {
	apiURL := c.baseURL + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return bank.NetworkError(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	req.Header.Set("Cookie", creds.Get(CredCookie))
	req.Header.Set("x-xsrf-token", creds.Get(CredXSRFToken))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return bank.NetworkError(op, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return bank.AuthError(op, resp.StatusCode, errors.New(http.StatusText(resp.StatusCode)))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &bank.Error{Kind: bank.KindNetwork, Op: op, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &bank.Error{Kind: bank.KindMalformed, Op: op, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return bank.MalformedError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
