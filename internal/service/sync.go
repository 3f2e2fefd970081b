package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/jask/finsync/internal/bank"
	"github.com/jask/finsync/internal/ledger"
	"github.com/jask/finsync/internal/logger"
)

// SyncService orchestrates one institution's sync pass:
//
//	Started -> FetchingAccounts -> per account {FetchingBalance ->
//	FetchingTransactions -> Tagging -> Deduplicating -> Persisting} ->
//	Completed | Failed
//
// Each account is one unit of work, persisted only once it completes.
// Passes are serialized.
type SyncService struct {
	Store       LedgerStore
	Adapters    map[string]bank.Adapter
	Categorizer *Categorizer
	Now         func() time.Time

	mu sync.Mutex
}

// NewSyncService registers adapters by their institution id.
func NewSyncService(store LedgerStore, c *Categorizer, adapters ...bank.Adapter) *SyncService {
	s := &SyncService{Store: store, Categorizer: c, Adapters: make(map[string]bank.Adapter, len(adapters))}
	for _, a := range adapters {
		s.Adapters[a.InstitutionID()] = a
	}
	return s
}

// Sync runs one pass for institution and always returns its audit record.
// The record is appended to the ledger's sync history unless the store
// itself is unusable.
func (s *SyncService) Sync(ctx context.Context, institution string, creds bank.Credentials) ledger.SyncMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	meta := ledger.SyncMetadata{
		RunID:         ulid.MustNew(ulid.Timestamp(start), rand.Reader).String(),
		InstitutionID: institution,
		LastSyncAt:    start,
	}
	log := logger.FromContext(ctx).With().
		Str("run_id", meta.RunID).
		Str("institution", institution).
		Logger()
	ctx = logger.WithContext(ctx, log)
	log.Info().Str("state", "started").Msg("sync started")

	l, err := s.Store.Read(ctx)
	if err != nil {
		return s.finish(ctx, &log, nil, meta, start, fmt.Errorf("read ledger: %w", err))
	}
	adapter, ok := s.Adapters[institution]
	if !ok {
		return s.finish(ctx, &log, &l, meta, start, fmt.Errorf("no adapter for institution %q", institution))
	}

	log.Debug().Str("state", "fetching_accounts").Msg("sync state")
	accounts, err := adapter.FetchAccounts(ctx, creds)
	if err != nil {
		return s.finish(ctx, &log, &l, meta, start, err)
	}

	since := l.LastSuccessfulSync(institution)
	pass := newBatch(l, s.Categorizer)
	for _, acct := range accounts {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, &log, &l, meta, start, err)
		}
		next, fetched, fresh, err := s.syncAccount(ctx, adapter, creds, l, pass, acct, since, start)
		if err != nil {
			return s.finish(ctx, &log, &l, meta, start, fmt.Errorf("account %s: %w", acct.ID, err))
		}
		l = next
		meta.AccountsSynced++
		meta.TransactionsFetched += fetched
		meta.NewTransactions += fresh
	}
	return s.finish(ctx, &log, &l, meta, start, nil)
}

// syncAccount fetches, tags and persists one account. On error nothing of
// the account has been written and l is returned unchanged.
func (s *SyncService) syncAccount(ctx context.Context, adapter bank.Adapter, creds bank.Credentials, l ledger.Ledger, pass *batch, acct ledger.Account, since *time.Time, now time.Time) (ledger.Ledger, int, int, error) {
	log := logger.FromContext(ctx).With().Str("account_id", acct.ID).Logger()

	log.Debug().Str("state", "fetching_balance").Msg("sync state")
	bal, err := adapter.FetchBalance(ctx, acct.ID, creds)
	if err != nil {
		return l, 0, 0, err
	}

	log.Debug().Str("state", "fetching_transactions").Msg("sync state")
	txs, err := adapter.FetchTransactions(ctx, acct.ID, creds, since)
	if err != nil {
		return l, 0, 0, err
	}

	log.Debug().Str("state", "tagging").Int("fetched", len(txs)).Msg("sync state")
	fresh := pass.admit(acct, txs)

	log.Debug().Str("state", "persisting").Int("new", len(fresh)).Msg("sync state")
	next := l.Clone()
	synced := now
	acct.LastSyncedAt = &synced
	next.UpsertAccount(acct)
	if bal.AccountID == "" {
		bal.AccountID = acct.ID
	}
	next.Balances = append(next.Balances, bal)
	next.Transactions = append(next.Transactions, fresh...)
	if err := s.Store.Write(ctx, next); err != nil {
		return l, 0, 0, fmt.Errorf("persist: %w", err)
	}
	pass.commit(fresh)
	return next, len(txs), len(fresh), nil
}

// finish classifies the outcome, appends meta to l and persists it.
func (s *SyncService) finish(ctx context.Context, log *zerolog.Logger, l *ledger.Ledger, meta ledger.SyncMetadata, start time.Time, err error) ledger.SyncMetadata {
	meta.DurationMs = s.now().Sub(start).Milliseconds()
	switch {
	case err == nil:
		meta.Status = ledger.SyncSuccess
	case meta.AccountsSynced > 0:
		meta.Status = ledger.SyncPartial
		meta.Error = err.Error()
	default:
		meta.Status = ledger.SyncError
		meta.Error = err.Error()
	}

	if l != nil {
		next := l.Clone()
		next.SyncHistory = append(next.SyncHistory, meta)
		// A cancelled pass is still recorded.
		if werr := s.Store.Write(context.WithoutCancel(ctx), next); werr != nil {
			log.Error().Err(werr).Msg("persist sync history")
			if meta.Error == "" {
				meta.Status = ledger.SyncError
			}
			meta.Error = errors.Join(err, fmt.Errorf("persist sync history: %w", werr)).Error()
		}
	}

	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err).Str("error_kind", string(bank.KindOf(err)))
	}
	ev.Str("state", stateFor(meta.Status)).
		Int("accounts_synced", meta.AccountsSynced).
		Int("transactions_fetched", meta.TransactionsFetched).
		Int("new_transactions", meta.NewTransactions).
		Int64("duration_ms", meta.DurationMs).
		Msg("sync finished")
	return meta
}

func stateFor(status ledger.SyncStatus) string {
	if status == ledger.SyncSuccess {
		return "completed"
	}
	return "failed"
}

func (s *SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
