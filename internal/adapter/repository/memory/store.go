// Package memory is an in-process implementation of the account and ledger
// stores. Exclusive account access is a one-slot channel per account; writes
// are staged on the transaction and applied together at commit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// Store holds committed state shared by the repositories and TxManager.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]domain.Account
	byEmail   map[string]string
	entries   map[string][]domain.LedgerEntry
	allTotals domain.LedgerTotals

	nextEntryID atomic.Int64

	locksMu     sync.Mutex
	locks       map[string]chan struct{}
	lockTimeout time.Duration
}

// NewStore creates an empty Store. A non-positive lockTimeout waits on the context only.
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		accounts:    make(map[string]domain.Account),
		byEmail:     make(map[string]string),
		entries:     make(map[string][]domain.LedgerEntry),
		locks:       make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

func (s *Store) lockFor(id string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}

	return ch
}

func (s *Store) acquire(ctx context.Context, id string) error {
	ch := s.lockFor(id)

	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		timer := time.NewTimer(s.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ch <- struct{}{}:
		return nil
	case <-timeout:
		return fmt.Errorf("%w: account %s", domain.ErrLockTimeout, id)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release(id string) {
	<-s.lockFor(id)
}

func (s *Store) account(id string) (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	return a, ok
}

// apply publishes a committed transaction.
// base holds the version each staged account had when it was locked.
func (s *Store) apply(base map[string]int64, accounts map[string]domain.Account, entries []domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range accounts {
		if s.accounts[id].Version != base[id] {
			return fmt.Errorf("%w: account %s", domain.ErrConflict, id)
		}
	}

	for id, staged := range accounts {
		s.accounts[id] = staged
	}

	for _, e := range entries {
		s.entries[e.AccountID] = append(s.entries[e.AccountID], e)
		s.allTotals = s.allTotals.Add(&e)
	}

	return nil
}

// newestFirst orders entries by CreatedAt then ID, both descending.
func newestFirst(entries []domain.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}
