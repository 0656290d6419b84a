package transaction

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const tempIdPrefix = "tmp-"

// Ledger is the per-user list of transactions as last shown to the user. Mutations are applied to the
// list before the store confirms them and reverted when the store call fails.
//
// Replace is last-writer-wins: a slow List response can overwrite newer optimistic changes.
// Edit and Delete roll back to the list as it was before the call, which also discards changes made
// by other calls for the same user in the meantime.
type Ledger struct {
	repo  Repository
	mu    sync.Mutex
	views map[int][]Transaction
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo, views: map[int][]Transaction{}}
}

// Replace sets the user's list, typically with the result of a full load.
func (l *Ledger) Replace(userId int, transactions []Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.views[userId] = slices.Clone(transactions)
}

// Snapshot returns a copy of the user's list and whether it was ever loaded.
func (l *Ledger) Snapshot(userId int) ([]Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	view, ok := l.views[userId]
	return slices.Clone(view), ok
}

func (l *Ledger) Forget(userId int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.views, userId)
}

// Add shows t under a temporary id, stores it, then swaps in the stored record.
// On failure only the temporary entry is removed.
func (l *Ledger) Add(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	tempId := tempIdPrefix + uuid.NewString()
	pending := t
	pending.Id = tempId

	l.mu.Lock()
	l.views[userId] = append([]Transaction{pending}, l.views[userId]...)
	l.mu.Unlock()

	created, err := l.repo.Create(ctx, userId, t)

	l.mu.Lock()
	defer l.mu.Unlock()
	view := l.views[userId]
	idx := slices.IndexFunc(view, func(tx Transaction) bool { return tx.Id == tempId })
	if err != nil {
		if idx >= 0 {
			l.views[userId] = slices.Delete(view, idx, idx+1)
		}
		log.Warnf("add of transaction rolled back for user %d: %v", userId, err)
		return Transaction{}, fmt.Errorf("failed to add transaction: %w", err)
	}
	if idx >= 0 {
		view[idx] = created
	} else {
		// the temporary entry was replaced by a concurrent load
		l.views[userId] = append([]Transaction{created}, view...)
	}
	return created, nil
}

// Edit replaces the transaction with the same id in place, then stores it.
func (l *Ledger) Edit(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	l.mu.Lock()
	snapshot := slices.Clone(l.views[userId])
	idx := slices.IndexFunc(l.views[userId], func(tx Transaction) bool { return tx.Id == t.Id })
	if idx >= 0 {
		l.views[userId][idx] = t
	}
	l.mu.Unlock()

	updated, err := l.repo.Update(ctx, userId, t)
	if err != nil {
		l.restore(userId, snapshot)
		log.Warnf("edit of transaction %s rolled back for user %d: %v", t.Id, userId, err)
		return Transaction{}, fmt.Errorf("failed to edit transaction: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if idx := slices.IndexFunc(l.views[userId], func(tx Transaction) bool { return tx.Id == t.Id }); idx >= 0 {
		l.views[userId][idx] = updated
	}
	return updated, nil
}

// Delete removes the transaction from the list, then from the store. On failure the full prior list comes back.
func (l *Ledger) Delete(ctx context.Context, userId int, id string) error {
	l.mu.Lock()
	snapshot := slices.Clone(l.views[userId])
	l.views[userId] = slices.DeleteFunc(slices.Clone(snapshot), func(tx Transaction) bool { return tx.Id == id })
	l.mu.Unlock()

	if err := l.repo.Delete(ctx, userId, id); err != nil {
		l.restore(userId, snapshot)
		log.Warnf("delete of transaction %s rolled back for user %d: %v", id, userId, err)
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (l *Ledger) restore(userId int, snapshot []Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.views[userId] = snapshot
}
