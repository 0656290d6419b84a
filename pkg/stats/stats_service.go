package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/transaction"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

type StatsService interface {
	GetStats(ctx context.Context, filter Filter) (StatsSummary, error)
}

type StatsServiceImpl struct {
	transactions transaction.Service
	clock        utils.Clock
}

func NewStatsServiceImpl(transactions transaction.Service, clock utils.Clock) *StatsServiceImpl {
	return &StatsServiceImpl{transactions: transactions, clock: clock}
}

func (s *StatsServiceImpl) GetStats(ctx context.Context, filter Filter) (StatsSummary, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return StatsSummary{}, fmt.Errorf("failed to get current user: %w", err)
	}
	all, err := s.transactions.List(ctx)
	if err != nil {
		return StatsSummary{}, err
	}
	return Aggregate(all, filter, s.clock.Now().In(currentUser.Location())), nil
}

// Aggregate filters transactions and summarizes the result. The input is not modified.
func Aggregate(transactions []transaction.Transaction, filter Filter, now time.Time) StatsSummary {
	filtered := FilterTransactions(transactions, filter, now)
	log.Tracef("Filter %q kept %d of %d transactions", filter, len(filtered), len(transactions))
	return StatsSummary{
		Filter:       filter,
		GeneratedAt:  now,
		Transactions: filtered,
		Summary:      Summarize(filtered),
	}
}
