package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendlog/spendlog/internal/config"
	"github.com/spendlog/spendlog/internal/event_bus"
	"github.com/spendlog/spendlog/internal/localstore"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/budget"
	"github.com/spendlog/spendlog/pkg/dashboard"
	"github.com/spendlog/spendlog/pkg/google"
	"github.com/spendlog/spendlog/pkg/notification"
	"github.com/spendlog/spendlog/pkg/recurring"
	"github.com/spendlog/spendlog/pkg/stats"
	"github.com/spendlog/spendlog/pkg/transaction"
	"github.com/spendlog/spendlog/pkg/user"
	"github.com/spendlog/spendlog/pkg/voice"
	log "github.com/sirupsen/logrus"
	"github.com/supabase-community/supabase-go"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Pool       *pgxpool.Pool
	LocalStore *localstore.Store
	EventBus   *event_bus.EventBus
	Clock      utils.Clock

	UserService user.Service
	UserHandler *user.Handler

	TransactionRepo    transaction.Repository
	TransactionService *transaction.ServiceImpl
	TransactionHandler *transaction.Handler

	RuleRepo         recurring.Repository
	RuleProcessor    *recurring.Processor
	RecurringService *recurring.ServiceImpl
	RecurringHandler *recurring.Handler

	BudgetService *budget.BudgetServiceImpl
	BudgetHandler *budget.BudgetHandler

	GoogleAuth    *google.GoogleAuth
	GoogleService *google.ServiceImpl
	GoogleHandler *google.Handler

	NotificationSink    notification.Sink
	Monitor             *notification.Monitor
	NotificationHandler *notification.Handler

	StatsService *stats.StatsServiceImpl
	StatsHandler *stats.StatsHandler

	DashboardService *dashboard.ServiceImpl
	DashboardHandler *dashboard.Handler

	VoiceHandler *voice.Handler

	closers     []io.Closer
	unsubscribe func()
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, store *localstore.Store, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{Pool: db, LocalStore: store}
	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	var err error
	deps.TransactionRepo, deps.RuleRepo, err = buildRecordStores(db, cfg.Store)
	if err != nil {
		return nil, err
	}
	deps.RuleProcessor = recurring.NewProcessor(deps.RuleRepo, deps.TransactionRepo, deps.EventBus, deps.Clock)
	deps.RecurringService = recurring.NewService(deps.RuleRepo, deps.RuleProcessor)
	deps.RecurringHandler = recurring.NewHandler(deps.RecurringService)

	deps.TransactionService = transaction.NewService(deps.TransactionRepo, transaction.NewLedger(deps.TransactionRepo), deps.RecurringService, deps.EventBus)
	deps.TransactionHandler = transaction.NewHandler(deps.TransactionService)

	deps.BudgetService = budget.NewBudgetServiceImpl(budget.NewBudgetRepo(store), deps.EventBus)
	deps.BudgetHandler = budget.NewBudgetHandler(deps.BudgetService)

	deps.GoogleAuth = google.NewGoogleAuth(google.NewTokenRepository(db), cfg)
	deps.GoogleService = google.NewService(deps.GoogleAuth)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService)

	deps.NotificationSink, err = deps.buildSinks(cfg)
	if err != nil {
		for _, c := range deps.closers {
			c.Close()
		}
		return nil, err
	}
	deps.Monitor = notification.NewMonitor(deps.NotificationSink, deps.Clock)
	deps.NotificationHandler = notification.NewHandler(deps.Monitor)

	deps.StatsService = stats.NewStatsServiceImpl(deps.TransactionService, deps.Clock)
	deps.StatsHandler = stats.NewStatsHandler(deps.StatsService, stats.NewCsvStatsRenderer(), stats.NewChartRenderer())

	deps.DashboardService = dashboard.NewService(deps.RecurringService, deps.TransactionService, deps.BudgetService, deps.Monitor, deps.Clock)
	deps.DashboardHandler = dashboard.NewHandler(deps.DashboardService)
	deps.unsubscribe = deps.DashboardService.Subscribe(deps.EventBus)

	var transcriber voice.Transcriber = voice.NoopTranscriber{}
	if cfg.OpenAI.ApiKey != "" {
		transcriber = voice.NewOpenAITranscriber(cfg.OpenAI.ApiKey)
	}
	deps.VoiceHandler = voice.NewHandler(transcriber)

	return deps, nil
}

// buildRecordStores selects where transactions and recurring rules are kept.
func buildRecordStores(db *pgxpool.Pool, cfg config.Store) (transaction.Repository, recurring.Repository, error) {
	switch cfg.Backend {
	case config.StoreBackendSupabase:
		client, err := supabase.NewClient(cfg.Supabase.Url, cfg.Supabase.Key, &supabase.ClientOptions{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create supabase client: %w", err)
		}
		log.Infof("Transactions and recurring rules are stored in Supabase at %s", cfg.Supabase.Url)
		return transaction.NewSupabaseRepository(client), recurring.NewSupabaseRepository(client), nil
	default:
		return transaction.NewRepository(db), recurring.NewRepository(db), nil
	}
}

func (deps *Dependencies) buildSinks(cfg config.Application) (notification.Sink, error) {
	var sinks []notification.Sink
	for _, name := range cfg.Notifications.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, notification.LogSink{})
		case config.SinkDiscord:
			sink, err := notification.NewDiscordSink(cfg.Notifications.Discord.Token, cfg.Notifications.Discord.ChannelId)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sink)
		case config.SinkTelegram:
			sink, err := notification.NewTelegramSink(cfg.Notifications.Telegram.Token)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sink)
		case config.SinkAMQP:
			amqpCfg := cfg.Notifications.AMQP
			sink, err := notification.NewAMQPSink(amqpCfg.Url, amqpCfg.Exchange, amqpCfg.Queue)
			if err != nil {
				return nil, err
			}
			deps.closers = append(deps.closers, sink)
			sinks = append(sinks, sink)
		case config.SinkGoogle:
			sinks = append(sinks, google.NewCalendarSink(deps.GoogleAuth, deps.GoogleService, deps.Clock))
		default:
			return nil, fmt.Errorf("unknown notification sink %q", name)
		}
	}
	fanout := notification.NewFanout(sinks...)
	log.Infof("Notifications are delivered through: %s", fanout.Name())
	return fanout, nil
}

// Close releases the stores and sink connections.
func (deps *Dependencies) Close() {
	if deps.unsubscribe != nil {
		deps.unsubscribe()
	}
	var errs []error
	for _, c := range deps.closers {
		errs = append(errs, c.Close())
	}
	if deps.LocalStore != nil {
		errs = append(errs, deps.LocalStore.Close())
	}
	if deps.Pool != nil {
		deps.Pool.Close()
	}
	if err := errors.Join(errs...); err != nil {
		log.Warnf("failed to release resources: %v", err)
	}
}
