package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cowin-slot-notifier/src/cache"
	"github.com/cowin-slot-notifier/src/config"
	"github.com/cowin-slot-notifier/src/database"
	"github.com/cowin-slot-notifier/src/logging"
	model "github.com/cowin-slot-notifier/src/model"
	"github.com/cowin-slot-notifier/src/notify"
	"github.com/cowin-slot-notifier/src/retry"
	"github.com/cowin-slot-notifier/src/scheduler"
)

const (
	serviceName = "cowin-slot-notifier"

	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2

	notifyWorkers = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}

	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	cfg.BindFlags(fs)
	testNotification := fs.Bool("test-notification", false, "send a test message to every recipient and exit")
	listStates := fs.Bool("list-states", false, "print every state id and exit")
	listDistricts := fs.Int("list-districts", 0, "print the district ids of a state and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	logging.Init(serviceName, cfg.App.Env, cfg.App.LogLevel)

	client, err := model.NewCowinClient(nil)
	if err != nil {
		log.Error().Err(err).Msg("creating cowin client")
		return exitConfig
	}

	switch {
	case *listStates:
		return printStates(ctx, client, stdout)
	case *listDistricts > 0:
		return printDistricts(ctx, client, *listDistricts, stdout)
	}

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("configuration rejected")
		return exitConfig
	}
	query, err := cfg.Query()
	if err != nil {
		log.Error().Err(err).Msg("configuration rejected")
		return exitConfig
	}
	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		log.Error().Err(err).Msg("configuring notification sinks")
		return exitConfig
	}

	fetcher, closeCache, err := buildFetcher(cfg, client)
	if err != nil {
		log.Error().Err(err).Msg("configuring response cache")
		return exitConfig
	}
	defer closeCache()

	job := scheduler.NewJob(scheduler.NewAggregator(fetcher), dispatcher, query)
	if cfg.ArchiveEnabled() {
		archive := openArchive(cfg)
		if archive != nil {
			defer archive.Close()
			job.WithRecorder(archive)
		}
	}

	if *testNotification {
		if err := job.SendTest(ctx); err != nil {
			log.Error().Err(err).Msg("test notification failed")
			return exitFailure
		}
		return exitOK
	}

	if cfg.App.Schedule != "" {
		return runScheduled(ctx, cfg, job)
	}

	if err := job.Run(ctx); err != nil {
		log.Error().Err(err).Msg("availability pass failed")
		return exitFailure
	}
	return exitOK
}

func runScheduled(ctx context.Context, cfg *config.Config, job *scheduler.Job) int {
	if cfg.App.StatusAddr != "" {
		server := &http.Server{Addr: cfg.App.StatusAddr, Handler: statusHandler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status endpoint stopped")
			}
		}()
		defer server.Close()
	}

	log.Info().Msg("running first pass before scheduling")
	if err := job.Run(ctx); err != nil {
		log.Error().Err(err).Msg("availability pass failed")
	}

	if err := scheduler.Schedule(ctx, cfg.App.Schedule, job); err != nil {
		log.Error().Err(err).Msg("scheduling passes")
		return exitConfig
	}
	return exitOK
}

func statusHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "GOOD")
	})
	return mux
}

func buildDispatcher(cfg *config.Config) (*notify.Dispatcher, error) {
	var routes []notify.Route
	if len(cfg.Email.Recipients) > 0 {
		email := notify.NewEmail(cfg.Email.Host, cfg.Email.Port, cfg.Email.Sender, cfg.Email.Password)
		routes = append(routes, notify.Route{Sink: email, Recipients: cfg.Email.Recipients})
	}
	if len(cfg.Telegram.ChatIDs) > 0 {
		telegram, err := notify.NewTelegram(cfg.Telegram.BotToken)
		if err != nil {
			return nil, err
		}
		routes = append(routes, notify.Route{Sink: telegram, Recipients: cfg.Telegram.ChatIDs})
	}
	if len(cfg.SMS.Recipients) > 0 {
		sms := notify.NewSMS(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.From)
		routes = append(routes, notify.Route{Sink: sms, Recipients: cfg.SMS.Recipients})
	}
	return notify.NewDispatcher(notifyWorkers, routes...), nil
}

// buildFetcher composes cache(retry(client)). Redis is used when configured
// and reachable; otherwise responses are cached in process memory.
func buildFetcher(cfg *config.Config, client *model.CowinClient) (model.SessionFetcher, func(), error) {
	retrying := retry.NewFetcher(client, retry.ParseFailurePolicy())

	if cfg.SharedCacheEnabled() {
		conn, err := cache.CreateConnection(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.Port)
		if err == nil {
			closeConn := func() {
				if err := conn.Close(); err != nil {
					log.Warn().Err(err).Msg("closing redis connection")
				}
			}
			return cache.NewFetcher(retrying, cache.NewRedis(conn), client.URL, cfg.Cache.TTL), closeConn, nil
		}
		log.Warn().Err(err).Msg("redis unavailable, caching responses in memory")
	}

	memory, err := cache.NewMemory(cfg.Cache.Size)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewFetcher(retrying, memory, client.URL, cfg.Cache.TTL), func() {}, nil
}

// openArchive connects and migrates the archive, pruning expired rows. A nil
// result means the pass runs without archiving.
func openArchive(cfg *config.Config) *database.DatabaseConnection {
	archive, err := database.CreateConnection(cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Name)
	if err != nil {
		log.Error().Err(err).Msg("archive unavailable, continuing without it")
		return nil
	}
	if err := archive.AutoMigrateTables(); err != nil {
		log.Error().Err(err).Msg("archive unavailable, continuing without it")
		_ = archive.Close()
		return nil
	}
	if cfg.Database.RetentionHours > 0 {
		cutoff := time.Now().Add(-time.Duration(cfg.Database.RetentionHours) * time.Hour)
		if _, err := archive.Prune(cutoff); err != nil {
			log.Warn().Err(err).Msg("pruning archive")
		}
	}
	return archive
}

func printStates(ctx context.Context, client *model.CowinClient, out io.Writer) int {
	states, err := client.GetStates(ctx)
	if err != nil {
		log.Error().Err(err).Msg("listing states")
		return exitFailure
	}
	for _, s := range states {
		fmt.Fprintf(out, "%d\t%s\n", s.StateID, s.StateName)
	}
	return exitOK
}

func printDistricts(ctx context.Context, client *model.CowinClient, stateID int, out io.Writer) int {
	districts, err := client.GetDistricts(ctx, stateID)
	if err != nil {
		log.Error().Err(err).Int("state_id", stateID).Msg("listing districts")
		return exitFailure
	}
	for _, d := range districts {
		fmt.Fprintf(out, "%d\t%s\n", d.DistrictID, d.DistrictName)
	}
	return exitOK
}
