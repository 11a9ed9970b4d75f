package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go/v4"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sandeepkv93/bottle/internal/alarm"
	"github.com/sandeepkv93/bottle/internal/config"
	"github.com/sandeepkv93/bottle/internal/impact"
	"github.com/sandeepkv93/bottle/internal/logging"
	"github.com/sandeepkv93/bottle/internal/remote"
	"github.com/sandeepkv93/bottle/internal/scheduler"
	"github.com/sandeepkv93/bottle/internal/session"
	"github.com/sandeepkv93/bottle/internal/storage"
	"github.com/sandeepkv93/bottle/internal/update"
)

// midnightSpec refreshes the day's schedule once the date changes.
const midnightSpec = "0 0 * * *"

func main() {
	configPath := flag.String("config", "", "path to a bottle.yaml config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "bottle failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	loader, err := config.NewLoader(configPath)
	if err != nil {
		return err
	}
	cfg := loader.Config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local := storage.OpenLocal(ctx, storage.Options{
		Backend:       cfg.CacheBackend,
		StatePath:     cfg.StatePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}, logger)
	defer func() {
		if err := local.Close(); err != nil {
			logger.Warn("close local cache", zap.Error(err))
		}
	}()

	var fbApp *firebase.App
	var docs remote.DocumentStore = remote.NewMemoryStore()
	if cfg.RemoteEnabled() {
		fbApp, err = remote.NewFirebaseApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			return err
		}
		fs, err := remote.OpenFirestore(ctx, fbApp)
		if err != nil {
			return err
		}
		defer fs.Close()
		docs = fs
	} else {
		logger.Info("no firebase project configured, remote store is in memory")
	}

	engine := scheduler.NewEngine(cfg.SchedulerBuffer)
	engine.Start()
	defer engine.Stop()

	filter := scheduler.NewArrivalFilter(cfg.ArrivalWindow, logger)
	applier := scheduler.NewApplier(engine, filter, logger)
	provider := session.NewProvider(logger)
	cookies := impact.NewCookieJar(local.Cache, docs, logger)
	store := alarm.NewStore(local.Cache, docs, provider, applier, logger)
	store.SetRewarder(cookies)
	unbind := store.Bind(ctx, provider)
	defer unbind()
	unwatchCookies := provider.OnAuthChanged(func(u *session.User) {
		if u != nil {
			cookies.Load(ctx, u.UID)
		}
	})
	defer unwatchCookies()

	if err := signIn(ctx, cfg, fbApp, provider); err != nil {
		logger.Warn("sign in failed, continuing signed out", zap.Error(err))
	}
	if provider.Current() == nil {
		store.Load(ctx)
	}

	a := &app{
		store:    store,
		recorder: impact.NewRecorder(docs, local.Missions, logger),
		cookies:  cookies,
		daily:    impact.NewDailyPlanner(local.Cache, nil, logger),
		identity: provider,
		engine:   engine,
	}
	program := tea.NewProgram(update.NewModel(newHandlers(ctx, a)), tea.WithContext(ctx))

	sinks := []scheduler.Sink{scheduler.LogSink{Logger: logger}, update.ProgramSink{Program: program}}
	if cfg.PushToken != "" && fbApp != nil {
		client, err := fbApp.Messaging(ctx)
		if err != nil {
			return fmt.Errorf("messaging client: %w", err)
		}
		sinks = append(sinks, scheduler.NewPushSink(client, cfg.PushToken, cfg.PushPerMinute, logger))
	}
	relay := scheduler.NewRelay(filter, logger, sinks...)
	go relay.Run(ctx, engine.C(), engine.Taps())

	loader.Watch(func(next config.RuntimeConfig, e fsnotify.Event) {
		filter.SetWindow(next.ArrivalWindow)
		logger.Info("config reloaded",
			zap.String("file", e.Name),
			zap.Duration("arrival_window", filter.Window()),
		)
	})

	jobs := cron.New()
	if _, err := jobs.AddFunc(midnightSpec, func() {
		if store.RefreshIfStale(ctx) {
			logger.Info("schedule refreshed for the new day")
		}
	}); err != nil {
		return fmt.Errorf("schedule midnight refresh: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

func signIn(ctx context.Context, cfg config.RuntimeConfig, fbApp *firebase.App, provider *session.Provider) error {
	switch {
	case cfg.IDToken != "":
		if fbApp == nil {
			return errors.New("id_token requires a firebase project")
		}
		client, err := fbApp.Auth(ctx)
		if err != nil {
			return fmt.Errorf("auth client: %w", err)
		}
		_, err = provider.SignInWithToken(ctx, client, cfg.IDToken)
		return err
	case cfg.UserID != "":
		return provider.SignIn(session.User{UID: cfg.UserID})
	default:
		return nil
	}
}
