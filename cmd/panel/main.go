package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"arbpanel/internal/config"
	"arbpanel/internal/engine"
	"arbpanel/internal/logger"
	"arbpanel/internal/panel/rest"
	"arbpanel/internal/session"
	"arbpanel/internal/stream"

	flag "github.com/spf13/pflag"
)

const usage = `usage: panel [flags] <command> [args]

commands:
  login [--user U --password P]   check and store a credential
  logout                          forget the stored credential
  list                            show configs and which bots run
  add [KEY=VALUE ...]             append a config from the default template
  set LIGHTER [EXTENDED] KEY=VALUE ...
  rm LIGHTER [EXTENDED]           delete a config
  start LIGHTER [EXTENDED]
  stop LIGHTER [EXTENDED]
  logs [--follow] LIGHTER [EXTENDED]
  live LIGHTER [EXTENDED]         print ticker frames until interrupted
  env get | env put FILE          read or replace the server env document
  daily [--venue lig|ext]
  trades [--venue lig|ext] [--view fifo|cycle]

flags:
`

type app struct {
	cfg       *config.Config
	log       *logger.Logger
	store     *session.Store
	client    *rest.Client
	sync      *engine.ConfigSync
	lifecycle *engine.Lifecycle
	auth      *engine.Authenticator
	env       *engine.EnvEditor
	ticker    *stream.Ticker
	logTail   *stream.LogTail
	closers   []func() error
}

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	global := flag.NewFlagSet("panel", flag.ContinueOnError)
	global.SetInterspersed(false)
	configPath := global.StringP("config", "c", "", "config file (default configs/config.*)")
	baseURL := global.String("base-url", "", "override panel.base_url")
	logLevel := global.String("log-level", "", "override runtime.log.level")
	global.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		global.PrintDefaults()
	}
	if err := global.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if global.NArg() == 0 {
		global.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Panel.BaseURL = *baseURL
	}
	if *logLevel != "" {
		cfg.Runtime.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-sigCh:
			log.Info("Interrupted.")
			cancel()
		case <-ctx.Done():
		}
	}()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("Startup failed.")
		os.Exit(1)
	}
	defer a.close()

	if err := a.run(ctx, global.Arg(0), global.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			global.Usage()
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		a.close()
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	storage, err := a.sessionStorage(ctx)
	if err != nil {
		return nil, err
	}
	store, err := session.New(ctx, storage, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store

	a.client = rest.New(cfg.Panel.BaseURL, store, cfg.Panel.Timeout, log)
	a.sync = engine.NewConfigSync(a.client, store, log)
	a.lifecycle = engine.NewLifecycle(a.client, a.sync, log)
	a.auth = engine.NewAuthenticator(a.client, store, log)
	a.env = engine.NewEnvEditor(a.client, log)
	a.ticker = stream.NewTicker(cfg.Panel.BaseURL, store, cfg.Stream, log)
	a.logTail = stream.NewLogTail(a.client, cfg.Stream, log)
	return a, nil
}

func (a *app) sessionStorage(ctx context.Context) (session.Storage, error) {
	switch a.cfg.Session.Backend {
	case config.SessionBackendRedis:
		rdb, err := session.DialRedis(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		return session.NewRedisStorage(rdb, a.cfg.Session.RedisPrefix), nil
	default:
		return session.NewFileStorage(a.cfg.Session.File), nil
	}
}

func (a *app) close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.log.WithError(err).Warn("Close failed.")
		}
	}
	a.closers = nil
}
