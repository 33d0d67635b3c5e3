package cli

import (
	"fmt"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/internal/conversation"
	"github.com/ragline/ragline/internal/gateway"
	"github.com/ragline/ragline/internal/logging"
	"github.com/ragline/ragline/internal/session"
	"github.com/ragline/ragline/internal/storage"
)

// app wires the stores and the gateway for one command invocation:
// explicit construction-time wiring instead of ambient globals.
type app struct {
	cfg           *config.Config
	state         *storage.StateStore
	gateway       *gateway.Client
	session       *session.Store
	conversations *conversation.Store

	closers []func() error
}

// newApp loads config, sets up logging, opens the state store, and builds
// the gateway and both stores. notifier nil means errors surface on
// stderr.
func newApp(notifier gateway.Notifier) (*app, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if statePath != "" {
		cfg.StatePath = statePath
	}

	a := &app{cfg: cfg}

	closeLog, err := logging.Setup(cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	a.closers = append(a.closers, closeLog)

	state, err := storage.NewStateStore(cfg.StatePath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	a.state = state
	a.closers = append(a.closers, state.Close)

	if notifier == nil {
		notifier = stderrNotifier{}
	}
	gw, err := gateway.NewClient(cfg.BaseURL(),
		gateway.WithNotifier(notifier),
		gateway.WithNavigator(terminalNavigator{}),
		gateway.WithCookieStore(state),
		gateway.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.gateway = gw

	a.session = session.NewStore(gw, state)
	a.conversations = conversation.NewStore(gw, state)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
