package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/duet/internal/client/client"
	"github.com/dmitrijs2005/duet/internal/client/config"
	"github.com/dmitrijs2005/duet/internal/client/device"
	"github.com/dmitrijs2005/duet/internal/client/screens"
	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// pingTimeout bounds one connectivity probe.
const pingTimeout = 3 * time.Second

type App struct {
	config  *config.Config
	client  client.Client
	capture device.Capture
	logger  logging.Logger
	reader  *bufio.Reader

	mu      sync.Mutex
	mode    Mode
	session session.Session
	// screens are opened lazily and live until logout.
	screens map[string]screens.Screen
	// mood is the key of the last opened mood space.
	mood string
}

func NewApp(c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	apiClient, err := client.NewDuetClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:  c,
		client:  apiClient,
		logger:  logging.NewTextLogger(os.Stderr, level),
		reader:  bufio.NewReader(os.Stdin),
		screens: map[string]screens.Screen{},
	}
	a.capture = device.NewFileCapture(a.ask)
	return a, nil
}

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, os.Stdout)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		printlnFn(fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		a.closeScreens()
		if err := a.client.Close(); err != nil {
			a.logger.Warn(ctx, "closing connection", "error", err)
		}
	}()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Valid()
}

func (a *App) currentSession() session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// checkOnline probes the server once and updates the mode.
func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.client.Ping(ctx)
	cancel()

	if err != nil {
		a.logger.Debug(ctx, "ping failed", "error", err)
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
