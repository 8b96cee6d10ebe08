package ui

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/reaperio/autoitem/internal/catalog"
	"github.com/reaperio/autoitem/internal/export"
)

//go:embed icon.png
var iconBytes []byte

const exportTimeout = 5 * time.Minute

// Exporter is the slice of the catalog service the tray drives.
type Exporter interface {
	ExportAgain(ctx context.Context) (*catalog.Job, *export.Summary, error)
	CountScenes(ctx context.Context) (int, error)
}

type Tray struct {
	exporter Exporter
	logger   *slog.Logger

	statusItem *systray.MenuItem
	scenesItem *systray.MenuItem
	againItem  *systray.MenuItem

	mu      sync.Mutex
	busy    bool
	setText func(item *systray.MenuItem, title string)

	onQuit func()
}

type TrayConfig struct {
	Exporter Exporter
	Logger   *slog.Logger
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		exporter: cfg.Exporter,
		logger:   cfg.Logger,
		onQuit:   cfg.OnQuit,
		setText: func(item *systray.MenuItem, title string) {
			if item != nil {
				item.SetTitle(title)
			}
		},
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("AutoItem")
	systray.SetTooltip("REAPER automation export agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.scenesItem = systray.AddMenuItem("Scenes: 0", "Registered scenes")
	t.scenesItem.Disable()
	t.refreshScenes()

	systray.AddSeparator()

	t.againItem = systray.AddMenuItem("Export Again", "Repeat the last successful export")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit the agent")

	go func() {
		for {
			select {
			case <-t.againItem.ClickedCh:
				go t.ExportAgain()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// ExportAgain repeats the last completed export and reports the outcome in
// the status line. Clicks while an export is running are ignored.
func (t *Tray) ExportAgain() string {
	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return ""
	}
	t.busy = true
	t.mu.Unlock()

	t.UpdateStatus("Exporting...")

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	var status string
	_, summary, err := t.exporter.ExportAgain(ctx)
	switch {
	case errors.Is(err, catalog.ErrNoPriorExport):
		status = "Nothing to export yet"
	case err != nil:
		t.logger.Error("export from tray failed", "error", err)
		status = "Export failed"
	default:
		t.logger.Info("export from tray completed", "output_dir", summary.OutputDir, "ticks", summary.Ticks)
		status = "Exported " + summary.Message()
	}

	t.mu.Lock()
	t.busy = false
	t.mu.Unlock()

	t.UpdateStatus(status)
	return status
}

func (t *Tray) refreshScenes() {
	count, err := t.exporter.CountScenes(context.Background())
	if err != nil {
		t.logger.Warn("failed to count scenes", "error", err)
		return
	}
	t.UpdateScenesCount(count)
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setText(t.statusItem, "Status: "+status)
}

func (t *Tray) UpdateScenesCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setText(t.scenesItem, fmt.Sprintf("Scenes: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
