package gui

import (
	"context"
	"fmt"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/client"
	"github.com/devstat/devstat/pkg/events"
	"github.com/devstat/devstat/pkg/monitor"
)

// menuController owns the tray menu of a single widget.
type menuController struct {
	api    *client.Client
	widget string

	statusItem  *systray.MenuItem
	watcherItem *systray.MenuItem

	increaseItem   *systray.MenuItem
	decreaseItem   *systray.MenuItem
	toggleMuteItem *systray.MenuItem
	refreshItem    *systray.MenuItem
	quitItem       *systray.MenuItem

	// eventCancel cancels the SSE event subscription goroutine
	eventCancel context.CancelFunc
}

func newMenuController(api *client.Client, widget string) *menuController {
	return &menuController{api: api, widget: widget}
}

func (c *menuController) onReady() {
	systray.SetTitle(titleLoading)
	systray.SetTooltip("devstat - " + c.widget)

	c.statusItem = systray.AddMenuItem("Status: Connecting...", "Current widget status")
	c.statusItem.Disable()
	c.watcherItem = systray.AddMenuItem("Watcher: -", "Change watcher state")
	c.watcherItem.Disable()

	systray.AddSeparator()

	c.increaseItem = systray.AddMenuItem("Increase", "Raise the level by one step")
	c.decreaseItem = systray.AddMenuItem("Decrease", "Lower the level by one step")
	c.toggleMuteItem = systray.AddMenuItem("Toggle Mute", "Mute or unmute the device")
	c.refreshItem = systray.AddMenuItem("Refresh", "Read the device again")

	systray.AddSeparator()
	c.quitItem = systray.AddMenuItem("Quit", tooltipQuit)

	c.refresh()

	ctx, cancel := context.WithCancel(context.Background())
	c.eventCancel = cancel
	go c.handleClicks(ctx)
	go c.startEventBridge(ctx)
}

func (c *menuController) onExit() {
	if c.eventCancel != nil {
		c.eventCancel()
	}
	logrus.Info("devstat tray exiting")
}

func (c *menuController) handleClicks(ctx context.Context) {
	for {
		var cmd monitor.Command
		select {
		case <-ctx.Done():
			return
		case <-c.increaseItem.ClickedCh:
			cmd = monitor.CmdIncrease
		case <-c.decreaseItem.ClickedCh:
			cmd = monitor.CmdDecrease
		case <-c.toggleMuteItem.ClickedCh:
			cmd = monitor.CmdToggleMute
		case <-c.refreshItem.ClickedCh:
			cmd = monitor.CmdRefresh
		case <-c.quitItem.ClickedCh:
			systray.Quit()
			return
		}

		if _, err := c.api.Command(c.widget, cmd); err != nil {
			logrus.WithError(err).WithField("command", cmd).Error("failed to send command")
			systray.SetTitle(titleOffline)
		}
	}
}

// refresh pulls the full widget status. Events only carry the display.
func (c *menuController) refresh() {
	st, err := c.api.GetWidget(c.widget)
	if err != nil {
		systray.SetTitle(titleOffline)
		c.statusItem.SetTitle("Status: Disconnected")
		c.watcherItem.SetTitle("Watcher: -")
		logrus.WithError(err).Warn("cannot get widget from daemon")
		return
	}

	systray.SetTitle(trayTitle(c.widget, st.Display))
	c.statusItem.SetTitle(statusLine(st.Display))
	c.watcherItem.SetTitle(fmt.Sprintf("Watcher: %s (%s)", st.Watcher, st.WatcherState))
	c.toggleControls(st.Controllable)
}

func (c *menuController) toggleControls(controllable bool) {
	for _, it := range []*systray.MenuItem{c.increaseItem, c.decreaseItem, c.toggleMuteItem} {
		if controllable {
			it.Show()
		} else {
			it.Hide()
		}
	}
}

// startEventBridge subscribes to client events and updates the tray on demand.
func (c *menuController) startEventBridge(ctx context.Context) {
	evCh := c.api.SubscribeEvents(ctx, events.DisplayUpdate, events.WatcherState, events.CommandFailed)

	for ev := range evCh {
		logrus.WithFields(logrus.Fields{
			"event": ev.Name,
			"data":  string(ev.Data),
		}).Debug("new event")

		switch ev.Name {
		case events.DisplayUpdate:
			payload, err := events.DecodeAs[events.DisplayUpdateEvent](ev)
			if err != nil {
				logrus.WithError(err).Error("failed to decode display.update event")
				continue
			}
			if payload.Widget != c.widget {
				continue
			}
			systray.SetTitle(trayTitle(c.widget, payload.State))
			c.statusItem.SetTitle(statusLine(payload.State))
		case events.WatcherState:
			payload, err := events.DecodeAs[events.WatcherStateEvent](ev)
			if err != nil {
				logrus.WithError(err).Error("failed to decode watcher.state event")
				continue
			}
			if payload.Widget == c.widget {
				c.watcherItem.SetTitle(fmt.Sprintf("Watcher: %s (%s)", payload.Watcher, payload.State))
			}
		case events.CommandFailed:
			payload, err := events.DecodeAs[events.CommandFailedEvent](ev)
			if err != nil {
				logrus.WithError(err).Error("failed to decode command.failed event")
				continue
			}
			if payload.Widget == c.widget {
				systray.SetTooltip(commandFailedTooltip(payload))
			}
		}
	}
}
