package gui

const (
	titleLoading = "…"
	titleOffline = "🚫 Offline"

	tooltipQuit = `Quit the tray icon. The daemon keeps running.`
)
