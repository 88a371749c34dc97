package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/BurntSushi/xdg"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		LogLevel:           ptr.To("info"),
		AllowNonRootAccess: ptr.To(false),
	}

	// Used when the file has no [[widget]] sections.
	defaultWidgets = []RawWidget{
		{Name: ptr.To(KindBattery), Kind: ptr.To(KindBattery)},
	}
)

// DefaultSocket is $XDG_RUNTIME_DIR/devstat.sock, or a per-user path in
// /tmp when there is no runtime dir.
func DefaultSocket() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "devstat.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("devstat-%d.sock", os.Getuid()))
}

// DefaultPath finds config.toml in $DEVSTAT_CONFIG_DIR or the XDG config
// dirs. When none exists it returns where a new one should be created.
func DefaultPath() string {
	paths := xdg.Paths{
		Override:  os.Getenv("DEVSTAT_CONFIG_DIR"),
		XDGSuffix: "devstat",
	}
	if p, err := paths.ConfigFile("config.toml"); err == nil {
		return p
	}
	if dir := os.Getenv("DEVSTAT_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "config.toml")
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "devstat", "config.toml")
}

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	widgets  []Widget
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) (*File, error) {
	if c == nil {
		c = &RawFileConfig{}
	}
	widgets, err := c.resolveWidgets()
	if err != nil {
		return nil, err
	}

	return &File{
		c:        c,
		widgets:  widgets,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}, nil
}

type RawFileConfig struct {
	Socket             *string     `toml:"socket,omitempty"`
	LogLevel           *string     `toml:"log_level,omitempty"`
	AllowNonRootAccess *bool       `toml:"allow_non_root,omitempty"`
	Widgets            []RawWidget `toml:"widget,omitempty"`
}

func (c *RawFileConfig) resolveWidgets() ([]Widget, error) {
	raw := c.Widgets
	if len(raw) == 0 {
		raw = defaultWidgets
	}

	seen := make(map[string]bool, len(raw))
	widgets := make([]Widget, 0, len(raw))
	for i, rw := range raw {
		w, err := rw.Resolve()
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "widget #%d", i+1)
		}
		if seen[w.Name] {
			return nil, pkgerrors.Errorf("duplicate widget name %q", w.Name)
		}
		seen[w.Name] = true
		widgets = append(widgets, w)
	}
	return widgets, nil
}

func (f *File) Path() string {
	return f.filepath
}

func (f *File) Socket() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.Socket != nil && *f.c.Socket != "" {
		return *f.c.Socket
	}
	return DefaultSocket()
}

func (f *File) LogLevel() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.LogLevel != nil {
		return *f.c.LogLevel
	}
	return *defaultFileConfig.LogLevel
}

func (f *File) AllowNonRootAccess() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.AllowNonRootAccess != nil {
		return *f.c.AllowNonRootAccess
	}
	return *defaultFileConfig.AllowNonRootAccess
}

func (f *File) Widgets() []Widget {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return append([]Widget(nil), f.widgets...)
}

func (f *File) Widget(name string) (Widget, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, w := range f.widgets {
		if w.Name == name {
			return w, true
		}
	}
	return Widget{}, false
}

func (f *File) SetAllowNonRootAccess(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) SetLogLevel(level string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.LogLevel = &level
}

// Load replaces the configuration with the file's content. A missing or
// empty file is the default configuration. On error nothing changes.
func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conf := &RawFileConfig{}

	b, err := os.ReadFile(f.filepath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	case strings.TrimSpace(string(b)) != "":
		md, err := toml.Decode(string(b), conf)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to decode config from file %s", f.filepath)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			logrus.WithField("keys", undecoded).Warn("unknown keys in config file")
		}
	}

	widgets, err := conf.resolveWidgets()
	if err != nil {
		return pkgerrors.Wrapf(err, "invalid config file %s", f.filepath)
	}

	f.c = conf
	f.widgets = widgets
	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	if err := os.MkdirAll(filepath.Dir(f.filepath), 0755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create config dir for %s", f.filepath)
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	err = toml.NewEncoder(fp).Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	names := make([]string, 0, len(f.Widgets()))
	for _, w := range f.Widgets() {
		names = append(names, w.Name+":"+w.Kind)
	}

	return logrus.Fields{
		"path":               f.filepath,
		"socket":             f.Socket(),
		"logLevel":           f.LogLevel(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
		"widgets":            names,
	}
}
