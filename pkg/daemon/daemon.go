package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devstat/devstat/pkg/config"
	"github.com/devstat/devstat/pkg/events"
	"github.com/devstat/devstat/pkg/monitor"
	"github.com/devstat/devstat/pkg/widget"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the widgets over HTTP.
type Server struct {
	conf    config.Config
	reg     *registry
	hub     *events.EventHub
	pub     *events.Publisher
	builder widget.Builder

	closing   chan struct{}
	closeOnce sync.Once
}

func NewServer(conf config.Config, builder widget.Builder) *Server {
	hub := events.NewEventHub()
	return &Server{
		conf:    conf,
		reg:     &registry{},
		hub:     hub,
		pub:     events.NewPublisher(hub),
		builder: builder,
		closing: make(chan struct{}),
	}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/widgets", s.listWidgets)
	router.GET("/widgets/:name", s.getWidget)
	router.PUT("/widgets/:name/level", s.setLevel)
	for _, cmd := range []monitor.Command{
		monitor.CmdIncrease,
		monitor.CmdDecrease,
		monitor.CmdRefresh,
		monitor.CmdToggleMute,
		monitor.CmdMute,
		monitor.CmdUnmute,
	} {
		router.PUT("/widgets/:name/"+string(cmd), s.command(cmd))
	}
	router.GET("/config", s.getConfig)
	router.GET("/events", s.streamEvents)
	router.GET("/version", getVersion)

	return router
}

// build creates engines for every configured widget without starting them.
func (s *Server) build() ([]*monitor.Engine, error) {
	widgets := s.conf.Widgets()
	engines := make([]*monitor.Engine, 0, len(widgets))
	for _, w := range widgets {
		e, err := s.builder.Build(w, monitor.WithPublisher(s.pub), monitor.WithEvents(s.hub))
		if err != nil {
			return nil, err
		}
		engines = append(engines, e)
	}
	return engines, nil
}

// Load builds the configured widgets, stops the running ones and starts the
// new set. A widget never publishes after its replacement's first update.
// A build error keeps the running widgets; a start error leaves them
// stopped until the next successful Load.
func (s *Server) Load(ctx context.Context) error {
	engines, err := s.build()
	if err != nil {
		return err
	}
	stopAll(s.reg.all())
	if err := startAll(ctx, engines); err != nil {
		return pkgerrors.Wrap(err, "failed to start widgets")
	}
	s.reg.swap(engines)
	return nil
}

// Close stops every widget and ends open event streams.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
	stopAll(s.reg.swap(nil))
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	if unixSocketPath == "" {
		unixSocketPath = conf.Socket()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := NewServer(conf, widget.Builder{})
	if err := s.Load(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Handler: s.Router(),
	}

	// A socket left behind by a crashed daemon would make Listen fail.
	if _, err := os.Stat(unixSocketPath); err == nil {
		if _, err := net.Dial("unix", unixSocketPath); err == nil {
			return pkgerrors.Errorf("another daemon is already listening on %s", unixSocketPath)
		}
		_ = os.Remove(unixSocketPath)
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", unixSocketPath)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to chmod %s", unixSocketPath)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// Serve HTTP on unix socket
	g.Go(func() error {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		s.pub.Run(gctx)
		return nil
	})

	// Receive SIGHUP to reload config
	g.Go(func() error {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		defer signal.Stop(sigc)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-sigc:
			}
			if err := conf.Load(); err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			if err := s.Load(gctx); err != nil {
				logrus.Errorf("failed to apply reloaded config: %v", err)
				continue
			}
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("shutting down")

		s.Close()

		logrus.Info("shutting down http server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.Errorf("failed to shutdown http server: %v", err)
		}
		return nil
	})

	err = g.Wait()
	logrus.Info("exiting")
	return err
}
