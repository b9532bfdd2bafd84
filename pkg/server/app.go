package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"LottoStats/internal/handler/ws"
	"LottoStats/internal/usecase"
	pkgch "LottoStats/pkg/clickhouse"
	"LottoStats/pkg/config"
	xhttp "LottoStats/pkg/http"
	pkgkafka "LottoStats/pkg/kafka"
	applogger "LottoStats/pkg/logger"
	"LottoStats/pkg/queue"
)

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	chClient    *pkgch.Client

	hub       *ws.Hub
	queue     *queue.RedisQueue
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	collector *usecase.DrawCollector
	sync      *usecase.ResultSync
	proc      *usecase.DrawProcessor
	closers   []closer

	cancel  context.CancelFunc
	hubDone chan struct{}
}

// New creates a new App. Optional components are attached with the Set* methods.
func New(cfg *config.Config, l *applogger.Logger, h xhttp.Handler, chClient *pkgch.Client) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{
		cfg:         cfg,
		l:           l,
		httpHandler: h,
		chClient:    chClient,
	}
}

func (a *App) SetHub(h *ws.Hub) { a.hub = h }

func (a *App) SetQueue(q *queue.RedisQueue) { a.queue = q }

func (a *App) SetConsumer(c *pkgkafka.Consumer, kh pkgkafka.MessageHandler) {
	a.consumer = c
	a.kh = kh
}

func (a *App) SetCollector(c *usecase.DrawCollector) { a.collector = c }

func (a *App) SetSync(s *usecase.ResultSync) { a.sync = s }

// SetProcessor attaches the draw processor so its publisher is closed on shutdown.
func (a *App) SetProcessor(p *usecase.DrawProcessor) { a.proc = p }

// AddCloser registers infrastructure to close last, in reverse order of registration.
func (a *App) AddCloser(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Run starts every component and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Start launches the components in dependency order: hub, queue, consumer, sync, feed, HTTP.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	if a.hub != nil {
		a.hubDone = make(chan struct{})
		go func() {
			defer close(a.hubDone)
			_ = a.hub.Run(ctx)
		}()
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.l.Error("queue start error", applogger.Error(err))
			return err
		}
		a.l.Info("job queue started")
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer error", applogger.Error(err))
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.sync != nil {
		if err := a.sync.Start(ctx); err != nil {
			a.l.Error("result sync start error", applogger.Error(err))
			return err
		}
	}

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.l.Error("draw collector error", applogger.Error(err))
			}
		}()
		a.l.Info("draw collector started", applogger.Strings("lotteries", a.cfg.Lotteries))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path),
		xhttp.WithSlowRequest(a.cfg.Server.SlowRequest),
		xhttp.WithCORS(true, a.cfg.Server.CORSOrigins),
		xhttp.WithLogger(a.l),
	)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// Shutdown stops the components in reverse start order, then closes infrastructure clients.
func (a *App) Shutdown(ctx context.Context) error {
	a.l.Info("shutting down")
	var errs []error

	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
		cancel()
	}

	if a.cancel != nil {
		a.cancel()
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.l.Warn("draw collector stop error", applogger.Error(err))
		}
	}

	if a.sync != nil {
		if err := a.sync.Stop(ctx); err != nil {
			a.l.Warn("result sync stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.l.Warn("queue stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if a.hubDone != nil {
		select {
		case <-a.hubDone:
		case <-ctx.Done():
		}
	}

	// flush aggregated logs while the producer is still open
	a.l.RemoveCollector()

	if a.proc != nil {
		a.proc.Close()
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.l.Warn("close error", applogger.String("component", c.name), applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
