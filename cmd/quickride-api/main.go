// README: Entry point; loads config, wires the engine, event sinks and HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quickride/internal/config"
	httptransport "quickride/internal/http"
	"quickride/internal/infra"
	"quickride/internal/modules/chat"
	"quickride/internal/modules/events"
	"quickride/internal/modules/ride"
	"quickride/internal/places"
	"quickride/internal/sched"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := infra.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("quickride-api stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	sinks, closeSinks, err := buildSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	hub := events.NewHub()
	bus := events.NewBus(hub, log, sinks...)

	loop := sched.NewLoop(sched.SystemClock{}, log)
	reg := ride.NewRegistry()
	chatSvc := chat.NewService(reg, loop, hub, cfg.Chat, chat.WithLogger(log), chat.WithEvents(bus))
	rideSvc := ride.NewService(reg, loop, cfg.Lifecycle,
		ride.WithLogger(log), ride.WithEvents(bus), ride.WithChatCloser(chatSvc))

	if cfg.Lifecycle.SeedHistory {
		if _, err := rideSvc.SeedHistory(); err != nil {
			return err
		}
	}
	if err := rideSvc.Start(); err != nil {
		return err
	}

	suggester, closePlaces := buildPlaces(ctx, placeProviders(cfg), log)
	defer closePlaces()

	// Deferred after closeSinks, so workers are gone before sinks close.
	stopWorkers := startWorkers(ctx, bus.Run, loop.Run)
	defer stopWorkers()

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Rides:  rideSvc,
		Chat:   chatSvc,
		Hub:    bus.Hub(),
		Places: suggester,
		Log:    log,
	})
	return httptransport.NewServer(cfg.HTTP.Addr, router, log).Run(ctx)
}

// buildSinks connects every configured event sink. The log sink is always on.
func buildSinks(ctx context.Context, cfg config.Config, log *logrus.Logger) ([]events.Sink, func(), error) {
	sinks := []events.Sink{events.NewLogSink(log)}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Redis.Addr != "" {
		client, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		sinks = append(sinks, events.NewRedisSink(client, cfg.Redis.Channel))
		log.WithField("channel", cfg.Redis.Channel).Info("redis event sink enabled")
	}

	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		pg := events.NewPostgresSink(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, pg)
		log.Info("postgres event sink enabled")
	}

	if cfg.AMQP.URL != "" {
		conn, ch, err := infra.NewAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() {
			_ = ch.Close()
			_ = conn.Close()
		})
		sinks = append(sinks, events.NewAMQPSink(ch, cfg.AMQP.Exchange))
		log.WithField("exchange", cfg.AMQP.Exchange).Info("amqp event sink enabled")
	}

	return sinks, closeAll, nil
}

// startWorkers runs each fn on a child of ctx. The returned stop cancels
// them and blocks until all have returned.
func startWorkers(ctx context.Context, fns ...func(context.Context)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}
	return func() {
		cancel()
		wg.Wait()
	}
}

type placeProvider struct {
	name string
	open func(ctx context.Context) (places.Suggester, func(), error)
}

// placeProviders lists the configured providers in order of preference.
func placeProviders(cfg config.Config) []placeProvider {
	var out []placeProvider
	if key := cfg.Places.MapsKey; key != "" {
		out = append(out, placeProvider{name: "google maps", open: func(context.Context) (places.Suggester, func(), error) {
			m, err := places.NewMaps(key)
			if err != nil {
				return nil, nil, err
			}
			return m, func() {}, nil
		}})
	}
	if key := cfg.Places.GeminiKey; key != "" {
		out = append(out, placeProvider{name: "gemini", open: func(ctx context.Context) (places.Suggester, func(), error) {
			g, err := places.NewGemini(ctx, key)
			if err != nil {
				return nil, nil, err
			}
			return g, func() { _ = g.Close() }, nil
		}})
	}
	return out
}

// buildPlaces uses the first provider that opens and always keeps the static
// list as a fallback.
func buildPlaces(ctx context.Context, providers []placeProvider, log logrus.FieldLogger) (places.Suggester, func()) {
	for _, p := range providers {
		s, closeFn, err := p.open(ctx)
		if err != nil {
			log.WithError(err).WithField("provider", p.name).Warn("place provider disabled")
			continue
		}
		log.WithField("provider", p.name).Info("place suggestions enabled")
		return places.Fallback{Primary: s, Secondary: places.Static{}, Log: log}, closeFn
	}
	log.Info("place suggestions via static list")
	return places.Static{}, func() {}
}
