package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/joyboxhq/funnel/internal/api"
	"github.com/joyboxhq/funnel/internal/event"
	"github.com/joyboxhq/funnel/internal/flow"
	"github.com/joyboxhq/funnel/internal/insight"
	"github.com/joyboxhq/funnel/internal/notify"
	"github.com/joyboxhq/funnel/internal/result"
	"github.com/joyboxhq/funnel/internal/telemetry"
	"github.com/joyboxhq/funnel/internal/toy"
	"github.com/joyboxhq/funnel/internal/waitlist"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Redis struct {
		Flow struct {
			Addrs  []string
			Pass   string
			Prefix string
			TTL    time.Duration
		}

		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		Results struct {
			Addr string
			User string
			Pass string
			Name string
		}

		Catalog struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Mailer struct {
		URL         string
		Interval    time.Duration
		MaxAttempts int
	}

	Chat struct {
		UpstreamURL string
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			flow   redis.UniversalClient
			pubsub redis.UniversalClient
		}

		postgres struct {
			results *pgxpool.Pool
			catalog *pgxpool.Pool
		}
	}

	service struct {
		flow     *flow.Service
		result   *result.Service
		toy      *toy.Service
		insight  *insight.Service
		waitlist *waitlist.Service
	}

	dispatcher     *notify.Dispatcher
	stopDispatcher context.CancelFunc

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.flow, err = connect(s.c.Redis.Flow.Addrs, s.c.Redis.Flow.Pass)
	if err != nil {
		return fmt.Errorf("flow: %w", err)
	}

	s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() (err error) {
	connect := func(addr, user, pass, name string) (*pgxpool.Pool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", user, pass, addr, name))
		if err != nil {
			return nil, err
		}

		db, err := pgxpool.NewWithConfig(ctx, cc)
		if err != nil {
			return nil, err
		}

		if err := db.Ping(ctx); err != nil {
			return nil, err
		}

		return db, nil
	}

	s.infra.postgres.results, err = connect(s.c.Postgres.Results.Addr, s.c.Postgres.Results.User, s.c.Postgres.Results.Pass, s.c.Postgres.Results.Name)
	if err != nil {
		return fmt.Errorf("postgres: results: %w", err)
	}

	s.infra.postgres.catalog, err = connect(s.c.Postgres.Catalog.Addr, s.c.Postgres.Catalog.User, s.c.Postgres.Catalog.Pass, s.c.Postgres.Catalog.Name)
	if err != nil {
		return fmt.Errorf("postgres: catalog: %w", err)
	}

	return nil
}

func (s *Server) initService() {
	s.service.result = result.NewService(result.Config{
		DB:       s.infra.postgres.results,
		EventBus: s.eb,
	})

	s.service.flow = flow.NewService(flow.Config{
		Redis:    s.infra.redis.flow,
		Prefix:   s.c.Redis.Flow.Prefix,
		StateTTL: s.c.Redis.Flow.TTL,
		Recorder: s.service.result,
	})

	s.service.toy = toy.NewService(toy.Config{
		DB: s.infra.postgres.catalog,
	})

	s.service.insight = insight.NewService(insight.Config{
		DB:      s.infra.postgres.results,
		Results: s.service.result,
	})

	s.service.waitlist = waitlist.NewService(waitlist.Config{
		DB:       s.infra.postgres.results,
		Redis:    s.infra.redis.flow,
		Prefix:   s.c.Redis.Flow.Prefix,
		EventBus: s.eb,
	})

	s.dispatcher = notify.NewDispatcher(notify.Config{
		DB:          s.infra.postgres.results,
		EventBus:    s.eb,
		MailerURL:   s.c.Mailer.URL,
		Interval:    s.c.Mailer.Interval,
		MaxAttempts: s.c.Mailer.MaxAttempts,
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())
	e.Use(telemetry.HTTPMetrics())

	api.New(api.Config{
		Engine:          e,
		EventBus:        s.eb,
		Flow:            s.service.flow,
		Results:         s.service.result,
		Toys:            s.service.toy,
		Insights:        s.service.insight,
		Waitlist:        s.service.waitlist,
		Redis:           s.infra.redis.pubsub,
		PubsubPrefix:    s.c.Redis.Pubsub.Prefix,
		ChatUpstreamURL: s.c.Chat.UpstreamURL,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopDispatcher = cancel

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, "server: notification dispatcher running")
		s.dispatcher.Run(ctx)
		return nil
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.stopDispatcher != nil {
		s.stopDispatcher()
	}

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	slog.InfoContext(ctx, "server: shutdown completed")
}
