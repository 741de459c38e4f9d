package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kadm"
	"go.uber.org/zap"

	"guardhouse/internal/dispatch"
	"guardhouse/internal/dispatch/push"
	dutytypeCache "guardhouse/internal/dutytype/cache"
	dutytypeHandler "guardhouse/internal/dutytype/handler"
	dutytypeService "guardhouse/internal/dutytype/service"
	jwttoken "guardhouse/internal/jwt_token"
	notificationHandler "guardhouse/internal/notification/handler"
	notificationMetrics "guardhouse/internal/notification/metrics"
	notificationService "guardhouse/internal/notification/service"
	"guardhouse/internal/objectstore"
	"guardhouse/internal/outbox"
	"guardhouse/internal/platform/config"
	httpMetrics "guardhouse/internal/platform/metrics"
	"guardhouse/internal/platform/redis"
	ratelimitMetrics "guardhouse/internal/ratelimit/metrics"
	ratelimit "guardhouse/internal/ratelimit/middleware"
	ratelimitModels "guardhouse/internal/ratelimit/models"
	"guardhouse/internal/ratelimit/store/bucket"
	rosterHandler "guardhouse/internal/roster/handler"
	rosterMetrics "guardhouse/internal/roster/metrics"
	rosterService "guardhouse/internal/roster/service"
)

const (
	outboxPartitions  = 3
	outboxReplication = 1
)

// app is the wired process: the HTTP router plus the background pieces main
// runs next to it.
type app struct {
	router     http.Handler
	worker     *outbox.Worker
	dispatcher *dispatch.Dispatcher
	closers    []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg config.Config, log *zap.Logger, reg *prometheus.Registry) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	stores, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = stores.Close() })

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
	}

	files, err := objectstore.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}
	log.Info("object store ready", zap.String("backend", cfg.Storage.Backend))

	notifications := notificationService.New(stores.events, stores.allocator, stores.runner,
		notificationService.WithLogger(log.Named("notifications")),
		notificationService.WithMetrics(notificationMetrics.New(reg)),
	)

	pushCfg := push.Config{
		AppID:   cfg.Push.OneSignalAppID,
		APIKey:  cfg.Push.OneSignalAPIKey,
		BaseURL: cfg.Push.BaseURL,
		Timeout: cfg.Push.Timeout,
		Retries: cfg.Push.Retries,
	}
	if !pushCfg.Enabled() {
		log.Warn("push credentials not set, pushes will be skipped")
	}
	a.dispatcher = dispatch.New(notifications, push.New(pushCfg, push.WithLogger(log.Named("push"))),
		dispatch.WithLogger(log.Named("dispatch")),
		dispatch.WithMetrics(dispatch.NewMetrics(reg)),
		dispatch.WithTimeout(cfg.Dispatch.Timeout),
		dispatch.WithMaxInFlight(int64(cfg.Dispatch.MaxInFlight)),
	)

	dutyTypeOpts := []dutytypeService.Option{dutytypeService.WithLogger(log.Named("duty_types"))}
	if redisClient != nil {
		dutyTypeOpts = append(dutyTypeOpts, dutytypeService.WithCache(
			dutytypeCache.New(stores.dutyTypes, redisClient, cfg.Redis.DutyTypeTTL, log.Named("duty_type_cache")),
		))
	}
	dutyTypes := dutytypeService.New(stores.dutyTypes, stores.dependents, stores.runner, dutyTypeOpts...)

	roster := rosterService.New(rosterService.Deps{
		Owners:     stores.owners,
		Dependents: stores.dependents,
		DutyTypes:  dutyTypes,
		Allocator:  stores.allocator,
		Outbox:     stores.outbox,
		Events:     stores.events,
		Runner:     stores.runner,
	},
		rosterService.WithLogger(log.Named("roster")),
		rosterService.WithMetrics(rosterMetrics.New(reg)),
		rosterService.WithDispatcher(a.dispatcher),
		rosterService.WithObjectStore(files),
	)

	publisher, closePublisher, err := newPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closePublisher)
	a.worker = outbox.NewWorker(stores.outbox, publisher, stores.runner,
		outbox.WithLogger(log.Named("outbox")),
		outbox.WithMetrics(outbox.NewMetrics(reg)),
		outbox.WithInterval(cfg.Outbox.Interval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithMaxAttempts(cfg.Outbox.MaxAttempts),
	)

	var buckets ratelimit.BucketStore = bucket.NewInMemoryBucketStore()
	if redisClient != nil {
		buckets = bucket.NewRedisBucketStore(redisClient)
	}
	limiter := ratelimit.New(buckets, log.Named("ratelimit"),
		ratelimit.WithDisabled(!cfg.Limits.Enabled),
		ratelimit.WithMetrics(ratelimitMetrics.New(reg)),
		ratelimit.WithLimit(ratelimitModels.ClassRead, ratelimitModels.Limit{Requests: cfg.Limits.Reads, Window: cfg.Limits.Window}),
		ratelimit.WithLimit(ratelimitModels.ClassWrite, ratelimitModels.Limit{Requests: cfg.Limits.Writes, Window: cfg.Limits.Window}),
	)

	a.router = newRouter(routerDeps{
		cfg:           cfg.Server,
		logger:        log,
		metrics:       httpMetrics.New(reg),
		gatherer:      reg,
		validator:     jwttoken.NewValidator(jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)),
		limiter:       limiter,
		roster:        rosterHandler.New(roster, files, log.Named("roster_http")),
		dutyTypes:     dutytypeHandler.New(dutyTypes, log.Named("duty_type_http")),
		notifications: notificationHandler.New(notifications, log.Named("notification_http")),
		ready: func(ctx context.Context) error {
			if err := stores.ping(ctx); err != nil {
				return err
			}
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	})
	return a, nil
}

// newPublisher relays the outbox to Kafka when brokers are configured and to
// the log otherwise.
func newPublisher(ctx context.Context, cfg config.Kafka, log *zap.Logger) (outbox.Publisher, func(), error) {
	if len(cfg.Brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, outbox entries will be logged")
		return outbox.NewLogPublisher(log.Named("outbox_log")), func() {}, nil
	}
	client, err := outbox.NewKafkaClient(cfg.Brokers, cfg.OutboxTopic)
	if err != nil {
		return nil, nil, err
	}
	if err := outbox.EnsureTopic(ctx, kadm.NewClient(client), cfg.OutboxTopic, outboxPartitions, outboxReplication); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ensure outbox topic: %w", err)
	}
	log.Info("relaying outbox to kafka", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.OutboxTopic))
	return outbox.NewKafkaPublisher(client, cfg.OutboxTopic), client.Close, nil
}
