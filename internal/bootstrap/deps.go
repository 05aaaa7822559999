package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/Domenick1991/ticketqueue/config"
	"github.com/Domenick1991/ticketqueue/internal/cache"
	"github.com/Domenick1991/ticketqueue/internal/events"
	"github.com/Domenick1991/ticketqueue/internal/kafka"
	"github.com/Domenick1991/ticketqueue/internal/rabbitmq"
	"github.com/Domenick1991/ticketqueue/internal/repository"
	"github.com/Domenick1991/ticketqueue/internal/service/admission"
	"github.com/Domenick1991/ticketqueue/internal/service/availability"
	"github.com/Domenick1991/ticketqueue/internal/service/sweeper"
	"github.com/Domenick1991/ticketqueue/internal/service/waitlist"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps is everything cmd/app, cmd/worker and queuectl share.
type Deps struct {
	Pool         *pgxpool.Pool
	Cache        *cache.RedisCache
	Emitter      events.Emitter
	Waitlist     *waitlist.WaitlistService
	Admission    *admission.AdmissionService
	Availability *availability.AvailabilityService
	Sweeper      *sweeper.Sweeper

	closers []func() error
}

func Build(ctx context.Context, cfg *config.Config) (*Deps, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	d := &Deps{Pool: pool}
	d.closers = append(d.closers, func() error { pool.Close(); return nil })

	uow := repository.NewUnitOfWork(pool, cfg.Database.LockTimeout())

	var availabilityCache availability.Cache
	if cfg.Redis.Addr != "" {
		d.Cache = cache.NewRedisCache(cfg.Redis, cfg.Availability.CacheTTL())
		d.closers = append(d.closers, d.Cache.Close)
		availabilityCache = d.Cache
	}

	emitter, closeEmitter, err := NewEmitter(cfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Emitter = emitter
	d.closers = append(d.closers, closeEmitter)

	d.Admission = admission.NewAdmissionService(uow, admission.Config{
		Lease:        cfg.Admission.Lease(),
		RequireToken: cfg.Admission.RequireToken,
		MaxPerClaim:  cfg.Admission.MaxPerClaim,
	}, admission.WithEmitter(emitter))
	d.Waitlist = waitlist.NewWaitlistService(uow, waitlist.WithEmitter(emitter))
	d.Availability = availability.NewAvailabilityService(uow, availabilityCache)

	sweepOpts := []sweeper.SweeperOption{
		sweeper.WithEmitter(emitter),
		sweeper.WithBatch(cfg.Worker.SweepBatch),
	}
	if cfg.Worker.SweepLock && d.Cache != nil {
		sweepOpts = append(sweepOpts, sweeper.WithLocker(d.Cache, cfg.Worker.SweepLockTTL()))
	}
	d.Sweeper = sweeper.New(uow, d.Admission, sweepOpts...)

	return d, nil
}

// Close releases resources in reverse order of creation.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
	d.closers = nil
}

// NewEmitter picks the broker by events.driver.
func NewEmitter(cfg *config.Config) (events.Emitter, func() error, error) {
	switch cfg.Events.Driver {
	case config.DriverKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, nil, fmt.Errorf("events.driver is kafka but kafka.brokers is empty")
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		return events.NewNotifier(producer, cfg.Kafka.EventsTopic), producer.Close, nil
	case config.DriverRabbitMQ:
		if cfg.RabbitMQ.URL == "" {
			return nil, nil, fmt.Errorf("events.driver is rabbitmq but rabbitmq.url is empty")
		}
		publisher := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		return events.NewNotifier(publisher, cfg.Kafka.EventsTopic), publisher.Close, nil
	default:
		return events.Nop{}, func() error { return nil }, nil
	}
}
