package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Domenick1991/ticketqueue/config"
	"github.com/Domenick1991/ticketqueue/internal/bootstrap"
	"github.com/Domenick1991/ticketqueue/internal/email"
	"github.com/Domenick1991/ticketqueue/internal/kafka"
	"github.com/Domenick1991/ticketqueue/internal/rabbitmq"
	"github.com/Domenick1991/ticketqueue/internal/scheduler"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer deps.Close()

	sender := email.NewSender(cfg.Email)
	var wg sync.WaitGroup

	switch cfg.Events.Driver {
	case config.DriverKafka:
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.ConsumeEvents(ctx, sender.Send); err != nil {
				log.Printf("consumer stopped: %v", err)
			}
		}()
	case config.DriverRabbitMQ:
		consumer := rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Consume(ctx, sender.Send); err != nil {
				log.Printf("consumer stopped: %v", err)
			}
		}()
	default:
		log.Printf("events driver %q: notifications disabled", cfg.Events.Driver)
	}

	sched := scheduler.New(deps.Sweeper, cfg.Worker.SweepInterval(), scheduler.WithImmediateRun())
	log.Printf("worker: sweeping every %s", cfg.Worker.SweepInterval())
	sched.Start(ctx)

	wg.Wait()
	log.Printf("worker: shut down")
}
