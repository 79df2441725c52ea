package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/ned/internal/config"
	"github.com/OFFIS-RIT/ned/internal/queue"
	"github.com/OFFIS-RIT/ned/internal/storage"
	"github.com/OFFIS-RIT/ned/internal/util"
	"github.com/OFFIS-RIT/ned/pkg/graph"
	"github.com/OFFIS-RIT/ned/pkg/leaselock"
	s3loader "github.com/OFFIS-RIT/ned/pkg/loader/s3"
	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/logger/console"
	"github.com/OFFIS-RIT/ned/pkg/oracle/wiki"
	pgxstore "github.com/OFFIS-RIT/ned/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// Init s3 client
	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	// Init pgx client
	pgConn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()
	st := pgxstore.NewDBStorageWithConnection(pgConn)

	mode, err := config.ReplayMode()
	if err != nil {
		logger.Fatal("Invalid replay mode", "err", err)
	}
	wikiClient := wiki.NewClient(config.WikiParams())

	processor := &queue.Processor{
		Graph:   graph.NewGraphClient(config.GraphParams()),
		Oracles: config.Oracles(config.WikiOracles(wikiClient), st, mode),
		Results: st,
		Loader:  s3loader.NewS3DocumentLoaderWithClient(storage.Bucket(), s3Client),
		Locks:   leaselock.New(pgConn),
		Lease: leaselock.Options{
			TTL: util.GetEnvDuration("NED_LEASE_TTL", leaselock.DefaultTTL),
		},
	}

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// One message at a time across all queues
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queue.Queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						stop()
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	logger.Info("Listening for messages")

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case queue.DisambiguateQueue:
					processingErr = processor.ProcessDisambiguateMessage(ctx, qm.msg.Body)
				default:
					processingErr = util.Permanent(fmt.Errorf("no handler for queue %s", qm.queueName))
				}

				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					queue.HandleProcessingError(consumerCh, qm.msg, qm.queueName, processingErr)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				logger.Info("Processing time", "duration", time.Since(startTime).Round(time.Millisecond))
				logger.Info("Waiting for next message")
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}
