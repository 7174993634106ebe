package backend

import (
	"context"
	"fmt"
	"log/slog"

	"hamsterwallet/internal/amqp"
	"hamsterwallet/internal/services"
	"hamsterwallet/internal/storage"
	"hamsterwallet/internal/upstream/memory"
	"hamsterwallet/internal/upstream/rest"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RemoteBackend:
		return f.createRemoteBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRemoteBackend(config Config) (*Result, error) {
	client := rest.New(config.APIBaseURL, nil)
	f.logger.Info("Initialized remote backend", "api_base_url", config.APIBaseURL)
	return &Result{Backend: client}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	// AMQP is optional; without a broker the local mode simply skips the
	// export pipeline.
	var mq *amqp.Client
	if config.AMQPURL != "" {
		mq, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without export", "error", err)
			mq = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewExportService(repo, mq)
	f.logger.Info("Initialized sqlite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", mq != nil)

	return &Result{Backend: svc, Cleanup: svc.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*Result, error) {
	f.logger.Info("Initialized memory backend")
	return &Result{Backend: memory.NewSeeded()}, nil
}
