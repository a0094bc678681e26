// Package servecmder provides the serve command for running the
// consultation API server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sanahealth/sana/api"
	"github.com/sanahealth/sana/pkg/config"
	"github.com/sanahealth/sana/pkg/conversation"
	"github.com/sanahealth/sana/pkg/eventstream"
	eventkafka "github.com/sanahealth/sana/pkg/eventstream/kafka"
	"github.com/sanahealth/sana/pkg/eventstream/nop"
	"github.com/sanahealth/sana/pkg/eventstream/worker"
	"github.com/sanahealth/sana/pkg/history"
	"github.com/sanahealth/sana/pkg/history/inmemory"
	"github.com/sanahealth/sana/pkg/history/postgres"
	"github.com/sanahealth/sana/pkg/history/sqlite"
	"github.com/sanahealth/sana/pkg/logger"
	llmopenai "github.com/sanahealth/sana/pkg/llm/openai"
	"github.com/sanahealth/sana/pkg/medparse"
	"github.com/sanahealth/sana/pkg/pipeline"
	speechopenai "github.com/sanahealth/sana/pkg/speech/openai"
)

type ServeCommander struct {
	listen        string
	storageDriver string
	sqlitePath    string
	postgresDSN   string
	llmModel      string
	maxWindow     uint
	brokers       string
	topic         string
	debug         bool
	logger        *zap.Logger
	viper         *viper.Viper
}

const serveLongDesc string = `Run the sana consultation API server.

The server drives text and voice consultations: it keeps per-subject
session history, calls the language model for each turn, and converts
uploaded audio to a spoken reply.

Configuration comes from flags, SANA_* environment variables, and
config.toml, in that order of precedence.`

const serveShortDesc string = "Run the consultation API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.ServeFlags, []string{
				config.FlagListen,
				config.FlagStorageDriver,
				config.FlagSQLite,
				config.FlagPostgresDSN,
				config.FlagLLMModel,
				config.FlagMaxWindow,
				config.FlagBrokers,
				config.FlagTopic,
			})

			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagLLMModel, &cmder.llmModel)
	config.AddUintFlag(cmd, config.ServeFlags, config.FlagMaxWindow, &cmder.maxWindow)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagTopic, &cmder.topic)

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	cfg := config.LoadFromViper(c.viper)
	if cfg.LLM.APIKey == "" {
		return errors.New("no LLM API key: set SANA_LLM_API_KEY or OPENAI_API_KEY")
	}

	store, err := c.newHistoryStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := llmopenai.NewClient(llmopenai.Config{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	speech, err := speechopenai.NewClient(speechopenai.Config{
		APIKey:   cfg.LLM.APIKey,
		STTModel: cfg.Speech.STTModel,
		TTSModel: cfg.Speech.TTSModel,
		Voice:    cfg.Speech.TTSVoice,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("creating speech client: %w", err)
	}

	publisher, err := c.newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event worker pool: %w", err)
	}
	defer pool.Close()

	engine, err := conversation.NewEngine(conversation.Config{
		Store:     store,
		Client:    client,
		MaxWindow: int(cfg.Conversation.MaxWindow),
		Events:    pool,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating conversation engine: %w", err)
	}

	audio, err := pipeline.New(pipeline.Config{
		Engine:         engine,
		Transcriber:    speech,
		Synthesizer:    speech,
		MaxUploadBytes: cfg.Pipeline.MaxUploadBytes,
		Logger:         c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating audio pipeline: %w", err)
	}

	parser, err := medparse.NewParser(client)
	if err != nil {
		return fmt.Errorf("creating consultation parser: %w", err)
	}

	server := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
	}, engine, audio, parser, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

func (c *ServeCommander) newHistoryStore(cfg *config.Config) (history.Store, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		c.logger.Info("using in-memory session history")
		return inmemory.NewStore(), nil

	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return nil, errors.New("storage.sqlite_path is required for the sqlite driver")
		}
		store, err := sqlite.NewStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite history store: %w", err)
		}
		c.logger.Info("using SQLite session history",
			zap.String("path", cfg.Storage.SQLitePath),
		)
		return store, nil

	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is required for the postgres driver")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("creating postgres history store: %w", err)
		}
		c.logger.Info("using PostgreSQL session history")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q (memory, sqlite, postgres)", cfg.Storage.Driver)
	}
}

func (c *ServeCommander) newPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	if cfg.Events.Brokers == "" {
		c.logger.Info("turn event publishing disabled")
		return nop.NewPublisher(), nil
	}

	publisher, err := eventkafka.NewPublisher(eventkafka.Config{
		Brokers: strings.Split(cfg.Events.Brokers, ","),
		Topic:   cfg.Events.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	c.logger.Info("publishing turn events to kafka",
		zap.String("brokers", cfg.Events.Brokers),
		zap.String("topic", cfg.Events.Topic),
	)
	return publisher, nil
}
