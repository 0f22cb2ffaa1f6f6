// Command unipath runs the study-abroad counsellor backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/unipath-ai/unipath/config"
	"github.com/unipath-ai/unipath/counsellor"
	"github.com/unipath-ai/unipath/guard"
	"github.com/unipath-ai/unipath/logging"
	"github.com/unipath-ai/unipath/model"
	anthropicmodel "github.com/unipath-ai/unipath/model/anthropic"
	openaimodel "github.com/unipath-ai/unipath/model/openai"
	"github.com/unipath-ai/unipath/prompt"
	"github.com/unipath-ai/unipath/server"
	"github.com/unipath-ai/unipath/sop"
	"github.com/unipath-ai/unipath/store/sqlite"
	"github.com/unipath-ai/unipath/tool"
	"github.com/unipath-ai/unipath/voice"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "unipath:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stdout,
	})

	st, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("database ready", "path", cfg.DatabasePath)

	llm, err := buildModel(cfg)
	if err != nil {
		return err
	}
	logger.Info("model provider configured",
		"provider", llm.Info().Provider,
		"model", llm.Info().Name)

	g := guard.New(st)
	assembler := prompt.NewAssembler(st)
	dispatcher := tool.NewDispatcher(st, g, func(o *tool.Options) {
		o.Logger = logger.WithComponent("tool")
	})
	engine := counsellor.NewEngine(llm, assembler, dispatcher, func(o *counsellor.Options) {
		o.Logger = logger.WithComponent("counsellor")
	})

	srv := server.New(st, engine, g, cfg.JWTSecret, func(o *server.Options) {
		o.Logger = logger.WithComponent("server")
		o.SOP = sop.NewService(llm, st, func(so *sop.Options) {
			so.Logger = logger.WithComponent("sop")
		})
		if cfg.OpenAIAPIKey != "" {
			o.Voice = voice.NewService(func(vo *voice.Options) {
				vo.APIKey = cfg.OpenAIAPIKey
				vo.Logger = logger.WithComponent("voice")
			})
		}
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			if cfg.ModelName != "" {
				o.Model = anthropic.Model(cfg.ModelName)
			}
		}), nil
	default:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.APIKey = cfg.OpenAIAPIKey
			o.BaseURL = cfg.BaseURL
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
		}), nil
	}
}
