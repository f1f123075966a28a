package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-chat/internal/ai"
	"github.com/spigell/cv-chat/internal/ai/gemini"
	"github.com/spigell/cv-chat/internal/assistant"
	"github.com/spigell/cv-chat/internal/document"
	"github.com/spigell/cv-chat/internal/logger"
	"github.com/spigell/cv-chat/internal/secrets"
)

var apiKeyEnv = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// session is everything a command needs after startup: the resolved model and
// an assistant bound to it.
type session struct {
	config       *Config
	availability ai.AvailabilitySet
	selection    *ai.Selection
	assistant    *assistant.Assistant
}

// setup builds the logger and the validated config. Failures are fatal.
func setup() (*Config, *zap.Logger) {
	logger, err := logger.Build(loggerOptions())
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the "+app, zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return config, logger
}

func loggerOptions() logger.Options {
	return logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: viper.GetString("log-file"),
	}
}

// newSession resolves the api key, discovers available models and selects one.
// An unresolved selection is not an error: the assistant reports it per question.
func newSession(ctx context.Context, config *Config, baseLogger *zap.Logger) (*session, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "api key",
		Value: config.APIKey,
		File:  config.APIKeyFile,
		Env:   apiKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set API_KEY, API_KEY_FILE or the api-key key in the config)", err)
	}

	aiLogger := baseLogger.With(zap.String(logger.FieldProvider, gemini.ProviderName))

	client, err := gemini.NewClient(ctx, gemini.ClientConfig{
		APIKey:  apiKey,
		BaseURL: config.BaseURL,
		Timeout: config.Timeout,
	}, aiLogger)
	if err != nil {
		return nil, err
	}

	availability := gemini.NewAvailabilityProbe(client, aiLogger).ListAvailable(ctx)
	selection := gemini.NewSelector(client, aiLogger).Select(ctx, config.CandidateList(), availability)

	if selection.Resolved() {
		baseLogger.Info("model selected", zap.String(logger.FieldModel, selection.Model))
	} else {
		baseLogger.Error("no model available", zap.Error(selection.Err()), zap.String("probes", selection.Summary()))
	}

	fetcher := document.NewFetcher(baseLogger, config.Timeout)
	if config.Document.UserAgent != "" {
		fetcher.UserAgent = config.Document.UserAgent
	}

	source := document.NewSource(document.SourceConfig{
		URL:     config.Document.URL,
		TTL:     config.Document.TTL,
		Fetcher: fetcher,
		Logger:  baseLogger,
	})

	generator := gemini.NewGenerator(client, gemini.GeneratorConfig{
		Owner:           config.UI.Owner,
		MaxContextChars: config.MaxContextChars,
		MaxOutputTokens: config.MaxOutputTokens,
		MaxLogLength:    config.MaxLogLength,
	}, aiLogger)

	return &session{
		config:       config,
		availability: availability,
		selection:    selection,
		assistant:    assistant.New(source, generator, selection, logger.WithModelFields(baseLogger, gemini.ProviderName, selection.Model)),
	}, nil
}
