package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "cv-chat"

	defaultDocumentURL = "https://rafaelabastidas.github.io/files/CV.pdf"
)

var defaultCandidates = []string{
	"gemini-1.5-flash",
	"gemini-1.5-flash-latest",
	"gemini-2.0-flash",
	"gemini-2.5-flash",
}

type Config struct {
	APIKey          string          `mapstructure:"api-key" json:"-"`
	APIKeyFile      string          `mapstructure:"api-key-file" json:"api-key-file,omitempty"`
	Model           string          `mapstructure:"model" json:"model,omitempty"`
	Candidates      []string        `mapstructure:"candidates" json:"candidates" validate:"required,min=1,dive,required"`
	MaxContextChars int             `mapstructure:"max-context-chars" json:"max-context-chars" validate:"gt=0"`
	MaxOutputTokens int32           `mapstructure:"max-output-tokens" json:"max-output-tokens" validate:"gt=0"`
	Timeout         time.Duration   `mapstructure:"timeout" json:"timeout" validate:"gt=0"`
	BaseURL         string          `mapstructure:"base-url" json:"base-url,omitempty" validate:"omitempty,url"`
	MaxLogLength    int             `mapstructure:"max-log-length" json:"max-log-length" validate:"gte=0"`
	Listen          string          `mapstructure:"listen" json:"listen" validate:"required"`
	Document        *DocumentConfig `mapstructure:"document" json:"document" validate:"required"`
	UI              *UIConfig       `mapstructure:"ui" json:"ui" validate:"required"`
}

type DocumentConfig struct {
	URL       string        `mapstructure:"url" json:"url" validate:"required,url"`
	TTL       time.Duration `mapstructure:"ttl" json:"ttl" validate:"gt=0"`
	UserAgent string        `mapstructure:"user-agent" json:"user-agent,omitempty"`
}

type UIConfig struct {
	Owner    string   `mapstructure:"owner" json:"owner"`
	Title    string   `mapstructure:"title" json:"title"`
	Intro    string   `mapstructure:"intro" json:"intro"`
	Examples []string `mapstructure:"examples" json:"examples" validate:"dive,required"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-chat answers questions about a CV with a Gemini model",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := configure(); err != nil {
		log.Fatal(err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-chat.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("model", "", "preferred model, tried before the candidate list")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// configure registers defaults and environment bindings on the global viper.
func configure() error {
	for key, env := range map[string]string{
		"api-key":      "API_KEY",
		"api-key-file": "API_KEY_FILE",
		"model":        "MODEL",
		"log-file":     "LOG_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s environment variable: %w", env, err)
		}
	}

	viper.SetDefault("candidates", defaultCandidates)
	viper.SetDefault("max-context-chars", 30000)
	viper.SetDefault("max-output-tokens", 1000)
	viper.SetDefault("timeout", 30*time.Second)
	viper.SetDefault("max-log-length", 200)
	viper.SetDefault("listen", ":8080")
	viper.SetDefault("document.url", defaultDocumentURL)
	viper.SetDefault("document.ttl", time.Hour)
	viper.SetDefault("ui.owner", "Rafaela")
	viper.SetDefault("ui.title", "Chat with Rafaela's CV")
	viper.SetDefault("ui.intro", "Hi! I'm an assistant that answers questions about Rafaela's CV. Pick an example question or ask your own, in any language.")
	viper.SetDefault("ui.examples", []string{
		"What is her educational background?",
		"What programming languages does she know?",
		"What work experience does she have?",
		"Which languages does she speak?",
	})

	return nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Without an explicit --config every key has a default or an environment variable.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate checks the configuration once at startup.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is required")
	}

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %w", err)
		}

		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(problems, ", "))
	}

	return nil
}

// CandidateList returns the models to probe in order: the preferred model
// first, then the configured candidates without repeats of it.
func (c *Config) CandidateList() []string {
	preferred := strings.TrimSpace(c.Model)
	if preferred == "" {
		return c.Candidates
	}

	list := []string{preferred}
	for _, m := range c.Candidates {
		if strings.TrimSpace(m) != preferred {
			list = append(list, m)
		}
	}
	return list
}
