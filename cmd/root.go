package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/backend"
	"github.com/resume2job/resume2job/internal/conversation"
	"github.com/resume2job/resume2job/internal/logger"
	"github.com/resume2job/resume2job/internal/session"
	"github.com/resume2job/resume2job/internal/shell/web"
	"github.com/resume2job/resume2job/internal/workspace"
)

const (
	app       = "resume2job"
	envPrefix = "RESUME2JOB"
)

type Config struct {
	Backend *BackendConfig `mapstructure:"backend"`
	Chat    *ChatConfig    `mapstructure:"chat"`
	Serve   *ServeConfig   `mapstructure:"serve"`
	LogFile string         `mapstructure:"log-file"`
}

type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ChatConfig struct {
	RevealDelay     time.Duration `mapstructure:"reveal-delay"`
	NotificationTTL time.Duration `mapstructure:"notification-ttl"`
	Markdown        bool          `mapstructure:"markdown"`
}

type ServeConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume2job is a chat client that matches your resume against a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	viper.SetDefault("backend.url", backend.DefaultURL)
	viper.SetDefault("backend.timeout", time.Duration(0))
	viper.SetDefault("chat.reveal-delay", conversation.DefaultRevealDelay)
	viper.SetDefault("chat.notification-ttl", workspace.DefaultNotificationTTL)
	viper.SetDefault("chat.markdown", true)
	viper.SetDefault("serve.addr", web.DefaultAddr)
	viper.SetDefault("serve.allowed-origins", []string{})
	viper.SetDefault("log-file", "")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume2job.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("backend-url", "", "base URL of the assistant service")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of the terminal")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("backend-url"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	// A missing .env is fine, a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless given explicitly.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Backend == nil {
		config.Backend = &BackendConfig{URL: backend.DefaultURL}
	}
	if config.Chat == nil {
		config.Chat = &ChatConfig{RevealDelay: conversation.DefaultRevealDelay, NotificationTTL: workspace.DefaultNotificationTTL}
	}
	if config.Serve == nil {
		config.Serve = &ServeConfig{Addr: web.DefaultAddr}
	}

	return config, nil
}

// newLogger builds the process logger. Outputs override stdout.
func newLogger(outputs ...string) *zap.Logger {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), outputs...)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return logger
}

// setup loads the config and builds the logger and the backend client shared by all commands.
func setup(outputs ...string) (*Config, *zap.Logger, *backend.Client) {
	logger := newLogger(outputs...)
	config := loadConfig(logger)

	return config, logger, newClient(config, logger)
}

func loadConfig(logger *zap.Logger) *Config {
	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting with config",
		zap.String("backend", config.Backend.URL),
		zap.Duration("timeout", config.Backend.Timeout),
		zap.String("version", version),
	)

	return config
}

func newClient(config *Config, logger *zap.Logger) *backend.Client {
	return backend.New(logger, config.Backend.URL, config.Backend.Timeout)
}

func newWorkspace(config *Config, client *backend.Client, logger *zap.Logger) *workspace.Workspace {
	return workspace.New(
		session.NewUploader(client, logger),
		client,
		workspace.WithRevealDelay(config.Chat.RevealDelay),
		workspace.WithNotificationTTL(config.Chat.NotificationTTL),
		workspace.WithLogger(logger),
	)
}
