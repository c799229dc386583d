package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// InitializeViper initializes Viper configuration from environment
// variables and config files. This must be called before Load().
func InitializeViper() error {
	loadEnvFile()
	setupViper()
	setDefaults()
	readConfigFile()

	if err := bindEnvironmentVariables(); err != nil {
		return fmt.Errorf("failed to bind environment variables: %w", err)
	}

	setupDevelopmentLogging()
	return nil
}

// loadEnvFile loads .env file (ignores error if file doesn't exist).
func loadEnvFile() {
	_ = godotenv.Load()
}

// setupViper configures Viper for environment variable and config file
// reading.
func setupViper() {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
}

// readConfigFile reads config file (ignores error if file doesn't exist).
func readConfigFile() {
	_ = viper.ReadInConfig()
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults - production safe
	viper.SetDefault("app", map[string]any{
		"name":        "skamp-monitoring",
		"version":     "1.0.0",
		"environment": "production",
		"debug":       false,
	})

	// Logger defaults - production safe
	viper.SetDefault("logger", map[string]any{
		"level":       "info",
		"encoding":    "json",
		"development": false,
	})

	// Server defaults - production safe
	viper.SetDefault("server", map[string]any{
		"address":       ":8080",
		"read_timeout":  "15s",
		"write_timeout": "15s",
		"idle_timeout":  "60s",
	})

	viper.SetDefault("database", map[string]any{
		"host":    "127.0.0.1",
		"port":    "5432",
		"user":    "monitoring",
		"name":    "monitoring",
		"sslmode": "disable",
	})

	viper.SetDefault("redis", map[string]any{
		"address": "",
		"db":      0,
	})

	viper.SetDefault("crawl", map[string]any{
		"schedule":            "*/15 * * * *",
		"pool_size":           5,
		"channel_concurrency": 3,
		"job_timeout":         "10m",
		"drain_timeout":       "30s",
		"fetch_timeout":       "30s",
		"max_retries":         3,
	})

	viper.SetDefault("security", map[string]any{
		"rate_limit": 60,
	})
}

// bindEnvironmentVariables binds all environment variables to config
// keys.
func bindEnvironmentVariables() error {
	binds := map[string][]string{
		"app.environment":            {"APP_ENV"},
		"app.debug":                  {"APP_DEBUG"},
		"logger.level":               {"LOG_LEVEL"},
		"logger.encoding":            {"LOG_FORMAT"},
		"server.address":             {"MONITOR_SERVER_ADDRESS"},
		"database.host":              {"MONITOR_DB_HOST", "DATABASE_HOST"},
		"database.port":              {"MONITOR_DB_PORT", "DATABASE_PORT"},
		"database.user":              {"MONITOR_DB_USER", "DATABASE_USER"},
		"database.password":          {"MONITOR_DB_PASSWORD", "DATABASE_PASSWORD"},
		"database.name":              {"MONITOR_DB_NAME", "DATABASE_NAME"},
		"database.sslmode":           {"MONITOR_DB_SSLMODE"},
		"redis.address":              {"MONITOR_REDIS_ADDRESS", "REDIS_ADDRESS"},
		"redis.password":             {"MONITOR_REDIS_PASSWORD", "REDIS_PASSWORD"},
		"crawl.schedule":             {"MONITOR_CRAWL_SCHEDULE"},
		"crawl.pool_size":            {"MONITOR_CRAWL_POOL_SIZE"},
		"scoring.endpoint":           {"MONITOR_SCORING_ENDPOINT"},
		"scoring.merge_endpoint":     {"MONITOR_MERGE_ENDPOINT"},
		"scoring.secret":             {"MONITOR_SCORING_SECRET"},
		"security.monitoring_secret": {"MONITOR_SECRET", "MONITORING_SECRET"},
		"security.admin_key":         {"MONITOR_ADMIN_KEY"},
		"security.rate_limit":        {"MONITOR_RATE_LIMIT"},
	}

	for key, envs := range binds {
		input := make([]string, 0, len(envs)+1)
		input = append(input, key)
		input = append(input, envs...)

		if err := viper.BindEnv(input...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", envs[0], err)
		}
	}

	return nil
}

// setupDevelopmentLogging configures logging settings based on
// environment variables. Debug level (APP_DEBUG) and development
// formatting (APP_ENV) are independent.
func setupDevelopmentLogging() {
	debugFlag := viper.GetBool("app.debug")
	isDev := viper.GetString("app.environment") == "development"

	// APP_DEBUG=true enables debug logs in any environment.
	if debugFlag {
		viper.Set("logger.level", "debug")
	}

	if isDev {
		viper.Set("logger.development", true)
		viper.Set("logger.encoding", "console")
	}
}
