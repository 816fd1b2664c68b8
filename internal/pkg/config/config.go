package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	DB       string `yaml:"db"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

type RepositoriesConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

type JWTConfig struct {
	SecretKey       string        `yaml:"-"`
	Issuer          string        `yaml:"issuer"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	ResetTokenTTL   time.Duration `yaml:"reset_token_ttl"`
}

type SessionConfig struct {
	CookieSecret string        `yaml:"-"`
	CookieName   string        `yaml:"cookie_name"`
	TTL          time.Duration `yaml:"ttl"`
}

type ExternalConfig struct {
	WeatherAPIKey    string        `yaml:"-"`
	WeatherBaseURL   string        `yaml:"weather_base_url"`
	NominatimBaseURL string        `yaml:"nominatim_base_url"`
	UserAgent        string        `yaml:"user_agent"`
	IPAPIBaseURL     string        `yaml:"ip_api_base_url"`
	WikipediaLang    string        `yaml:"wikipedia_lang"`
	WikipediaBaseURL string        `yaml:"wikipedia_base_url"`
	LocateTimeout    time.Duration `yaml:"locate_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
}

type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

type ElasticConfig struct {
	URL   string `yaml:"url"`
	Index string `yaml:"index"`
}

// CORSConfig lists the browser origins allowed to call the API with credentials.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ObservabilityConfig struct {
	ServiceName  string `yaml:"service_name"`
	MetricsAddr  string `yaml:"metrics_addr"`
	PprofAddr    string `yaml:"pprof_addr"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

type Config struct {
	Repositories  RepositoriesConfig  `yaml:"repositories"`
	ServerPort    string              `yaml:"server_port"`
	JWT           JWTConfig           `yaml:"jwt"`
	Session       SessionConfig       `yaml:"session"`
	External      ExternalConfig      `yaml:"external"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Elastic       ElasticConfig       `yaml:"elastic"`
	CORS          CORSConfig          `yaml:"cors"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Defaults returns the configuration used when neither a file nor the environment
// says otherwise.
func Defaults() *Config {
	return &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5454",
				DB:       "tunisia_guide",
				Username: "postgres",
				SSLMode:  "disable",
				MaxConns: 30,
				MinConns: 5,
			},
		},
		ServerPort: "8091",
		JWT: JWTConfig{
			Issuer:          "tunisia-guide",
			AccessTokenTTL:  24 * time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			ResetTokenTTL:   time.Hour,
		},
		Session: SessionConfig{
			CookieName: "guide_session",
			TTL:        24 * time.Hour,
		},
		External: ExternalConfig{
			WeatherBaseURL:   "https://api.weatherapi.com/v1",
			NominatimBaseURL: "https://nominatim.openstreetmap.org",
			UserAgent:        "tunisia-guide/1.0",
			IPAPIBaseURL:     "http://ip-api.com",
			WikipediaLang:    "en",
			LocateTimeout:    5000 * time.Millisecond,
			RequestTimeout:   10 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: "tunisia-guide.interactions",
		},
		Elastic: ElasticConfig{
			Index: "tunisia-guide-listings",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Observability: ObservabilityConfig{
			ServiceName: "tunisia-guide",
			MetricsAddr: ":9092",
			PprofAddr:   ":6060",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and finally the environment. Secrets only come from the environment.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}
	if cfg.Session.CookieSecret == "" {
		cfg.Session.CookieSecret = cfg.JWT.SecretKey
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	pg := &cfg.Repositories.Postgres
	pg.Host = getEnvOrDefault("POSTGRES_HOST", pg.Host)
	pg.Port = getEnvOrDefault("POSTGRES_PORT", pg.Port)
	pg.DB = getEnvOrDefault("POSTGRES_DB", pg.DB)
	pg.Username = getEnvOrDefault("POSTGRES_USER", pg.Username)
	pg.Password = getEnvOrDefault("POSTGRES_PASSWORD", pg.Password)
	pg.SSLMode = getEnvOrDefault("POSTGRES_SSLMODE", pg.SSLMode)
	pg.MaxConns = int32(getIntOrDefault("POSTGRES_MAX_CONNS", int(pg.MaxConns)))
	pg.MinConns = int32(getIntOrDefault("POSTGRES_MIN_CONNS", int(pg.MinConns)))

	cfg.ServerPort = getEnvOrDefault("SERVER_PORT", cfg.ServerPort)

	cfg.JWT.SecretKey = getEnvOrDefault("JWT_SECRET_KEY", cfg.JWT.SecretKey)
	cfg.JWT.Issuer = getEnvOrDefault("JWT_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.AccessTokenTTL = getDurationOrDefault("JWT_ACCESS_TTL", cfg.JWT.AccessTokenTTL)
	cfg.JWT.RefreshTokenTTL = getDurationOrDefault("JWT_REFRESH_TTL", cfg.JWT.RefreshTokenTTL)
	cfg.JWT.ResetTokenTTL = getDurationOrDefault("RESET_TOKEN_TTL", cfg.JWT.ResetTokenTTL)

	cfg.Session.CookieSecret = getEnvOrDefault("SESSION_SECRET", cfg.Session.CookieSecret)
	cfg.Session.CookieName = getEnvOrDefault("SESSION_COOKIE", cfg.Session.CookieName)
	cfg.Session.TTL = getDurationOrDefault("SESSION_TTL", cfg.Session.TTL)

	ext := &cfg.External
	ext.WeatherAPIKey = getEnvOrDefault("WEATHER_API_KEY", ext.WeatherAPIKey)
	ext.WeatherBaseURL = getEnvOrDefault("WEATHER_BASE_URL", ext.WeatherBaseURL)
	ext.NominatimBaseURL = getEnvOrDefault("NOMINATIM_BASE_URL", ext.NominatimBaseURL)
	ext.UserAgent = getEnvOrDefault("HTTP_USER_AGENT", ext.UserAgent)
	ext.IPAPIBaseURL = getEnvOrDefault("IP_API_BASE_URL", ext.IPAPIBaseURL)
	ext.WikipediaLang = getEnvOrDefault("WIKIPEDIA_LANG", ext.WikipediaLang)
	ext.WikipediaBaseURL = getEnvOrDefault("WIKIPEDIA_BASE_URL", ext.WikipediaBaseURL)
	ext.LocateTimeout = getDurationOrDefault("LOCATE_TIMEOUT", ext.LocateTimeout)
	ext.RequestTimeout = getDurationOrDefault("HTTP_TIMEOUT", ext.RequestTimeout)

	cfg.Kafka.Brokers = getEnvOrDefault("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.Topic = getEnvOrDefault("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.Elastic.URL = getEnvOrDefault("ELASTIC_URL", cfg.Elastic.URL)
	cfg.Elastic.Index = getEnvOrDefault("ELASTIC_INDEX", cfg.Elastic.Index)

	cfg.CORS.AllowedOrigins = getListOrDefault("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)

	obs := &cfg.Observability
	obs.ServiceName = getEnvOrDefault("OTEL_SERVICE_NAME", obs.ServiceName)
	obs.MetricsAddr = getEnvOrDefault("METRICS_ADDR", obs.MetricsAddr)
	obs.PprofAddr = getEnvOrDefault("PPROF_ADDR", obs.PprofAddr)
	obs.OTLPEndpoint = getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", obs.OTLPEndpoint)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getListOrDefault splits a comma separated variable, dropping empty items.
func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
