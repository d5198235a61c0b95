// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	ETL      ETLConfig      `yaml:"etl" mapstructure:"etl"`
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Scorer   ScorerConfig   `yaml:"scorer" mapstructure:"scorer"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ETLConfig configures the batch ingestion run.
type ETLConfig struct {
	LookbackDays int    `yaml:"lookback_days" mapstructure:"lookback_days"`
	State        string `yaml:"state" mapstructure:"state"`
}

// IngestConfig configures the upstream data-source adapters.
type IngestConfig struct {
	SocrataAppToken  string   `yaml:"socrata_app_token" mapstructure:"socrata_app_token"`
	TABCEndpoint     string   `yaml:"tabc_endpoint" mapstructure:"tabc_endpoint"`
	DallasCOEndpoint string   `yaml:"dallas_co_endpoint" mapstructure:"dallas_co_endpoint"`
	SalesTaxEndpoint string   `yaml:"sales_tax_endpoint" mapstructure:"sales_tax_endpoint"`
	TargetCounties   []string `yaml:"target_counties" mapstructure:"target_counties"`
	SalesTaxCounties []string `yaml:"sales_tax_counties" mapstructure:"sales_tax_counties"`
	SalesTaxNAICS    []string `yaml:"sales_tax_naics" mapstructure:"sales_tax_naics"`
	FortWorthCOPath  string   `yaml:"fortworth_co_path" mapstructure:"fortworth_co_path"`
	FetchTimeoutSecs int      `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	MaxRowsPerSource int      `yaml:"max_rows_per_source" mapstructure:"max_rows_per_source"`
}

// EnrichConfig configures the Places enrichment pass.
type EnrichConfig struct {
	PlacesAPIKey  string  `yaml:"places_api_key" mapstructure:"places_api_key"`
	PlacesBaseURL string  `yaml:"places_base_url" mapstructure:"places_base_url"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	PriorityScore int     `yaml:"priority_score" mapstructure:"priority_score"`
	RegionSuffix  string  `yaml:"region_suffix" mapstructure:"region_suffix"`
}

// ScorerConfig holds the priority-score weights. Recency dominates by
// design: the score ranks sales urgency, not lifecycle progress, which
// is why opening_soon outranks open here.
type ScorerConfig struct {
	RecencyBuckets []RecencyBucket `yaml:"recency_buckets" mapstructure:"recency_buckets"`

	OpeningSoonBonus int `yaml:"opening_soon_bonus" mapstructure:"opening_soon_bonus"`
	PermittingBonus  int `yaml:"permitting_bonus" mapstructure:"permitting_bonus"`
	OpenBonus        int `yaml:"open_bonus" mapstructure:"open_bonus"`

	BarBonus        int `yaml:"bar_bonus" mapstructure:"bar_bonus"`
	RestaurantBonus int `yaml:"restaurant_bonus" mapstructure:"restaurant_bonus"`

	PhonePoints   int `yaml:"phone_points" mapstructure:"phone_points"`
	WebsitePoints int `yaml:"website_points" mapstructure:"website_points"`

	CorroborationPoints int `yaml:"corroboration_points" mapstructure:"corroboration_points"`
	CorroborationMin    int `yaml:"corroboration_min" mapstructure:"corroboration_min"`
}

// RecencyBucket awards Points when a venue was first seen at most
// MaxAgeDays ago.
type RecencyBucket struct {
	MaxAgeDays int `yaml:"max_age_days" mapstructure:"max_age_days"`
	Points     int `yaml:"points" mapstructure:"points"`
}

// ClassifyConfig configures the classifier.
type ClassifyConfig struct {
	KeywordsFile string `yaml:"keywords_file" mapstructure:"keywords_file"`
}

// ServerConfig configures the read-only query API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OPENINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "openings.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("etl.lookback_days", 7)
	v.SetDefault("etl.state", "TX")
	v.SetDefault("ingest.tabc_endpoint", "https://data.texas.gov/resource/7hf9-qc9f.json")
	v.SetDefault("ingest.dallas_co_endpoint", "https://www.dallasopendata.com/resource/9qet-qt9e.json")
	v.SetDefault("ingest.sales_tax_endpoint", "https://data.texas.gov/resource/3kx8-uryv.json")
	v.SetDefault("ingest.target_counties", []string{"DALLAS", "TARRANT", "COLLIN", "DENTON"})
	v.SetDefault("ingest.sales_tax_counties", []string{"057", "220", "043", "061"})
	v.SetDefault("ingest.sales_tax_naics", []string{"722410", "722511", "722513", "722514", "722515"})
	v.SetDefault("ingest.fetch_timeout_secs", 30)
	v.SetDefault("ingest.max_rows_per_source", 10000)
	v.SetDefault("enrich.places_base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("enrich.rate_per_sec", 1.0)
	v.SetDefault("enrich.priority_score", 70)
	v.SetDefault("enrich.region_suffix", "TX")
	v.SetDefault("scorer.recency_buckets", []map[string]any{
		{"max_age_days": 3, "points": 50},
		{"max_age_days": 7, "points": 40},
		{"max_age_days": 14, "points": 25},
		{"max_age_days": 30, "points": 10},
	})
	v.SetDefault("scorer.opening_soon_bonus", 40)
	v.SetDefault("scorer.permitting_bonus", 30)
	v.SetDefault("scorer.open_bonus", 10)
	v.SetDefault("scorer.bar_bonus", 20)
	v.SetDefault("scorer.restaurant_bonus", 15)
	v.SetDefault("scorer.phone_points", 25)
	v.SetDefault("scorer.website_points", 5)
	v.SetDefault("scorer.corroboration_points", 15)
	v.SetDefault("scorer.corroboration_min", 2)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
