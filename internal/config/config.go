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
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Taxonomy TaxonomyConfig `yaml:"taxonomy" mapstructure:"taxonomy"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
}

// StoreConfig configures the database backend holding the replicated ERP data
// and the classification results.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BatchConfig configures the concurrent batch classifier.
type BatchConfig struct {
	MaxConcurrentCustomers int     `yaml:"max_concurrent_customers" mapstructure:"max_concurrent_customers"`
	RepositoryRPS          float64 `yaml:"repository_rps" mapstructure:"repository_rps"`
	OutputDir              string  `yaml:"output_dir" mapstructure:"output_dir"`
}

// TaxonomyConfig names the ERP event codes recognized as sales and returns,
// and the payment-method labels whose installments count as titled boleto
// receivables. Events outside the taxonomy never contribute to metrics.
type TaxonomyConfig struct {
	SalesEvents    []string `yaml:"sales_events" mapstructure:"sales_events"`
	ReturnsEvents  []string `yaml:"returns_events" mapstructure:"returns_events"`
	PaymentMethods []string `yaml:"payment_methods" mapstructure:"payment_methods"`
}

// ScoringConfig carries the weights, breakpoints, and tier thresholds of the
// classification formula. The engine treats every value as an opaque
// parameter; it neither renormalizes weights nor substitutes its own numbers.
type ScoringConfig struct {
	Weights Weights `yaml:"weights" mapstructure:"weights"`
	Tiers   Tiers   `yaml:"tiers" mapstructure:"tiers"`

	Revenue     Breakpoints  `yaml:"revenue" mapstructure:"revenue"`
	Volume      Breakpoints  `yaml:"volume" mapstructure:"volume"`
	Punctuality Breakpoints  `yaml:"punctuality" mapstructure:"punctuality"`
	Brands      BrandsLadder `yaml:"brands" mapstructure:"brands"`
}

// Weights are the per-criterion weights, expected (not enforced) to sum to 1.
type Weights struct {
	Revenue         float64 `yaml:"revenue" mapstructure:"revenue"`
	Frequency       float64 `yaml:"frequency" mapstructure:"frequency"`
	Punctuality     float64 `yaml:"punctuality" mapstructure:"punctuality"`
	Volume          float64 `yaml:"volume" mapstructure:"volume"`
	Diversification float64 `yaml:"diversification" mapstructure:"diversification"`
}

// Tiers holds the four ordered category thresholds, compared descending with
// >=; anything below the Bronze threshold still lands in Bronze.
type Tiers struct {
	Diamante float64 `yaml:"diamante" mapstructure:"diamante"`
	Ouro     float64 `yaml:"ouro" mapstructure:"ouro"`
	Prata    float64 `yaml:"prata" mapstructure:"prata"`
	Bronze   float64 `yaml:"bronze" mapstructure:"bronze"`
}

// Breakpoints is a descending four-rung ladder mapping a value to the scores
// 10/8/6/4, defaulting to 2 below the lowest rung.
type Breakpoints struct {
	Score10 float64 `yaml:"score_10" mapstructure:"score_10"`
	Score8  float64 `yaml:"score_8" mapstructure:"score_8"`
	Score6  float64 `yaml:"score_6" mapstructure:"score_6"`
	Score4  float64 `yaml:"score_4" mapstructure:"score_4"`
}

// IntRange is an inclusive [Min, Max] integer range.
type IntRange struct {
	Min int `yaml:"min" mapstructure:"min"`
	Max int `yaml:"max" mapstructure:"max"`
}

// BrandsLadder scores brand diversification: >= FullMarks brands scores 10,
// the two inclusive ranges score 8 and 6, exactly Exact4 brands scores 4,
// anything else 0.
type BrandsLadder struct {
	FullMarks int      `yaml:"full_marks" mapstructure:"full_marks"`
	Range8    IntRange `yaml:"range_8" mapstructure:"range_8"`
	Range6    IntRange `yaml:"range_6" mapstructure:"range_6"`
	Exact4    int      `yaml:"exact_4" mapstructure:"exact_4"`
}

// Load reads configuration from config.yaml and INSIGHT_* environment
// variables, falling back to the documented production defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("batch.max_concurrent_customers", 4)
	v.SetDefault("batch.repository_rps", 0)
	v.SetDefault("batch.output_dir", "results")

	v.SetDefault("taxonomy.sales_events", []string{
		"S01", "S02", "S03", "S05", "S11", "S12", "S13", "S16", "S18", "S22",
	})
	v.SetDefault("taxonomy.returns_events", []string{"E09", "E12"})
	v.SetDefault("taxonomy.payment_methods", []string{
		"BOLETO",
		"BOLETO BANCO DO BRASIL TBS",
		"BOLETO BRADESCO TBS",
		"BOLETO CAIXA TBS",
		"BOLETO ITAU TBS",
	})

	v.SetDefault("scoring.weights.revenue", 0.40)
	v.SetDefault("scoring.weights.frequency", 0.25)
	v.SetDefault("scoring.weights.punctuality", 0.15)
	v.SetDefault("scoring.weights.volume", 0.10)
	v.SetDefault("scoring.weights.diversification", 0.10)

	v.SetDefault("scoring.tiers.diamante", 9.1)
	v.SetDefault("scoring.tiers.ouro", 7.5)
	v.SetDefault("scoring.tiers.prata", 5.0)
	v.SetDefault("scoring.tiers.bronze", 0.0)

	v.SetDefault("scoring.revenue.score_10", 50000)
	v.SetDefault("scoring.revenue.score_8", 30001)
	v.SetDefault("scoring.revenue.score_6", 15001)
	v.SetDefault("scoring.revenue.score_4", 5001)

	v.SetDefault("scoring.volume.score_10", 500)
	v.SetDefault("scoring.volume.score_8", 201)
	v.SetDefault("scoring.volume.score_6", 101)
	v.SetDefault("scoring.volume.score_4", 50)

	v.SetDefault("scoring.punctuality.score_10", 95)
	v.SetDefault("scoring.punctuality.score_8", 85)
	v.SetDefault("scoring.punctuality.score_6", 75)
	v.SetDefault("scoring.punctuality.score_4", 60)

	v.SetDefault("scoring.brands.full_marks", 6)
	v.SetDefault("scoring.brands.range_8.min", 4)
	v.SetDefault("scoring.brands.range_8.max", 5)
	v.SetDefault("scoring.brands.range_6.min", 2)
	v.SetDefault("scoring.brands.range_6.max", 3)
	v.SetDefault("scoring.brands.exact_4", 1)

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
