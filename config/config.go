// Package config loads runtime settings for the estimating and bidding
// pipeline from the environment (and an optional bidprep.env file).
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Regeneration modes for repeated BOM imports on the same project.
const (
	RegenerationAppend    = "append"
	RegenerationSupersede = "supersede"
)

type EstimatingConfig struct {
	CeilingHeightFt  float64
	RegenerationMode string
	BOMParallelism   int
}

type MailConfig struct {
	FromAddress string
	FromName    string
	RFQSubject  string
	RFQBody     string
}

type CompanyConfig struct {
	Name    string
	Address string
	Email   string
}

type Config struct {
	Environment    string
	MetricsEnabled bool
	Estimating     EstimatingConfig
	Mail           MailConfig
	Company        CompanyConfig
}

const defaultRFQSubject = "Request for Quote {{rfq_number}} - {{project_name}}"

const defaultRFQBody = `<p>Hello {{vendor_name}},</p>
<p>Please quote the materials below for <strong>{{project_name}}</strong> (RFQ {{rfq_number}}).
Responses are due by {{due_date}}.</p>
{{materials_table}}
<p>You can reply with a spreadsheet attachment or list each item as "Description - $price".</p>`

// Load reads BIDPREP_* settings. A .env file in the working directory is
// loaded first when present so that local runs behave like deployed ones.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("bidprep")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("BIDPREP")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("CEILING_HEIGHT_FT", 8.0)
	v.SetDefault("REGENERATION_MODE", RegenerationAppend)
	v.SetDefault("BOM_PARALLELISM", 8)
	v.SetDefault("MAIL_FROM_NAME", "Estimating")
	v.SetDefault("RFQ_SUBJECT", defaultRFQSubject)
	v.SetDefault("RFQ_BODY", defaultRFQBody)
	v.SetDefault("COMPANY_NAME", "General Contractor")

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment:    v.GetString("APP_ENV"),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		Estimating: EstimatingConfig{
			CeilingHeightFt:  v.GetFloat64("CEILING_HEIGHT_FT"),
			RegenerationMode: strings.ToLower(strings.TrimSpace(v.GetString("REGENERATION_MODE"))),
			BOMParallelism:   v.GetInt("BOM_PARALLELISM"),
		},
		Mail: MailConfig{
			FromAddress: v.GetString("MAIL_FROM"),
			FromName:    v.GetString("MAIL_FROM_NAME"),
			RFQSubject:  v.GetString("RFQ_SUBJECT"),
			RFQBody:     v.GetString("RFQ_BODY"),
		},
		Company: CompanyConfig{
			Name:    v.GetString("COMPANY_NAME"),
			Address: v.GetString("COMPANY_ADDRESS"),
			Email:   v.GetString("COMPANY_EMAIL"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the settings Load would produce with an empty environment.
func Default() *Config {
	return &Config{
		Environment:    "development",
		MetricsEnabled: true,
		Estimating: EstimatingConfig{
			CeilingHeightFt:  8,
			RegenerationMode: RegenerationAppend,
			BOMParallelism:   8,
		},
		Mail: MailConfig{
			FromName:   "Estimating",
			RFQSubject: defaultRFQSubject,
			RFQBody:    defaultRFQBody,
		},
		Company: CompanyConfig{Name: "General Contractor"},
	}
}

func validate(cfg *Config) error {
	if cfg.Estimating.CeilingHeightFt <= 0 {
		return fmt.Errorf("BIDPREP_CEILING_HEIGHT_FT must be positive")
	}
	switch cfg.Estimating.RegenerationMode {
	case RegenerationAppend, RegenerationSupersede:
	default:
		return fmt.Errorf("BIDPREP_REGENERATION_MODE must be %q or %q", RegenerationAppend, RegenerationSupersede)
	}
	if cfg.Estimating.BOMParallelism <= 0 {
		cfg.Estimating.BOMParallelism = 1
	}
	return nil
}
