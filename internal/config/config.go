// Package config loads the pipeline configuration from the environment into
// an explicit struct injected at the entry points.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// gatewayURL is the upstream indexing gateway serving the subgraphs.
const gatewayURL = "https://gateway.thegraph.com/api"

// Config carries every externally sourced setting.
type Config struct {
	// Upstream indexing service.
	// APIKey is only needed by commands that talk to the gateway; the
	// HTTP server runs without it.
	APIKey       string `envconfig:"API_SECRET_KEY"`
	SubgraphIDV2 string `envconfig:"SUBGRAPH_ID_V2" default:"8wR23o1zkS4gpLqLNU4kG3JHYVucqGyopL5utGxP2q1N"`
	SubgraphIDV3 string `envconfig:"SUBGRAPH_ID_V3" default:"Cd2gEDVeqnjBn1hSeqFMitw8Q1iiyV9FYUZkLNRcL87g"`
	// SubgraphIDPrices is the Messari-schema deployment serving
	// marketHourlySnapshots.
	SubgraphIDPrices string `envconfig:"SUBGRAPH_ID_PRICES" default:"JCNWRypm7FYwV8fx5HhzZPSFaMxgkPuw4TnR3Gpi81zk"`
	PageSize     int    `envconfig:"PAGE_SIZE" default:"1000"`
	MaxPages     int    `envconfig:"MAX_PAGES" default:"300"`

	// Storage.
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN"`

	// Pipeline behaviour.
	Strategy  string   `envconfig:"CORRECTION_STRATEGY" default:"cummax"`
	Workers   int      `envconfig:"MONTH_WORKERS" default:"4"`
	Assets    []string `envconfig:"ASSETS" default:"Wrapped Ether,Wrapped BTC,USD Coin,Dai Stablecoin,Wrapped liquid staked Ether 2.0,Tether USD,Aave Token"`
	OutputDir string   `envconfig:"OUTPUT_DIR" default:"output"`

	// HTTP API.
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
}

// Load reads .env when present and populates the config from the
// environment.
func Load() (*Config, error) {
	// Missing .env is fine: production supplies real environment values.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// SubgraphEndpoint builds the gateway URL of one subgraph deployment.
func (c *Config) SubgraphEndpoint(subgraphID string) string {
	return fmt.Sprintf("%s/%s/subgraphs/id/%s", gatewayURL, c.APIKey, subgraphID)
}
