package bybit

import (
	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// USDT perpetuals live under the linear category on Bybit v5.
const category = "linear"

// Gateway implements the exchange gateway contract against the Bybit v5 API.
// All trading happens on a Unified Trading Account.
type Gateway struct {
	httpClient *bybit_api.Client
	testnet    bool
	demo       bool

	constraints *constraintCache
}

// Config holds the configuration for the Bybit gateway.
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Demo      bool // Demo trading environment (api-demo.bybit.com)
}

// NewGateway creates a gateway for the configured Bybit environment.
func NewGateway(config Config) *Gateway {
	var baseURL string
	if config.Demo {
		// Demo trading (paper trading) uses its own domain.
		baseURL = "https://api-demo.bybit.com"
	} else if config.Testnet {
		baseURL = bybit_api.TESTNET
	} else {
		baseURL = bybit_api.MAINNET
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	return &Gateway{
		httpClient:  httpClient,
		testnet:     config.Testnet,
		demo:        config.Demo,
		constraints: newConstraintCache(),
	}
}

// Environment returns a string describing the configured environment.
func (g *Gateway) Environment() string {
	switch {
	case g.demo:
		return "demo"
	case g.testnet:
		return "testnet"
	default:
		return "mainnet"
	}
}
