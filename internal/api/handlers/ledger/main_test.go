package ledger_test

import (
	"github/chapool/waves-ledger/internal/config"
)

func testConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Echo.HideInternalServerErrorDetails = false
	return cfg
}
