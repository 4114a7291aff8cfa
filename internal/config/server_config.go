package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Transport kinds accepted by LEDGER_TRANSPORT.
const (
	TransportHID      = "hid"
	TransportSpeculos = "speculos"
)

type EchoServer struct {
	Debug                          bool
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	EnableRecoverMiddleware        bool
	EnableRequestIDMiddleware      bool
	EnableLoggerMiddleware         bool
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	PrettyPrintConsole bool
}

type LedgerServer struct {
	NetworkCode     int
	Debug           bool
	OpenTimeout     time.Duration
	ListenTimeout   time.Duration
	ExchangeTimeout time.Duration
}

type TransportServer struct {
	Kind            string
	SpeculosAddress string
}

type Server struct {
	Echo      EchoServer
	Logger    LoggerServer
	Ledger    LedgerServer
	Transport TransportServer
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment
// variables and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
func DefaultServiceConfigFromEnv() Server {
	v := newEnv()

	return Server{
		Echo: EchoServer{
			Debug:                          v.GetBool("SERVER_ECHO_DEBUG"),
			ListenAddress:                  v.GetString("SERVER_ECHO_LISTEN_ADDRESS"),
			HideInternalServerErrorDetails: v.GetBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS"),
			EnableRecoverMiddleware:        v.GetBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE"),
			EnableRequestIDMiddleware:      v.GetBool("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE"),
			EnableLoggerMiddleware:         v.GetBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE"),
		},
		Logger: LoggerServer{
			Level:              parseLevel(v.GetString("LOGGER_LEVEL"), zerolog.InfoLevel),
			RequestLevel:       parseLevel(v.GetString("LOGGER_REQUEST_LEVEL"), zerolog.DebugLevel),
			PrettyPrintConsole: v.GetBool("LOGGER_PRETTY_PRINT_CONSOLE"),
		},
		Ledger: LedgerServer{
			NetworkCode:     v.GetInt("LEDGER_NETWORK_CODE"),
			Debug:           v.GetBool("LEDGER_DEBUG"),
			OpenTimeout:     time.Duration(v.GetInt64("LEDGER_OPEN_TIMEOUT_MS")) * time.Millisecond,
			ListenTimeout:   time.Duration(v.GetInt64("LEDGER_LISTEN_TIMEOUT_MS")) * time.Millisecond,
			ExchangeTimeout: time.Duration(v.GetInt64("LEDGER_EXCHANGE_TIMEOUT_MS")) * time.Millisecond,
		},
		Transport: TransportServer{
			Kind:            strings.ToLower(v.GetString("LEDGER_TRANSPORT")),
			SpeculosAddress: v.GetString("LEDGER_SPECULOS_ADDRESS"),
		},
	}
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_ECHO_DEBUG", false)
	v.SetDefault("SERVER_ECHO_LISTEN_ADDRESS", ":8080")
	v.SetDefault("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true)
	v.SetDefault("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true)

	v.SetDefault("LOGGER_LEVEL", zerolog.InfoLevel.String())
	v.SetDefault("LOGGER_REQUEST_LEVEL", zerolog.DebugLevel.String())
	v.SetDefault("LOGGER_PRETTY_PRINT_CONSOLE", term.IsTerminal(int(os.Stdout.Fd())))

	v.SetDefault("LEDGER_NETWORK_CODE", 76)
	v.SetDefault("LEDGER_DEBUG", false)
	v.SetDefault("LEDGER_OPEN_TIMEOUT_MS", 3000)
	v.SetDefault("LEDGER_LISTEN_TIMEOUT_MS", 30000)
	v.SetDefault("LEDGER_EXCHANGE_TIMEOUT_MS", 60000)

	v.SetDefault("LEDGER_TRANSPORT", TransportHID)
	v.SetDefault("LEDGER_SPECULOS_ADDRESS", "127.0.0.1:9999")

	return v
}

func parseLevel(s string, fallback zerolog.Level) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		log.Warn().Err(err).Str("level", s).Str("fallback", fallback.String()).Msg("Invalid log level, using fallback")
		return fallback
	}
	return level
}
