package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=5000"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LimitMessages  *int   `env:"LIMIT_MESSAGES"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	TokenIssuer       string        `env:"TOKEN_ISSUER,default=chat-relay"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=1s"`
	MaxContentLength     int64         `env:"MAX_CONTENT_LENGTH,default=4096"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS"`

	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	SearchLimit     int           `env:"SEARCH_LIMIT,default=20"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Origins parses the comma-separated ALLOWED_ORIGINS value. An empty value
// means every origin is accepted.
func (c Config) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}

	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
