package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	// AppName is reported to postgres as application_name
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32
	LogSQL   bool
	// SlowQuery marks traced statements as slow; negative never marks
	SlowQuery time.Duration

	// ConnectRetries bounds boot pings, 20 when zero
	ConnectRetries int
	// PingTimeout bounds each boot ping, 3s when zero
	PingTimeout time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled      bool
	URL          string
	MaxOpenConns int
	ReadTimeout  time.Duration

	// ClientRole and ClientTag are reported to the server, i.e. "api" and a build tag
	ClientRole string
	ClientTag  string
}
