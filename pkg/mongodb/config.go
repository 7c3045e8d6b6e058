package mongodb

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds MongoDB configuration.
type ClientConfig struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
	Timeout        time.Duration
	AppName        string
}

// WithURI sets the connection string.
func WithURI(uri string) ClientOption {
	return func(c *ClientConfig) {
		c.URI = uri
	}
}

// WithDatabase sets database name.
func WithDatabase(db string) ClientOption {
	return func(c *ClientConfig) {
		c.Database = db
	}
}

// WithMaxPoolSize sets the connection pool size.
func WithMaxPoolSize(n uint64) ClientOption {
	return func(c *ClientConfig) {
		c.MaxPoolSize = n
	}
}

// WithTimeouts sets connect and per-operation timeouts.
func WithTimeouts(connect, op time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.ConnectTimeout = connect
		c.Timeout = op
	}
}

// WithAppName sets the application name reported to the server.
func WithAppName(name string) ClientOption {
	return func(c *ClientConfig) {
		c.AppName = name
	}
}
