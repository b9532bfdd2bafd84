package clickhouse

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

type ClientConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration // client side only, never sent as a setting
	MaxExecTime  time.Duration

	UseHTTP      bool
	AsyncInsert  bool
	WaitForAsync bool

	// ConnectAttempts pings this many times before NewClient gives up.
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

type ClientOption func(*ClientConfig)

func defaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Port:            9000,
		Database:        "default",
		User:            "default",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ConnectAttempts: 1,
		ConnectBackoff:  time.Second,
	}
}

func WithHost(host string) ClientOption {
	return func(c *ClientConfig) { c.Host = host }
}

func WithPort(port int) ClientOption {
	return func(c *ClientConfig) {
		if port > 0 {
			c.Port = port
		}
	}
}

func WithDatabase(name string) ClientOption {
	return func(c *ClientConfig) {
		if name != "" {
			c.Database = name
		}
	}
}

func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) {
		if user != "" {
			c.User = user
		}
		c.Password = password
	}
}

// WithMaxConnections sizes the database/sql pool. Non-positive values keep the defaults.
func WithMaxConnections(maxOpen, maxIdle int) ClientOption {
	return func(c *ClientConfig) {
		if maxOpen > 0 {
			c.MaxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			c.MaxIdleConns = maxIdle
		}
	}
}

func WithTimeouts(dial, read, write time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
	}
}

// WithHTTP switches from the native protocol to HTTP (port 8123 by convention).
func WithHTTP(useHTTP bool) ClientOption {
	return func(c *ClientConfig) { c.UseHTTP = useHTTP }
}

// WithAsyncInsert turns on server-side insert buffering. wait makes an INSERT
// return only after its buffer is flushed.
func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(c *ClientConfig) {
		c.AsyncInsert = enabled
		c.WaitForAsync = wait
	}
}

// WithMaxExecutionTime is sent as max_execution_time in whole seconds.
func WithMaxExecutionTime(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.MaxExecTime = d }
}

// WithConnectRetry keeps pinging at startup while the server is still booting.
func WithConnectRetry(attempts int, backoff time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if attempts > 0 {
			c.ConnectAttempts = attempts
		}
		if backoff > 0 {
			c.ConnectBackoff = backoff
		}
	}
}

// DSN renders the clickhouse-go connection string. Credentials are escaped
// and settings are emitted in a stable order.
func (c ClientConfig) DSN() string {
	scheme := "clickhouse"
	if c.UseHTTP {
		scheme = "http"
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}

	q := url.Values{}
	if c.DialTimeout > 0 {
		q.Set("dial_timeout", c.DialTimeout.String())
	}
	if c.ReadTimeout > 0 {
		q.Set("read_timeout", c.ReadTimeout.String())
	}
	if c.MaxExecTime >= time.Second {
		q.Set("max_execution_time", strconv.Itoa(int(c.MaxExecTime.Seconds())))
	}
	if c.AsyncInsert {
		q.Set("async_insert", "1")
		if c.WaitForAsync {
			q.Set("wait_for_async_insert", "1")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c ClientConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("clickhouse: host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("clickhouse: invalid port %d", c.Port)
	}
	return nil
}
