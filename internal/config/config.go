package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendScylla = "scylla"
	BackendMemory = "memory"
)

// Config holds every setting of the API server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Port        int    `env:"PORT" envDefault:"8080"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	UploadDir   string `env:"UPLOAD_DIR" envDefault:"/tmp/ecoshop-uploads"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"scylla"`
	PaymentVerify  bool   `env:"PAYMENT_VERIFY" envDefault:"false"`

	JWT     JWTConfig     `envPrefix:"JWT_"`
	Scylla  ScyllaConfig  `envPrefix:"SCYLLA_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	Elastic ElasticConfig `envPrefix:"ELASTIC_"`
	MinIO   MinIOConfig   `envPrefix:"MINIO_"`
	SMTP    SMTPConfig    `envPrefix:"SMTP_"`
	Stripe  StripeConfig  `envPrefix:"STRIPE_"`
	OAuth   OAuthConfig
	Invoice InvoiceConfig `envPrefix:"INVOICE_"`

	// DotEnvLoaded reports whether a .env file was found.
	DotEnvLoaded bool `env:"-"`
}

type JWTConfig struct {
	Secret           string        `env:"SECRET"`
	ExpiresIn        time.Duration `env:"EXPIRES_IN" envDefault:"168h"`
	CookieExpireDays int           `env:"COOKIE_EXPIRE_DAYS" envDefault:"7"`
}

// KeyspaceConfig is one keyspace together with the role allowed to use it.
type KeyspaceConfig struct {
	Keyspace string `env:"KEYSPACE"`
	Role     string `env:"ROLE"`
	Password string `env:"PASSWORD"`
}

type ScyllaConfig struct {
	Hosts      []string      `env:"HOSTS" envDefault:"127.0.0.1" envSeparator:","`
	SSLEnabled bool          `env:"SSL_ENABLED" envDefault:"false"`
	SSLCAPath  string        `env:"SSL_CA_PATH"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"5s"`
	NumConns   int           `env:"NUM_CONNS" envDefault:"20"`
	Migrate    bool          `env:"MIGRATE" envDefault:"true"`

	Products KeyspaceConfig `envPrefix:"KS_PRODUCTS_"`
	Users    KeyspaceConfig `envPrefix:"KS_USERS_"`
	Orders   KeyspaceConfig `envPrefix:"KS_ORDERS_"`
}

type RedisConfig struct {
	Host     string `env:"HOST" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// ElasticConfig leaves search disabled when URL is empty.
type ElasticConfig struct {
	URL      string `env:"URL"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Index    string `env:"INDEX" envDefault:"products"`
}

type MinIOConfig struct {
	Endpoint  string        `env:"ENDPOINT"`
	AccessKey string        `env:"ACCESS_KEY"`
	SecretKey string        `env:"SECRET_KEY"`
	UseSSL    bool          `env:"USE_SSL" envDefault:"false"`
	Bucket    string        `env:"BUCKET" envDefault:"ecoshop"`
	URLExpiry time.Duration `env:"URL_EXPIRY" envDefault:"168h"`
}

// SMTPConfig leaves email delivery on the log mailer when Host is empty.
type SMTPConfig struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT" envDefault:"587"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	From     string        `env:"FROM" envDefault:"EcoShop <no-reply@ecoshop.local>"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type StripeConfig struct {
	SecretKey      string `env:"SECRET_KEY"`
	PublishableKey string `env:"API_KEY"`
	Currency       string `env:"CURRENCY" envDefault:"inr"`
}

type OAuthConfig struct {
	SessionSecret        string `env:"SESSION_SECRET"`
	GoogleClientID       string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_CLIENT_SECRET"`
	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`
}

// InvoiceConfig feeds the SEPA transfer QR code printed on invoices.
type InvoiceConfig struct {
	Beneficiary string `env:"BENEFICIARY" envDefault:"EcoShop"`
	IBAN        string `env:"IBAN"`
	BIC         string `env:"BIC"`
}

// Load reads .env when present, then parses the process environment.
func Load() (*Config, error) {
	loaded := godotenv.Load(".env") == nil
	cfg, err := parse(env.Options{})
	if err != nil {
		return nil, err
	}
	cfg.DotEnvLoaded = loaded
	return cfg, nil
}

// LoadFromMap parses configuration from vars only, ignoring the process environment.
func LoadFromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port %d", c.Port))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.ExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	switch c.StorageBackend {
	case BackendMemory:
	case BackendScylla:
		if len(c.Scylla.Hosts) == 0 {
			errs = append(errs, errors.New("SCYLLA_HOSTS is required"))
		}
		for name, ks := range map[string]KeyspaceConfig{
			"PRODUCTS": c.Scylla.Products,
			"USERS":    c.Scylla.Users,
			"ORDERS":   c.Scylla.Orders,
		} {
			if ks.Keyspace == "" {
				errs = append(errs, fmt.Errorf("SCYLLA_KS_%s_KEYSPACE is required", name))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	if c.PaymentVerify && c.Stripe.SecretKey == "" {
		errs = append(errs, errors.New("PAYMENT_VERIFY requires STRIPE_SECRET_KEY"))
	}
	return errors.Join(errs...)
}

// IsProduction toggles secure cookies.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CookieMaxAge is the auth cookie lifetime in seconds.
func (c *Config) CookieMaxAge() int {
	return c.JWT.CookieExpireDays * 24 * 60 * 60
}
