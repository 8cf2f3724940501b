package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongo"
)

type Config struct {
	Backend       Backend
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	StripeSecretKey  string
	WebhookSecret    string
	WebhookTolerance time.Duration
	GatewayTimeout   time.Duration
	Currency         currency.Unit

	CartTTL           time.Duration
	CartSweepInterval time.Duration

	OutboxInterval time.Duration
	OutboxBatch    int
	KafkaBrokers   []string
	KafkaTopic     string

	MetricsAddr string
}

// Load reads the optional env files (".env" when none are given) and then the environment.
// Variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("godotenv.Load[%s]: %w", file, err)
		}
	}

	return Read(os.Getenv)
}

// Read builds the config from getenv, applying defaults for unset values.
func Read(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}

	cfg := Config{
		Backend:       Backend(strings.ToLower(r.str("STORE_BACKEND", string(BackendPostgres)))),
		DatabaseURL:   r.str("DATABASE_URL", ""),
		MongoURI:      r.str("MONGO_URI", ""),
		MongoDatabase: r.str("MONGO_DATABASE", "stockcheckout"),

		StripeSecretKey:  r.str("STRIPE_SECRET_KEY", ""),
		WebhookSecret:    r.str("STRIPE_WEBHOOK_SECRET", ""),
		WebhookTolerance: r.duration("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
		GatewayTimeout:   r.duration("GATEWAY_TIMEOUT", 10*time.Second),
		Currency:         r.unit("CURRENCY", currency.USD),

		CartTTL:           r.duration("CART_TTL", 7*24*time.Hour),
		CartSweepInterval: r.duration("CART_SWEEP_INTERVAL", time.Hour),

		OutboxInterval: r.duration("OUTBOX_INTERVAL", time.Second),
		OutboxBatch:    r.integer("OUTBOX_BATCH", 100),
		KafkaBrokers:   r.list("KAFKA_BROKERS"),
		KafkaTopic:     r.str("KAFKA_TOPIC", "order-events"),

		MetricsAddr: r.str("METRICS_ADDR", ":9090"),
	}

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required"))
		}
	case BackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND[%s]", c.Backend))
	}

	if c.StripeSecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY is required"))
	}
	if c.WebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required"))
	}
	if c.CartTTL <= 0 {
		errs = append(errs, errors.New("CART_TTL must be positive"))
	}
	if c.CartSweepInterval <= 0 || c.OutboxInterval <= 0 {
		errs = append(errs, errors.New("worker intervals must be positive"))
	}
	if c.OutboxBatch <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH must be positive"))
	}

	return errors.Join(errs...)
}

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, def string) string {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	return v
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) unit(key string, def currency.Unit) currency.Unit {
	v := r.str(key, "")
	if v == "" {
		return def
	}

	unit, err := currency.ParseISO(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return unit
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.str(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
