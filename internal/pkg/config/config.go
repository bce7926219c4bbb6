package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, secrets)
// - default: Values common across all environments (timezone, tax bands, tiers)
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	Store       StoreConfig
	CORS        CORSConfig
	Log         LogConfig
	JWT         JWTConfig
	Pricing     PricingConfig
	Checkout    CheckoutConfig
	Fulfillment FulfillmentConfig
	OTP         OTPConfig
	Payment     PaymentConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Maintenance MaintenanceConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:""`
	DBName   string `envconfig:"DB_NAME" default:"checkout"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Kolkata"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

// StoreConfig selects the persistence driver: "postgres" or "memory".
type StoreConfig struct {
	Driver string `envconfig:"STORE_DRIVER" default:"postgres"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Kolkata"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"19800"` // 5.5*60*60
}

// JWTConfig verifies tokens minted by the auth service.
type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
	Issuer string `envconfig:"JWT_ISSUER" default:""`
}

type PricingConfig struct {
	// TaxBands is a list of "ceiling:percent" pairs; "*" marks the open-ended band.
	TaxBands              string          `envconfig:"PRICING_TAX_BANDS" default:"8999:5,15999:12,35999:18,*:28"`
	ShippingFee           decimal.Decimal `envconfig:"PRICING_SHIPPING_FEE" default:"49"`
	FreeShippingThreshold decimal.Decimal `envconfig:"PRICING_FREE_SHIPPING_THRESHOLD" default:"9999"`
}

type CheckoutConfig struct {
	SuccessURL     string        `envconfig:"CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/success"`
	CancelURL      string        `envconfig:"CHECKOUT_CANCEL_URL" default:"http://localhost:3000/cancel"`
	Currency       string        `envconfig:"CHECKOUT_CURRENCY" default:"inr"`
	OrderPrefix    string        `envconfig:"CHECKOUT_ORDER_PREFIX" default:"ORD-"`
	IdempotencyTTL time.Duration `envconfig:"CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type FulfillmentConfig struct {
	FastPostalCodes  []string      `envconfig:"FULFILLMENT_FAST_POSTAL_CODES" default:"110001,400001,560001"`
	FastTierDays     int           `envconfig:"FULFILLMENT_FAST_TIER_DAYS" default:"3"`
	StandardTierDays int           `envconfig:"FULFILLMENT_STANDARD_TIER_DAYS" default:"7"`
	DayLength        time.Duration `envconfig:"FULFILLMENT_DAY_LENGTH" default:"24h"`
	SweepInterval    time.Duration `envconfig:"FULFILLMENT_SWEEP_INTERVAL" default:"1m"`
	SweepBatchSize   int           `envconfig:"FULFILLMENT_SWEEP_BATCH_SIZE" default:"100"`
	Workers          int           `envconfig:"FULFILLMENT_WORKERS" default:"4"`
}

type OTPConfig struct {
	TTL         time.Duration `envconfig:"OTP_TTL" default:"5m"`
	MaxAttempts int           `envconfig:"OTP_MAX_ATTEMPTS" default:"3"`
}

type PaymentConfig struct {
	BaseURL            string        `envconfig:"PAYMENT_BASE_URL" default:"https://api.stripe.com"`
	SecretKey          string        `envconfig:"PAYMENT_SECRET_KEY" required:"true"`
	WebhookSecret      string        `envconfig:"PAYMENT_WEBHOOK_SECRET" required:"true"`
	SignatureTolerance time.Duration `envconfig:"PAYMENT_SIGNATURE_TOLERANCE" default:"5m"`
	Timeout            time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"10s"`
}

// RedisConfig: an empty Addr keeps dedup and idempotency in process memory.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:""`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// KafkaConfig: no brokers disables publishing and falls back to log delivery.
type KafkaConfig struct {
	Brokers          []string `envconfig:"KAFKA_BROKERS" default:""`
	OrderEventsTopic string   `envconfig:"KAFKA_ORDER_EVENTS_TOPIC" default:"orders.events"`
	EmailTopic       string   `envconfig:"KAFKA_EMAIL_TOPIC" default:"notifications.email"`
}

type MaintenanceConfig struct {
	Interval time.Duration `envconfig:"MAINTENANCE_INTERVAL" default:"1h"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func (c KafkaConfig) Enabled() bool {
	for _, b := range c.Brokers {
		if b != "" {
			return true
		}
	}
	return false
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Asia/Kolkata",
			MaxConns: 5,
		},
		Store: StoreConfig{Driver: "memory"},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Kolkata",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 19800,
		},
		JWT: JWTConfig{Secret: "test-secret"},
		Pricing: PricingConfig{
			TaxBands:              "8999:5,15999:12,35999:18,*:28",
			ShippingFee:           decimal.NewFromInt(49),
			FreeShippingThreshold: decimal.NewFromInt(9999),
		},
		Checkout: CheckoutConfig{
			SuccessURL:     "http://localhost:3000/success",
			CancelURL:      "http://localhost:3000/cancel",
			Currency:       "inr",
			OrderPrefix:    "ORD-",
			IdempotencyTTL: 24 * time.Hour,
		},
		Fulfillment: FulfillmentConfig{
			FastPostalCodes:  []string{"110001", "400001", "560001"},
			FastTierDays:     3,
			StandardTierDays: 7,
			DayLength:        24 * time.Hour,
			SweepInterval:    time.Minute,
			SweepBatchSize:   100,
			Workers:          2,
		},
		OTP: OTPConfig{
			TTL:         5 * time.Minute,
			MaxAttempts: 3,
		},
		Payment: PaymentConfig{
			BaseURL:            "http://localhost:12111",
			SecretKey:          "sk_test",
			WebhookSecret:      "whsec_test",
			SignatureTolerance: 5 * time.Minute,
			Timeout:            5 * time.Second,
		},
		Kafka: KafkaConfig{
			OrderEventsTopic: "orders.events",
			EmailTopic:       "notifications.email",
		},
		Maintenance: MaintenanceConfig{Interval: time.Hour},
	}
}
