// Package config loads service settings from an optional YAML file and
// POS_* environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	EnvPrefix   = "POS_"
	DefaultFile = "config.yaml"
)

// Storage drivers
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverDynamo   = "dynamodb"
	DriverMongo    = "mongodb"
)

type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Shop     Shop     `koanf:"shop"`
	Storage  Storage  `koanf:"storage"`
	Kafka    Kafka    `koanf:"kafka"`
	Notifier Notifier `koanf:"notifier"`
	SMTP     SMTP     `koanf:"smtp"`
}

type HTTP struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdownTimeout"`
	// WebDir serves a static till UI from / when set.
	WebDir string `koanf:"webDir"`
}

type Shop struct {
	// TimeZone is an IANA name used to bucket sales into days and months.
	TimeZone          string `koanf:"timeZone"`
	SeedDefaults      bool   `koanf:"seedDefaults"`
	LowStockThreshold int    `koanf:"lowStockThreshold"`
}

type Storage struct {
	Driver   string   `koanf:"driver"`
	Dir      string   `koanf:"dir"`
	Postgres Postgres `koanf:"postgres"`
	Dynamo   Dynamo   `koanf:"dynamo"`
	Mongo    Mongo    `koanf:"mongo"`
}

type Postgres struct {
	DSN string `koanf:"dsn"`
}

type Dynamo struct {
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
	Table    string `koanf:"table"`
}

type Mongo struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

type Kafka struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	GroupID string   `koanf:"groupId"`
}

type Notifier struct {
	// DigestAt is the daily "HH:MM" time of the pending credit digest.
	DigestAt string   `koanf:"digestAt"`
	To       []string `koanf:"to"`
}

type SMTP struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		HTTP: HTTP{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Shop: Shop{
			TimeZone:          "Local",
			SeedDefaults:      true,
			LowStockThreshold: 5,
		},
		Storage: Storage{
			Driver: DriverFile,
			Dir:    "data",
			Dynamo: Dynamo{Region: "ap-northeast-1", Table: "shop-documents"},
			Mongo:  Mongo{Database: "shop", Collection: "documents"},
		},
		Kafka: Kafka{
			Topic:   "shop-events",
			GroupID: "shop-notifier",
		},
		Notifier: Notifier{
			DigestAt: "20:00",
		},
		SMTP: SMTP{
			Host: "localhost",
			Port: 1025,
			From: "noreply@shop.local",
		},
	}
}

// Load reads .env (if present), then path (if present), then POS_*
// environment variables, each layer overriding the previous one. An empty
// path means DefaultFile.
//
// Environment keys map to config paths by dropping the prefix, lowercasing
// and turning "_" into ".": POS_SHOP_LOWSTOCKTHRESHOLD sets
// shop.lowStockThreshold. List values are comma separated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}

	if path == "" {
		path = DefaultFile
	}

	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat config %s", path)
	}

	// env keys take the file's camelCase spelling so they replace file values
	fileKeys := make(map[string]string)
	for _, key := range k.Keys() {
		fileKeys[strings.ToLower(key)] = key
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			key = strings.ReplaceAll(key, "_", ".")
			if existing, ok := fileKeys[key]; ok {
				key = existing
			}
			return key, value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables")
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the file driver")
		}
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.Postgres.DSN == "" {
			return errors.New("storage.postgres.dsn is required for the postgres driver")
		}
	case DriverDynamo:
		if c.Storage.Dynamo.Table == "" {
			return errors.New("storage.dynamo.table is required for the dynamodb driver")
		}
	case DriverMongo:
		if c.Storage.Mongo.URI == "" {
			return errors.New("storage.mongo.uri is required for the mongodb driver")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if _, err := time.Parse("15:04", c.Notifier.DigestAt); err != nil {
		return errors.Wrapf(err, "notifier.digestAt %q", c.Notifier.DigestAt)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Shop.TimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Shop.TimeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "shop.timeZone %q", c.Shop.TimeZone)
	}
	return loc, nil
}

// KafkaEnabled reports whether events should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
