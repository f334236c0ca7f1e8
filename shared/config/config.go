package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Server            string        `yaml:"server" validate:"required,url"`
	ThreadsPageSize   int           `yaml:"threads_page_size" validate:"gte=1,lte=200"` // page size of the full thread load
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gt=0"`
	RequestTimeout    time.Duration `yaml:"request_timeout" validate:"gt=0"`
	UseMarkdown       bool          `yaml:"use_markdown"`
	UseRealName       bool          `yaml:"use_real_name"`
	Storage           Storage       `yaml:"storage"`
	Log               Log           `yaml:"log"`
	HTTP              HTTP          `yaml:"http"`
}

type Storage struct {
	Driver string `yaml:"driver" validate:"oneof=sqlite postgres"`
	Path   string `yaml:"path" validate:"required_if=Driver sqlite"` // sqlite database file
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

type HTTP struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Private struct {
	UserID    string `yaml:"user_id" validate:"required"`
	AuthToken string `yaml:"auth_token" validate:"required"`
	Pg        Pg     `yaml:"pg"`
}

// Default returns the values used for keys missing from public.yaml.
func Default() Public {
	return Public{
		ThreadsPageSize:   50,
		RequestsPerSecond: 5,
		RequestTimeout:    15 * time.Second,
		UseMarkdown:       true,
		Storage:           Storage{Driver: DriverSQLite, Path: "roomkit.db"},
		Log:               Log{Level: "info", Format: "text"},
		HTTP:              HTTP{Addr: ":8081"},
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c.Public); err != nil {
		return fmt.Errorf("invalid public config: %w", err)
	}
	if err := validate.Struct(c.Private); err != nil {
		return fmt.Errorf("invalid private config: %w", err)
	}
	if c.Public.Storage.Driver == DriverPostgres && c.Private.Pg.Host == "" {
		return fmt.Errorf("invalid private config: pg.host is required for the postgres driver")
	}
	return nil
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file: " + configPath)
	}
}

// applyEnv overrides secrets and the server address from the environment,
// loading <configFolder>/.env first when it exists.
func applyEnv(configFolder string, cfg *Config) {
	envPath := path.Join(configFolder, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			panic("can't load env file: " + envPath)
		}
	}

	if v := os.Getenv("ROOMKIT_SERVER"); v != "" {
		cfg.Public.Server = v
	}
	if v := os.Getenv("ROOMKIT_USER_ID"); v != "" {
		cfg.Private.UserID = v
	}
	if v := os.Getenv("ROOMKIT_AUTH_TOKEN"); v != "" {
		cfg.Private.AuthToken = v
	}
}

func MustLoad(configFolder string) *Config {
	public := Default()
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{Public: public, Private: private}
	applyEnv(configFolder, cfg)
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	return cfg
}
