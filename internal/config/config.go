package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

const DefaultPath = "config.yaml"

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Directories DirectoriesConfig `yaml:"directories"`
	Import      ImportConfig      `yaml:"import"`
	LogLevel    string            `yaml:"log_level"`
	NATS        NATSConfig        `yaml:"nats"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Report      ReportConfig      `yaml:"report"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"sslmode"`
	SchemaFile string `yaml:"schema_file"`
}

type DirectoriesConfig struct {
	Invoice string `yaml:"invoice"`
	Freight string `yaml:"freight"`
}

type ImportConfig struct {
	ParseWorkers int    `yaml:"parse_workers"`
	Extension    string `yaml:"extension"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	RetryAttempts int    `yaml:"retry_attempts"`
}

type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

type ReportConfig struct {
	XLSXPath string `yaml:"xlsx_path"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:  "pgx",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Directories: DirectoriesConfig{
			Invoice: "./NFe",
			Freight: "./CTe",
		},
		Import: ImportConfig{
			ParseWorkers: 1,
			Extension:    ".xml",
		},
		LogLevel: "info",
		NATS: NATSConfig{
			SubjectPrefix: "fiscal.documents",
			RetryAttempts: 3,
		},
	}
}

// ExampleTemplate is shown to operators when no config file exists.
const ExampleTemplate = `database:
  driver: pgx            # pgx or postgres
  host: localhost
  port: 5432
  user: fiscal
  password: change-me    # or FISCAL_DB_PASSWORD
  name: fiscal
  sslmode: disable
directories:
  invoice: ./NFe
  freight: ./CTe
import:
  parse_workers: 4
log_level: info
nats:
  url: ""                # empty disables document events
  subject_prefix: fiscal.documents
metrics:
  textfile_path: ""
report:
  xlsx_path: ""
`

// LoadDotEnv loads variables from the given .env files, skipping files that
// do not exist. Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is domain.ErrConfigNotFound.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, domain.WrapError(domain.ErrConfigNotFound, "load config", err)
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, domain.WrapError(domain.ErrInvalidInput, "parse config", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.Driver = mustEnv("FISCAL_DB_DRIVER", c.Database.Driver)
	c.Database.Host = mustEnv("FISCAL_DB_HOST", c.Database.Host)
	c.Database.Port = mustEnvInt("FISCAL_DB_PORT", c.Database.Port)
	c.Database.User = mustEnv("FISCAL_DB_USER", c.Database.User)
	c.Database.Password = mustEnv("FISCAL_DB_PASSWORD", c.Database.Password)
	c.Database.Name = mustEnv("FISCAL_DB_NAME", c.Database.Name)
	c.Database.SSLMode = mustEnv("FISCAL_DB_SSLMODE", c.Database.SSLMode)
	c.Database.SchemaFile = mustEnv("FISCAL_SCHEMA_FILE", c.Database.SchemaFile)

	c.Directories.Invoice = mustEnv("FISCAL_INVOICE_DIR", c.Directories.Invoice)
	c.Directories.Freight = mustEnv("FISCAL_FREIGHT_DIR", c.Directories.Freight)
	c.Import.ParseWorkers = mustEnvInt("FISCAL_PARSE_WORKERS", c.Import.ParseWorkers)

	c.LogLevel = mustEnv("FISCAL_LOG_LEVEL", c.LogLevel)
	c.NATS.URL = mustEnv("FISCAL_NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = mustEnv("FISCAL_NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)
	c.Metrics.TextfilePath = mustEnv("FISCAL_METRICS_TEXTFILE", c.Metrics.TextfilePath)
	c.Report.XLSXPath = mustEnv("FISCAL_REPORT_XLSX", c.Report.XLSXPath)
}

func (c Config) Validate() error {
	var problems []string
	switch c.Database.Driver {
	case "pgx", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q must be pgx or postgres", c.Database.Driver))
	}
	if c.Database.Host == "" {
		problems = append(problems, "database.host is required")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.name is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, fmt.Sprintf("database.port %d is out of range", c.Database.Port))
	}
	if c.Import.ParseWorkers < 1 {
		problems = append(problems, "import.parse_workers must be at least 1")
	}
	if len(problems) > 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate config", errors.New(strings.Join(problems, "; ")))
	}
	return nil
}

// DSN renders the keyword/value connection string understood by both pgx
// and lib/pq.
func (d DatabaseConfig) DSN() string {
	parts := []string{
		"host=" + quoteDSN(d.Host),
		"port=" + strconv.Itoa(d.Port),
		"user=" + quoteDSN(d.User),
		"dbname=" + quoteDSN(d.Name),
		"sslmode=" + quoteDSN(d.SSLMode),
	}
	if d.Password != "" {
		parts = append(parts, "password="+quoteDSN(d.Password))
	}
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
