// Package formrelay turns submitted forms into populated spreadsheets and mails them.
package formrelay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/ukaji3/formrelay-go/pkg/formrelay/records"
)

const (
	// DefaultEnvFile is read when LoadOptions.EnvFile is empty and the file exists.
	DefaultEnvFile = ".env"
	// DefaultLogFile is used when LOG_FILE is not set.
	DefaultLogFile = "script.log"
)

// Config holds the settings of one pipeline run.
type Config struct {
	// AccessKey and SecretKey are static AWS credentials. When both are empty
	// the default AWS credential chain is used.
	AccessKey string `toml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `toml:"secret_key" env:"SECRET_KEY"`
	Region    string `toml:"region" env:"REGION"`
	// Endpoint overrides the AWS service endpoints (local stacks, S3-compatible stores).
	Endpoint     string `toml:"endpoint" env:"AWS_ENDPOINT_URL"`
	UsePathStyle bool   `toml:"use_path_style" env:"AWS_S3_USE_PATH_STYLE"`

	Bucket        string `toml:"bucket" env:"AWS_S3_BUCKET_NAME"`
	TemplateKey   string `toml:"template_key" env:"AWS_S3_FILE_NAME"`
	TemplateSheet string `toml:"template_sheet" env:"TEMPLATE_SHEET"`
	// AttachmentName defaults to the base name of TemplateKey.
	AttachmentName string `toml:"attachment_name" env:"ATTACHMENT_NAME"`

	Sender  string `toml:"sender" env:"AWS_SES_SENDER"`
	Subject string `toml:"subject" env:"AWS_SES_SUBJECT"`
	Body    string `toml:"body" env:"AWS_SES_BODY"`

	PocketBaseURL       string   `toml:"pocketbase_url" env:"POCKETBASE_URL"`
	PocketBaseToken     string   `toml:"pocketbase_token" env:"POCKETBASE_TOKEN"`
	ProjectsCollection  string   `toml:"projects_collection" env:"PROJECTS_COLLECTION"`
	CellTableCollection string   `toml:"cell_table_collection" env:"CELL_TABLE_COLLECTION"`
	PendingStatus       string   `toml:"pending_status" env:"PENDING_STATUS"`
	ProcessedStatus     string   `toml:"processed_status" env:"PROCESSED_STATUS"`
	PageSize            int      `toml:"page_size" env:"PAGE_SIZE"`
	HTTPTimeout         Duration `toml:"http_timeout" env:"HTTP_TIMEOUT"`

	LogFile string `toml:"log_file" env:"LOG_FILE"`
}

// Duration wraps time.Duration for TOML and environment parsing.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadOptions selects the files read by Load.
type LoadOptions struct {
	// ConfigFile is an optional TOML file.
	ConfigFile string
	// EnvFile is a dotenv file loaded into the process environment without
	// overriding variables already set. Empty means DefaultEnvFile, if present.
	EnvFile string
}

// Load builds a Config from the dotenv file, the TOML file and the environment,
// in that order of increasing precedence, then applies defaults and validates it.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			envFile = DefaultEnvFile
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if opts.ConfigFile != "" {
		if _, err := toml.DecodeFile(os.ExpandEnv(opts.ConfigFile), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.ProjectsCollection == "" {
		c.ProjectsCollection = "projects"
	}
	if c.CellTableCollection == "" {
		c.CellTableCollection = "cellTable"
	}
	if c.PendingStatus == "" {
		c.PendingStatus = "uploaded"
	}
	if c.ProcessedStatus == "" {
		c.ProcessedStatus = "processed"
	}
	if c.PageSize <= 0 {
		c.PageSize = records.DefaultPageSize
	}
	c.PageSize = min(c.PageSize, records.MaxPageSize)
	if c.HTTPTimeout.Duration <= 0 {
		c.HTTPTimeout.Duration = 30 * time.Second
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
}

// Validate reports every required value that is missing.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"REGION", c.Region},
		{"AWS_S3_BUCKET_NAME", c.Bucket},
		{"AWS_S3_FILE_NAME", c.TemplateKey},
		{"AWS_SES_SENDER", c.Sender},
		{"AWS_SES_SUBJECT", c.Subject},
		{"POCKETBASE_URL", c.PocketBaseURL},
	}

	var errs []error
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingConfig, r.name))
		}
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		errs = append(errs, fmt.Errorf("%w: ACCESS_KEY and SECRET_KEY must be set together", ErrMissingConfig))
	}
	return errors.Join(errs...)
}

// PendingFilter returns the record store filter selecting unprocessed projects.
func (c *Config) PendingFilter() string {
	return `status="` + strings.ReplaceAll(c.PendingStatus, `"`, `\"`) + `"`
}

// AttachmentFilename returns the filename used for the mailed workbook.
func (c *Config) AttachmentFilename() string {
	if c.AttachmentName != "" {
		return c.AttachmentName
	}
	return path.Base(c.TemplateKey)
}

// AWSConfig resolves the shared AWS configuration for the S3 and SES clients.
func (c *Config) AWSConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
	}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	return cfg, nil
}
