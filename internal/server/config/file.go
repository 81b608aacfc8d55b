package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/flagx"
	"github.com/dmitrijs2005/notesnap/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "24h" and integer nanoseconds are accepted. Zero
// values mean "not set" and keep whatever the defaults provided.
type fileConfig struct {
	HTTPAddr    string   `json:"http_addr" yaml:"http_addr"`
	GRPCAddr    string   `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN string   `json:"database_dsn" yaml:"database_dsn"`
	SecretKey   string   `json:"secret_key" yaml:"secret_key"`
	BaseURL     string   `json:"base_url" yaml:"base_url"`
	APIBaseURL  string   `json:"api_base_url" yaml:"api_base_url"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	BcryptCost  int      `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	LogBackend  string   `json:"log_backend" yaml:"log_backend"`

	CookieSecure *bool `json:"cookie_secure" yaml:"cookie_secure"`
	Debug        *bool `json:"debug" yaml:"debug"`

	AccessTokenValidityDuration        timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration       timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	VerificationTokenValidityDuration  timex.Duration `json:"verification_token_validity_duration" yaml:"verification_token_validity_duration"`
	PasswordResetTokenValidityDuration timex.Duration `json:"password_reset_token_validity_duration" yaml:"password_reset_token_validity_duration"`

	Email struct {
		Enabled    *bool  `json:"enabled" yaml:"enabled"`
		Service    string `json:"service" yaml:"service"`
		From       string `json:"from" yaml:"from"`
		User       string `json:"user" yaml:"user"`
		Pass       string `json:"pass" yaml:"pass"`
		SMTPHost   string `json:"smtp_host" yaml:"smtp_host"`
		SMTPPort   int    `json:"smtp_port" yaml:"smtp_port"`
		SMTPSecure *bool  `json:"smtp_secure" yaml:"smtp_secure"`
		SMTPUser   string `json:"smtp_user" yaml:"smtp_user"`
		SMTPPass   string `json:"smtp_pass" yaml:"smtp_pass"`
	} `json:"email" yaml:"email"`

	OAuth struct {
		GoogleClientID      string `json:"google_client_id" yaml:"google_client_id"`
		GoogleClientSecret  string `json:"google_client_secret" yaml:"google_client_secret"`
		GitHubClientID      string `json:"github_client_id" yaml:"github_client_id"`
		GitHubClientSecret  string `json:"github_client_secret" yaml:"github_client_secret"`
		DiscordClientID     string `json:"discord_client_id" yaml:"discord_client_id"`
		DiscordClientSecret string `json:"discord_client_secret" yaml:"discord_client_secret"`
	} `json:"oauth" yaml:"oauth"`

	S3 struct {
		RootUser                  string         `json:"root_user" yaml:"root_user"`
		RootPassword              string         `json:"root_password" yaml:"root_password"`
		Bucket                    string         `json:"bucket" yaml:"bucket"`
		Region                    string         `json:"region" yaml:"region"`
		BaseEndpoint              string         `json:"base_endpoint" yaml:"base_endpoint"`
		PublicURL                 string         `json:"public_url" yaml:"public_url"`
		UploadURLValidityDuration timex.Duration `json:"upload_url_validity_duration" yaml:"upload_url_validity_duration"`
	} `json:"s3" yaml:"s3"`
}

// parseFile loads the file named by -c/-config, if any. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := &fileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return err
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.GRPCAddr, fc.GRPCAddr)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.SecretKey, fc.SecretKey)
	setString(&cfg.BaseURL, fc.BaseURL)
	setString(&cfg.APIBaseURL, fc.APIBaseURL)
	setString(&cfg.LogBackend, fc.LogBackend)
	setInt(&cfg.BcryptCost, fc.BcryptCost)
	setBool(&cfg.CookieSecure, fc.CookieSecure)
	setBool(&cfg.Debug, fc.Debug)
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}

	setDuration(&cfg.AccessTokenValidityDuration, fc.AccessTokenValidityDuration)
	setDuration(&cfg.RefreshTokenValidityDuration, fc.RefreshTokenValidityDuration)
	setDuration(&cfg.VerificationTokenValidityDuration, fc.VerificationTokenValidityDuration)
	setDuration(&cfg.PasswordResetTokenValidityDuration, fc.PasswordResetTokenValidityDuration)

	setBool(&cfg.Email.Enabled, fc.Email.Enabled)
	setString(&cfg.Email.Service, fc.Email.Service)
	setString(&cfg.Email.From, fc.Email.From)
	setString(&cfg.Email.User, fc.Email.User)
	setString(&cfg.Email.Pass, fc.Email.Pass)
	setString(&cfg.Email.SMTPHost, fc.Email.SMTPHost)
	setInt(&cfg.Email.SMTPPort, fc.Email.SMTPPort)
	setBool(&cfg.Email.SMTPSecure, fc.Email.SMTPSecure)
	setString(&cfg.Email.SMTPUser, fc.Email.SMTPUser)
	setString(&cfg.Email.SMTPPass, fc.Email.SMTPPass)

	setString(&cfg.OAuth.GoogleClientID, fc.OAuth.GoogleClientID)
	setString(&cfg.OAuth.GoogleClientSecret, fc.OAuth.GoogleClientSecret)
	setString(&cfg.OAuth.GitHubClientID, fc.OAuth.GitHubClientID)
	setString(&cfg.OAuth.GitHubClientSecret, fc.OAuth.GitHubClientSecret)
	setString(&cfg.OAuth.DiscordClientID, fc.OAuth.DiscordClientID)
	setString(&cfg.OAuth.DiscordClientSecret, fc.OAuth.DiscordClientSecret)

	setString(&cfg.S3.RootUser, fc.S3.RootUser)
	setString(&cfg.S3.RootPassword, fc.S3.RootPassword)
	setString(&cfg.S3.Bucket, fc.S3.Bucket)
	setString(&cfg.S3.Region, fc.S3.Region)
	setString(&cfg.S3.BaseEndpoint, fc.S3.BaseEndpoint)
	setString(&cfg.S3.PublicURL, fc.S3.PublicURL)
	setDuration(&cfg.S3.UploadURLValidityDuration, fc.S3.UploadURLValidityDuration)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
