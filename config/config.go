package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"annotastore/internal/store"
	"annotastore/pkg/logger"
)

const (
	EnvAPIKey    = "ANNOTASTORE_API_KEY"
	EnvAuthToken = "ANNOTASTORE_AUTH_TOKEN"
	EnvPath      = "ANNOTASTORE_CONFIG"

	DefaultTokenTTL       = time.Hour
	DefaultAddr           = ":8080"
	DefaultMaxAttachment  = 10 * 1024 * 1024
	DefaultAttachmentPath = "/api/attachments/"
)

type Database struct {
	Type             string `yaml:"type"`
	Host             string `yaml:"host"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	AuthDatabase     string `yaml:"auth_database"`
	DatabaseName     string `yaml:"database_name"`
	ConnectionString string `yaml:"connection_string"`
	UseSRV           bool   `yaml:"use_srv"`
	SSLMode          string `yaml:"sslmode"`
	RedisDB          int    `yaml:"redis_db"`
}

type Collections struct {
	Comments    string `yaml:"comments"`
	Reactions   string `yaml:"reactions"`
	Attachments string `yaml:"attachments"`
	Users       string `yaml:"users"`
}

type Token struct {
	SigningKey string        `yaml:"signing_key"`
	TTL        time.Duration `yaml:"ttl"`
}

type Minio struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

func (m Minio) Enabled() bool { return m.Endpoint != "" }

type Storage struct {
	Minio Minio `yaml:"minio"`
}

type Attachments struct {
	MaxSize int64  `yaml:"max_size"`
	URLPath string `yaml:"url_path"`
}

type Server struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Config struct {
	Database    Database    `yaml:"database"`
	APIKey      string      `yaml:"-"`
	AuthToken   string      `yaml:"-"`
	Collections Collections `yaml:"collections"`
	Token       Token       `yaml:"token"`
	Storage     Storage     `yaml:"storage"`
	Attachments Attachments `yaml:"attachments"`
	Server      Server      `yaml:"server"`
	Log         Log         `yaml:"log"`
}

// file mirrors Config but keeps the credentials as pointers so an explicit
// empty value can be told apart from an absent one.
type file struct {
	Config    `yaml:",inline"`
	APIKey    *string `yaml:"apiKey"`
	AuthToken *string `yaml:"authToken"`
}

// Load reads .env (when present) and the YAML file at path. An empty path
// falls back to $ANNOTASTORE_CONFIG; with neither, only defaults and the
// environment apply. ${VAR} references in the file are expanded.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Sugar.Debug("No .env file found, using environment variables from OS")
	}
	if path == "" {
		path = os.Getenv(EnvPath)
	}

	var f file
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(expandEnv(string(raw))), &f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return resolve(f)
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} references only; any other $ is kept verbatim.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// Parse builds a Config from YAML bytes without touching .env.
func Parse(data []byte) (*Config, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return resolve(f)
}

func resolve(f file) (*Config, error) {
	cfg := f.Config
	cfg.APIKey = explicitOrEnv(f.APIKey, EnvAPIKey)
	cfg.AuthToken = explicitOrEnv(f.AuthToken, EnvAuthToken)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func explicitOrEnv(v *string, env string) string {
	if v != nil {
		return *v
	}
	return os.Getenv(env)
}

func (c *Config) applyDefaults() {
	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	switch c.Database.Type {
	case "":
		c.Database.Type = "mongodb"
	case "mongo":
		c.Database.Type = "mongodb"
	case "postgresql":
		c.Database.Type = "postgres"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "require"
	}

	c.Collections.Comments = orDefault(c.Collections.Comments, store.DefaultComments)
	c.Collections.Reactions = orDefault(c.Collections.Reactions, store.DefaultReactions)
	c.Collections.Attachments = orDefault(c.Collections.Attachments, store.DefaultAttachments)
	c.Collections.Users = orDefault(c.Collections.Users, store.DefaultUsers)

	if c.Token.SigningKey == "" {
		c.Token.SigningKey = c.AuthToken
	}
	if c.Token.TTL <= 0 {
		c.Token.TTL = DefaultTokenTTL
	}
	if c.Storage.Minio.Bucket == "" {
		c.Storage.Minio.Bucket = "annotastore-attachments"
	}
	if c.Attachments.MaxSize <= 0 {
		c.Attachments.MaxSize = DefaultMaxAttachment
	}
	c.Attachments.URLPath = orDefault(c.Attachments.URLPath, DefaultAttachmentPath)
	c.Server.Addr = orDefault(c.Server.Addr, DefaultAddr)
	c.Server.CORSOrigin = orDefault(c.Server.CORSOrigin, "*")
	c.Log.Level = orDefault(c.Log.Level, "info")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Validate checks that the selected backend has what it needs to connect.
func (c *Config) Validate() error {
	db := c.Database
	switch db.Type {
	case "memory":
		return nil
	case "mongodb":
		if db.ConnectionString != "" {
			return nil
		}
		var missing []string
		for name, v := range map[string]string{
			"host":          db.Host,
			"username":      db.Username,
			"password":      db.Password,
			"auth_database": db.AuthDatabase,
			"database_name": db.DatabaseName,
		} {
			if v == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("database configuration must include %s", strings.Join(missing, ", "))
		}
		return nil
	case "postgres", "redis":
		if db.ConnectionString == "" && db.Host == "" {
			return fmt.Errorf("database configuration for %s must include host or connection_string", db.Type)
		}
		return nil
	default:
		return errors.New("unsupported database type " + db.Type)
	}
}

// MongoURI builds the MongoDB connection string. connection_string wins;
// Atlas hosts (*.mongodb.net) and use_srv select the SRV scheme.
func (c *Config) MongoURI() string {
	db := c.Database
	if db.ConnectionString != "" {
		return db.ConnectionString
	}

	creds := url.UserPassword(db.Username, db.Password).String()
	atlas := strings.Contains(db.Host, ".mongodb.net")
	srv := db.UseSRV || atlas

	host := db.Host
	switch {
	case strings.HasPrefix(host, "mongodb+srv://"):
		host = hostOnly(strings.TrimPrefix(host, "mongodb+srv://"))
		return fmt.Sprintf("mongodb+srv://%s@%s/%s?authSource=%s", creds, host, db.DatabaseName, db.AuthDatabase)
	case strings.HasPrefix(host, "mongodb://"):
		host = hostOnly(strings.TrimPrefix(host, "mongodb://"))
		if atlas {
			return fmt.Sprintf("mongodb+srv://%s@%s/%s?authSource=%s&retryWrites=true&w=majority", creds, host, db.DatabaseName, db.AuthDatabase)
		}
		return fmt.Sprintf("mongodb://%s@%s/%s?authSource=%s", creds, host, db.DatabaseName, db.AuthDatabase)
	case srv:
		return fmt.Sprintf("mongodb+srv://%s@%s/%s?authSource=%s&retryWrites=true&w=majority", creds, host, db.DatabaseName, db.AuthDatabase)
	default:
		return fmt.Sprintf("mongodb://%s@%s/%s?authSource=%s", creds, host, db.DatabaseName, db.AuthDatabase)
	}
}

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	db := c.Database
	if db.ConnectionString != "" {
		return db.ConnectionString
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.Username, db.Password),
		Host:     db.Host,
		Path:     "/" + db.DatabaseName,
		RawQuery: "sslmode=" + url.QueryEscape(db.SSLMode),
	}
	return u.String()
}

func hostOnly(s string) string {
	if i := strings.Index(s, "/"); i >= 0 {
		return s[:i]
	}
	return s
}
