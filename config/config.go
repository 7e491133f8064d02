package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/codax69/sever-main-sub001/pkg/constant"
	"github.com/spf13/viper"
)

const (
	DefaultPort                  = "8080"
	DefaultDBDriver              = "mongo"
	DefaultMongoDatabase         = "vegbazar"
	DefaultAccessTokenExpiryMin  = 1440
	DefaultUserRefreshExpiryMin  = 10080
	DefaultAdminRefreshExpiryMin = 43200
	DefaultBcryptCost            = 10
	DefaultLoginMaxAttempts      = 5
	DefaultLoginWindowMinutes    = 15
	DefaultSMTPPort              = 587

	EnvProduction  = "production"
	EnvDevelopment = "development"

	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config is built once at startup and passed to every component that needs it.
// Nothing reads the environment after Load returns.
type Config struct {
	Env  string
	Port string

	DBDriver      string
	DBURL         string
	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AccessTokenSecret     string
	RefreshTokenSecret    string
	AccessExpiryMin       int
	UserRefreshExpiryMin  int
	AdminRefreshExpiryMin int
	BcryptCost            int

	LoginMaxAttempts   int
	LoginWindowMinutes int

	ApprovalRequiredRoles []string
	GoogleClientID        string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	// ClientURLs maps a role to the frontend base URL used in mailed links.
	ClientURLs map[string]string
	// CookieDomains maps a role to the cookie domain used in production.
	CookieDomains map[string]string

	CORSAllowedOrigins []string
}

// IsProduction reports whether the service runs with production cookie and
// error-redaction settings.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// ClientURL returns the frontend base URL for role.
func (c *Config) ClientURL(role string) string {
	return strings.TrimRight(c.ClientURLs[role], "/")
}

// CookieDomain returns the cookie domain for role. It is empty outside
// production so cookies stay host-only.
func (c *Config) CookieDomain(role string) string {
	if !c.IsProduction() {
		return ""
	}
	return c.CookieDomains[role]
}

// RequiresApproval reports whether accounts with role must be approved before
// they can use authenticated endpoints.
func (c *Config) RequiresApproval(role string) bool {
	for _, r := range c.ApprovalRequiredRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Load reads config/.env.dev (or config/.env.prod when ENV=production) if the
// file exists, then lets environment variables override it.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	env := getEnv("ENV", EnvDevelopment)
	file := ".env.dev"
	if env == EnvProduction {
		file = ".env.prod"
	}
	path := filepath.Join("config", file)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			log.Fatalf("Failed to read config file %s: %v", path, err)
		}
	}

	cfg := &Config{
		Env:           env,
		Port:          v.GetString("port"),
		DBDriver:      strings.ToLower(v.GetString("db_driver")),
		MongoDatabase: v.GetString("mongo_database"),

		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),

		AccessTokenSecret:     mustGet(v, "ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret:    mustGet(v, "REFRESH_TOKEN_SECRET"),
		AccessExpiryMin:       v.GetInt("access_token_expiry"),
		UserRefreshExpiryMin:  v.GetInt("user_refresh_token_expiry"),
		AdminRefreshExpiryMin: v.GetInt("admin_refresh_token_expiry"),
		BcryptCost:            v.GetInt("bcrypt_cost"),

		LoginMaxAttempts:   v.GetInt("login_max_attempts"),
		LoginWindowMinutes: v.GetInt("login_window_minutes"),

		ApprovalRequiredRoles: splitList(v.GetString("approval_required_roles")),
		GoogleClientID:        v.GetString("google_client_id"),

		SMTPHost:     v.GetString("smtp_host"),
		SMTPPort:     v.GetInt("smtp_port"),
		SMTPUsername: v.GetString("smtp_username"),
		SMTPPassword: v.GetString("smtp_password"),
		MailFrom:     v.GetString("mail_from"),

		ClientURLs: map[string]string{
			constant.RoleUser:  v.GetString("client_url_user"),
			constant.RoleAdmin: v.GetString("client_url_admin"),
		},
		CookieDomains: map[string]string{
			constant.RoleUser:  v.GetString("cookie_domain_user"),
			constant.RoleAdmin: v.GetString("cookie_domain_admin"),
		},
		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		cfg.DBURL = mustGet(v, "DB_URL")
	case DriverMongo:
		cfg.MongoURI = mustGet(v, "MONGO_URI")
	default:
		log.Fatalf("Unsupported DB_DRIVER: %s", cfg.DBDriver)
	}

	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		log.Fatalf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("db_driver", DefaultDBDriver)
	v.SetDefault("mongo_database", DefaultMongoDatabase)
	v.SetDefault("access_token_expiry", DefaultAccessTokenExpiryMin)
	v.SetDefault("user_refresh_token_expiry", DefaultUserRefreshExpiryMin)
	v.SetDefault("admin_refresh_token_expiry", DefaultAdminRefreshExpiryMin)
	v.SetDefault("bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("login_max_attempts", DefaultLoginMaxAttempts)
	v.SetDefault("login_window_minutes", DefaultLoginWindowMinutes)
	v.SetDefault("smtp_port", DefaultSMTPPort)
	v.SetDefault("approval_required_roles", constant.RoleAdmin)
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGet(v *viper.Viper, key string) string {
	if value := v.GetString(strings.ToLower(key)); value != "" {
		return value
	}
	log.Fatalf("Missing required config: %s", key)
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
