package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "NORTHFARM"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv    = "NORTHFARM_APP_ENV"
	EnvPort      = "NORTHFARM_APP_PORT"
	EnvDBDSN     = "NORTHFARM_DB_DSN"
	EnvDBHost    = "NORTHFARM_DB_HOST"
	EnvDBUser    = "NORTHFARM_DB_USER"
	EnvDBName    = "NORTHFARM_DB_NAME"
	EnvRedisURL  = "NORTHFARM_REDIS_URL"
	EnvJWTSecret = "NORTHFARM_JWT_SECRET"
	EnvJWTIssuer = "NORTHFARM_JWT_ISSUER"
	EnvJWTExp    = "NORTHFARM_JWT_EXPIRATION_MINUTES"
	EnvAuthUsers = "NORTHFARM_AUTH_USERS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Auth         AuthConfig
	Password     PasswordConfig
	Ledger       LedgerConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Auth.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NORTHFARM_APP_ENV" required:"true"`
	Port         string `envconfig:"NORTHFARM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NORTHFARM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NORTHFARM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NORTHFARM_DB_DSN"`
	Driver string `envconfig:"NORTHFARM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NORTHFARM_DB_HOST"`
	LegacyPort     int    `envconfig:"NORTHFARM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NORTHFARM_DB_USER"`
	LegacyPassword string `envconfig:"NORTHFARM_DB_PASSWORD"`
	LegacyName     string `envconfig:"NORTHFARM_DB_NAME"`
	LegacySSLMode  string `envconfig:"NORTHFARM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NORTHFARM_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"NORTHFARM_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"NORTHFARM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NORTHFARM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NORTHFARM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NORTHFARM_REDIS_ADDR"`
	Password     string        `envconfig:"NORTHFARM_REDIS_PASSWORD"`
	DB           int           `envconfig:"NORTHFARM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NORTHFARM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NORTHFARM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NORTHFARM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NORTHFARM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NORTHFARM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"NORTHFARM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NORTHFARM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NORTHFARM_JWT_EXPIRATION_MINUTES" default:"720"`
}

// SessionTTL returns how long an issued session stays valid.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// AuthConfig carries the fixed credential table. Users is a comma-separated
// list of username:password:role triples; passwords may be Argon2id hashes
// or plaintext for development setups. This is a UI role gate, not a
// security boundary.
type AuthConfig struct {
	Users string `envconfig:"NORTHFARM_AUTH_USERS" default:"admin:admin123:admin,staff:staff123:staff"`
}

// Credential is one parsed row of the static credential table.
type Credential struct {
	Username string
	Password string
	Role     string
}

func (a AuthConfig) validate() error {
	_, err := a.Credentials()
	return err
}

// Credentials parses the configured credential table.
func (a AuthConfig) Credentials() ([]Credential, error) {
	raw := strings.TrimSpace(a.Users)
	if raw == "" {
		return nil, fmt.Errorf("%s must list at least one account", EnvAuthUsers)
	}

	var creds []Credential
	for _, row := range strings.Split(raw, ",") {
		row = strings.TrimSpace(row)
		if row == "" {
			continue
		}
		parts := strings.SplitN(row, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("malformed credential row %q (want username:password:role)", row)
		}
		role := strings.ToLower(strings.TrimSpace(parts[2]))
		if role != "admin" && role != "staff" {
			return nil, fmt.Errorf("unknown role %q for user %q", role, parts[0])
		}
		creds = append(creds, Credential{
			Username: strings.TrimSpace(parts[0]),
			Password: parts[1],
			Role:     role,
		})
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("%s must list at least one account", EnvAuthUsers)
	}
	return creds, nil
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NORTHFARM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NORTHFARM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NORTHFARM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NORTHFARM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NORTHFARM_ARGON_KEY_LEN" default:"32"`
}

// LedgerConfig carries venue-level ledger settings.
type LedgerConfig struct {
	Locations       []string `envconfig:"NORTHFARM_LEDGER_LOCATIONS" default:"clubhouse,starthouse,east-hut,west-hut"`
	AuditCap        int      `envconfig:"NORTHFARM_LEDGER_AUDIT_CAP" default:"200"`
	SnapshotChannel string   `envconfig:"NORTHFARM_LEDGER_SNAPSHOT_CHANNEL" default:"northfarm:snapshots"`
}

func (l LedgerConfig) validate() error {
	if len(l.Locations) == 0 {
		return fmt.Errorf("at least one ledger location is required")
	}
	seen := map[string]bool{}
	for _, loc := range l.Locations {
		name := strings.TrimSpace(loc)
		if name == "" {
			return fmt.Errorf("ledger locations must be non-empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate ledger location %q", name)
		}
		seen[name] = true
	}
	if l.AuditCap <= 0 {
		return fmt.Errorf("audit cap must be positive")
	}
	return nil
}

// HasLocation reports whether name is one of the configured venue locations.
func (l LedgerConfig) HasLocation(name string) bool {
	for _, loc := range l.Locations {
		if loc == name {
			return true
		}
	}
	return false
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"NORTHFARM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"NORTHFARM_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
