package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  Secrets (signing key, SMTP
// credentials, OAuth client id) are loaded once here and passed into
// the components that need them at construction time; nothing reads
// them ambiently afterwards.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to sign JWTs (HS512)
	AccessTTLMin  int    // access token time-to-live in minutes
	RefreshTTLMin int    // refresh token time-to-live in minutes
	BcryptCost    int    // bcrypt cost for password hashing

	GoogleClientID string // OAuth client id Google assertions must target

	SMTPHost     string // outbound mail host
	SMTPPort     string // outbound mail port
	SMTPUsername string // outbound mail username
	SMTPPassword string // outbound mail password
	SMTPFrom     string // From address on verification mail
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
// TTLs and cost fall back to the production defaults (5 minute access
// tokens, 1440 minute refresh tokens, cost 12).
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		AccessTTLMin:  intOr("ACCESS_TOKEN_TTL_MIN", 5),
		RefreshTTLMin: intOr("REFRESH_TOKEN_TTL_MIN", 1440),
		BcryptCost:    intOr("BCRYPT_COST", 12),

		GoogleClientID: must("GOOGLE_CLIENT_ID"),

		SMTPHost:     must("SMTP_HOST"),
		SMTPPort:     must("SMTP_PORT"),
		SMTPUsername: must("SMTP_USERNAME"),
		SMTPPassword: must("SMTP_PASSWORD"),
		SMTPFrom:     must("SMTP_FROM"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// intOr retrieves an optional integer environment variable, falling
// back to def when unset.  A value that is set but not an integer is a
// configuration mistake and halts startup.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
