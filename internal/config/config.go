package config

import "os"

const (
	defaultHTTPAddr  = ":8080"
	defaultMySQLDSN  = "storeuser:storepassword@tcp(localhost:3306)/store_db?parseTime=true&charset=utf8mb4"
	defaultRedisAddr = "localhost:6379"
)

type Config struct {
	HTTPAddr      string
	MySQLDSN      string
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from the environment, falling back to local
// development defaults.
func Load() Config {
	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", defaultHTTPAddr),
		MySQLDSN:      getenv("MYSQL_DSN", defaultMySQLDSN),
		RedisAddr:     getenv("REDIS_ADDR", defaultRedisAddr),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
