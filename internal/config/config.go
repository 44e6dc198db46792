package config

import "os"

// Config is the server's environment configuration. Empty MongoURI runs
// without the durable archive; empty RedisAddr falls back to the
// in-memory store (single node only).
type Config struct {
	MongoURI  string
	RedisAddr string
	HTTPPort  string
}

func Load() *Config {
	return &Config{
		MongoURI:  getEnv("MONGO_URI", ""),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:  getEnv("PORT", "8080"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
