// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a working default for local development.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// LogLevel is debug, info, warn or error.
	LogLevel string
	// DefaultDomain answers empty-name domain resolution when the directory
	// cannot name the caller's own domain.
	DefaultDomain string

	Directory Directory
	Redis     Redis
	Kafka     Kafka

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Directory configures the LDAP adapter.
type Directory struct {
	// URL is the default directory endpoint, e.g. ldap://dc01.contoso.com:389.
	// Queries that name their own server override it.
	URL string
	// BindDN is the service account used for authenticated binds.
	BindDN string
	// Credential is the service account secret, bound when a query carries
	// no credential of its own. Never logged.
	Credential string
}

// Redis configures the optional shared principal registry. An empty URL
// keeps the registry in process memory.
type Redis struct {
	URL string
}

// Kafka configures the optional audit event publisher. No brokers means
// audit events stay on the in-process channel pipeline.
type Kafka struct {
	Brokers []string
	Topic   string
}

// FromEnv reads the ADRESOLVER_* environment.
func FromEnv() Config {
	cfg := Config{
		Addr:            getenv("ADRESOLVER_ADDR", ":8080"),
		LogLevel:        getenv("ADRESOLVER_LOG_LEVEL", "info"),
		DefaultDomain:   os.Getenv("ADRESOLVER_DEFAULT_DOMAIN"),
		ShutdownTimeout: 10 * time.Second,
		Directory: Directory{
			URL:        os.Getenv("ADRESOLVER_DIRECTORY_URL"),
			BindDN:     os.Getenv("ADRESOLVER_DIRECTORY_BIND_DN"),
			Credential: os.Getenv("ADRESOLVER_DIRECTORY_CREDENTIAL"),
		},
		Redis: Redis{
			URL: os.Getenv("ADRESOLVER_REDIS_URL"),
		},
		Kafka: Kafka{
			Topic: getenv("ADRESOLVER_KAFKA_AUDIT_TOPIC", "adresolver.audit"),
		},
	}
	if brokers := os.Getenv("ADRESOLVER_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
