package service

import (
	"os"
	"strconv"
	"time"
)

// Config is what cmd/nudged needs to assemble a Service.
//
// ConfigFromEnv provides defaults, which flags can then override.
type Config struct {
	Addr string

	// CatalogWatch reloads CatalogFile when it changes.
	CatalogFile  string
	CatalogWatch bool

	// CatalogInterval is how often CatalogURL is polled.
	CatalogURL      string
	CatalogInterval time.Duration

	// MQTTBroker, if not empty, enables MQTT catalog delivery and
	// exposure publishing.
	MQTTBroker    string
	MQTTPort      int
	MQTTClientId  string
	CatalogTopic  string
	ExposureTopic string

	StoreKind string
	StorePath string

	Interpreter string
	LibDir      string

	Websockets bool
}

// ConfigFromEnv reads NUDGE_* environment variables.
func ConfigFromEnv() *Config {
	return &Config{
		Addr:            getenv("NUDGE_ADDR", ":8080"),
		CatalogFile:     getenv("NUDGE_CATALOG_FILE", ""),
		CatalogWatch:    getenvBool("NUDGE_CATALOG_WATCH", true),
		CatalogURL:      getenv("NUDGE_CATALOG_URL", ""),
		CatalogInterval: getenvDuration("NUDGE_CATALOG_INTERVAL", time.Minute),
		MQTTBroker:      getenv("NUDGE_MQTT_BROKER", ""),
		MQTTPort:        getenvInt("NUDGE_MQTT_PORT", 1883),
		MQTTClientId:    getenv("NUDGE_MQTT_CLIENT_ID", "nudged"),
		CatalogTopic:    getenv("NUDGE_CATALOG_TOPIC", "nudge/catalog:1"),
		ExposureTopic:   getenv("NUDGE_EXPOSURE_TOPIC", "nudge/exposure"),
		StoreKind:       getenv("NUDGE_STORE", "json"),
		StorePath:       getenv("NUDGE_STORE_PATH", "metadata.json"),
		Interpreter:     getenv("NUDGE_INTERPRETER", "goja"),
		LibDir:          getenv("NUDGE_LIB_DIR", ""),
		Websockets:      getenvBool("NUDGE_WEBSOCKETS", true),
	}
}

func getenv(key, def string) string {
	if v, have := os.LookupEnv(key); have {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}
