package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string

		Server   ServerConfig
		Backend  BackendConfig
		Geocoder GeocoderConfig
		Dialog   DialogConfig
		Session  SessionConfig
	}

	ServerConfig struct {
		Address         string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	BackendConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	GeocoderConfig struct {
		BaseURL   string
		UserAgent string
		Timeout   time.Duration
	}

	DialogConfig struct {
		// CloseDelay lets the user perceive the success notification before the dialog closes.
		CloseDelay time.Duration
		// TTL bounds how long an abandoned dialog is kept by the API server.
		TTL time.Duration
	}

	SessionConfig struct {
		Path string
	}
)

// NewConfig loads the configuration from the environment.
func NewConfig() *Config {
	return LoadConfig(viper.New())
}

// LoadConfig loads the configuration into v, which may already carry bound CLI flags.
func LoadConfig(v *viper.Viper) *Config {
	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Evento")
	v.SetDefault("secretKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("serverDisableReqLogs", false)
	v.SetDefault("backendURL", "http://localhost:3000/api")
	v.SetDefault("backendTimeout", 15*time.Second)
	v.SetDefault("geocoderURL", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoderUserAgent", "evento-dashboard")
	v.SetDefault("geocoderTimeout", 10*time.Second)
	v.SetDefault("dialogCloseDelay", 1500*time.Millisecond)
	v.SetDefault("dialogTTL", 30*time.Minute)
	v.SetDefault("sessionPath", defaultSessionPath())

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:         v.GetString("serverAddress"),
			Host:            v.GetString("serverHost"),
			DebugHost:       v.GetString("serverDebugHost"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
			DisableReqLogs:  v.GetBool("serverDisableReqLogs"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(v.GetString("backendURL"), "/"),
			Timeout: v.GetDuration("backendTimeout"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   strings.TrimRight(v.GetString("geocoderURL"), "/"),
			UserAgent: v.GetString("geocoderUserAgent"),
			Timeout:   v.GetDuration("geocoderTimeout"),
		},
		Dialog: DialogConfig{
			CloseDelay: v.GetDuration("dialogCloseDelay"),
			TTL:        v.GetDuration("dialogTTL"),
		},
		Session: SessionConfig{
			Path: v.GetString("sessionPath"),
		},
	}
}

// configDir is where the .env.<env> files live: $EVENTO_CONFIG_DIR or ./config.
func configDir() string {
	if dir := os.Getenv("EVENTO_CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return filepath.Join(wd, "config")
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "evento", "session.json")
}
