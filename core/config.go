package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string // shared with the data service; signs learner tokens
		FrontendBaseURL  string
		DefaultFromEmail string
		RollbarToken     string
		SendgridApiKey   string

		Server   ServerConfig
		Database DatabaseConfig
		Learning LearningConfig
	}

	ServerConfig struct {
		Address         string
		DebugAddress    string
		ShutdownTimeout time.Duration
		JWTAudience     string
		DisableReqLogs  bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | inmem
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	LearningConfig struct {
		// PassingScore is the default percentage needed to pass an assessment.
		PassingScore int
		// LazyVisibility waits for the client to report the end of a lesson as visible
		// before marking it complete. When off, opening a lesson completes it.
		LazyVisibility bool
		// GateTTL is how long an opened lesson waits for its end marker to be reported.
		GateTTL time.Duration
		// MaxGates caps the lessons waiting for a report; the oldest are dropped first.
		MaxGates int
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

// DefaultFrom parses DefaultFromEmail; falls back to a bare address.
func (conf *Config) DefaultFrom() mail.Address {
	addr, err := mail.ParseAddress(conf.DefaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: conf.DefaultFromEmail}
	}
	return *addr
}

func newViper() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Speakwell")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "k2y7-wq#x!bm0v&3s^e9l)f@8rn$+t4=hzc1(u6)dj*pgo5a")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Speakwell <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtAudience", "authenticated")
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "speakwell")
	v.SetDefault("database.user", "speakwell")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("learning.passingScore", 70)
	v.SetDefault("learning.lazyVisibility", true)
	v.SetDefault("learning.gateTTL", 2*time.Hour)
	v.SetDefault("learning.maxGates", 10000)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.Set("env", env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if wd, err := os.Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()
	return v
}

// NewConfig loads the app configuration from defaults, the optional .env file and the environment.
func NewConfig() *Config {
	v := newViper()
	return &Config{
		AppName:          v.GetString("appName"),
		Env:              v.GetString("env"),
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugAddress:    v.GetString("server.debugAddress"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			JWTAudience:     v.GetString("server.jwtAudience"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Learning: LearningConfig{
			PassingScore:   v.GetInt("learning.passingScore"),
			LazyVisibility: v.GetBool("learning.lazyVisibility"),
			GateTTL:        v.GetDuration("learning.gateTTL"),
			MaxGates:       v.GetInt("learning.maxGates"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests, independent of the environment.
func NewTestConfig() *Config {
	return &Config{
		AppName:          "Speakwell",
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "Speakwell <noreply@localhost>",
		Server: ServerConfig{
			Address:         ":0",
			ShutdownTimeout: time.Second,
			JWTAudience:     "authenticated",
			DisableReqLogs:  true,
		},
		Database: DatabaseConfig{Engine: "inmem"},
		Learning: LearningConfig{
			PassingScore:   70,
			LazyVisibility: true,
			GateTTL:        time.Hour,
			MaxGates:       1000,
		},
	}
}
