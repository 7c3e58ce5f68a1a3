package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		DisableRequestLogs        bool
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
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

	ImportConfig struct {
		MaxUploadSize   string // echo BodyLimit format, eg. "8M"
		MaxMailedErrors int
	}

	Config struct {
		AppName                   string
		Env                       string // DEV (local; default), TEST, QA, PROD
		Build                     string
		Debug                     bool
		TestMode                  bool
		SecretKey                 string
		DefaultFromEmail          mail.Address
		FrontendBaseURL           string
		SendgridAPIKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Import   ImportConfig
	}
)

func (srv ServerConfig) Address() string {
	return net.JoinHostPort(srv.Host, srv.Port)
}

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

// NewConfig reads the configuration from the environment (prefixed by ENV) and an optional config/.env.<env> file.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "EduPace")
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("secretKey", "t8v$!-k2r0e7q@h3m9#x(pz5w1j+f4yb6c&ln)g_dua")
	conf.SetDefault("defaultFromEmail", "EduPace <noreply@localhost>")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("sendgridAPIKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	conf.SetDefault("serverHost", "")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("serverDebugHost", "0.0.0.0:4000")
	conf.SetDefault("serverDisableRequestLogs", false)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("serverReadTimeout", 5*time.Second)
	conf.SetDefault("serverWriteTimeout", 10*time.Second)
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)

	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseName", "edupace")
	conf.SetDefault("databaseUser", "edupace")
	conf.SetDefault("databasePassword", "edupace")
	conf.SetDefault("databaseAdminUser", "postgres")
	conf.SetDefault("databaseAdminPassword", "postgres")
	conf.SetDefault("databaseDisableTLS", true)

	conf.SetDefault("importMaxUploadSize", "8M")
	conf.SetDefault("importMaxMailedErrors", 20)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

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
	conf.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		AppName:                   conf.GetString("appName"),
		Env:                       env,
		Build:                     conf.GetString("build"),
		Debug:                     conf.GetBool("debug"),
		TestMode:                  conf.GetBool("testMode"),
		SecretKey:                 conf.GetString("secretKey"),
		DefaultFromEmail:          *fromEmail,
		FrontendBaseURL:           conf.GetString("frontendBaseURL"),
		SendgridAPIKey:            conf.GetString("sendgridAPIKey"),
		RollbarToken:              conf.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Port:                      strconv.Itoa(conf.GetInt("serverPort")),
			DebugHost:                 conf.GetString("serverDebugHost"),
			DisableRequestLogs:        conf.GetBool("serverDisableRequestLogs"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
			ReadTimeout:               conf.GetDuration("serverReadTimeout"),
			WriteTimeout:              conf.GetDuration("serverWriteTimeout"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("databaseEngine"),
			Host:          conf.GetString("databaseHost"),
			Port:          conf.GetString("databasePort"),
			Name:          conf.GetString("databaseName"),
			User:          conf.GetString("databaseUser"),
			Password:      conf.GetString("databasePassword"),
			AdminUser:     conf.GetString("databaseAdminUser"),
			AdminPassword: conf.GetString("databaseAdminPassword"),
			DisableTLS:    conf.GetBool("databaseDisableTLS"),
		},
		Import: ImportConfig{
			MaxUploadSize:   conf.GetString("importMaxUploadSize"),
			MaxMailedErrors: conf.GetInt("importMaxMailedErrors"),
		},
	}
}
