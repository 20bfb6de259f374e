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
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Data backends
const (
	BackendMock     = "mock"
	BackendRemote   = "remote"
	BackendPostgres = "postgres"
)

type Config struct {
	AppName          string
	Env              string // DEV (local; default), TEST, QA, PROD
	Build            string
	Debug            bool
	TestMode         bool
	SecretKey        string
	FrontendBaseURL  string
	DefaultFromEmail string
	SendgridApiKey   string
	RollbarToken     string
	Backend          string // mock | remote | postgres

	Server struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
		AllowOrigins              []string
	}

	Database struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RecordService struct {
		BaseURL   string
		ProjectID string
		PublicKey string
		Timeout   time.Duration
	}

	Mock struct {
		MinLatency time.Duration
		MaxLatency time.Duration
	}
}

// DatabaseAddress returns the database "host:port".
func (c *Config) DatabaseAddress() string {
	return net.JoinHostPort(c.Database.Host, c.Database.Port)
}

// DefaultFromAddress parses DefaultFromEmail, falling back to a bare address.
func (c *Config) DefaultFromAddress() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("appName", "CourseHub")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "x9#k2!vq7@lm0&zr3$tp8^we5*ny1(hc4)bd6+fg")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "CourseHub <noreply@localhost>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("backend", BackendMock)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", "5s")
	v.SetDefault("server.jwtExpirationDelta", "168h")
	v.SetDefault("server.jwtRefreshExpirationDelta", "4h")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.allowOrigins", "*")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "coursehub")
	v.SetDefault("database.user", "coursehub")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("recordService.baseURL", "")
	v.SetDefault("recordService.projectID", "")
	v.SetDefault("recordService.publicKey", "")
	v.SetDefault("recordService.timeout", "15s")

	v.SetDefault("mock.minLatency", "200ms")
	v.SetDefault("mock.maxLatency", "400ms")
}

// NewConfig loads the app configuration from defaults, an optional `config/.env.<env>` file and the environment.
// Env vars are prefixed with the upper-cased env name, with "." replaced by "_": eg. `PROD_DATABASE_HOST`.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("mock.minLatency", "0s")
		v.SetDefault("mock.maxLatency", "0s")
	case "PROD":
		v.SetDefault("debug", false)
	}
	v.Set("env", env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()
	bindEnvs(v)

	conf := new(Config)
	err = v.Unmarshal(conf, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		log.Fatalf("config.Unmarshal(): %v", err)
	}
	return conf
}

// bindEnvs makes AutomaticEnv aware of nested keys; viper only resolves those on explicit Get otherwise.
func bindEnvs(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}
}
