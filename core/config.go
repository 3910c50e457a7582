package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		SecretKey    string
		WorkDir      string
		RollbarToken string

		Server    ServerConfig
		Database  DatabaseConfig
		Email     EmailConfig
		Storage   StorageConfig
		Admission AdmissionConfig
		Logging   LoggingConfig
	}

	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		BodyLimit          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
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

	EmailConfig struct {
		Backend          string // console | sendgrid | smtp
		DefaultFromEmail string
		SchoolEmail      string
		SendTimeout      time.Duration
		SendgridApiKey   string
		SMTP             SMTPConfig
	}

	SMTPConfig struct {
		Host     string
		Port     int
		Username string
		Password string
	}

	StorageConfig struct {
		Backend  string // local | s3
		LocalDir string
		S3       S3Config
	}

	S3Config struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		Region    string
		UseSSL    bool
	}

	AdmissionConfig struct {
		MaxAttachmentsSize int64 // bytes
		BankName           string
		AccountNumber      string
		FeeAmount          string
		PaymentEmail       string
	}

	LoggingConfig struct {
		Level  string
		Format string // console | json
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// DefaultFromEmail parses Email.DefaultFromEmail and names it after the app.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.Email.DefaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.Email.DefaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// SchoolAddress is the mailbox that receives every form notification.
func (c *Config) SchoolAddress() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.Email.SchoolEmail}
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Francis Maria Libermann School")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "ae7a9ae4a4fdb2bc6900825654ecc035")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.bodyLimit", "30M")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 12*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "libermann")
	v.SetDefault("database.user", "libermann")
	v.SetDefault("database.password", "libermann")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("email.backend", "console")
	v.SetDefault("email.defaultFromEmail", "noreply@localhost")
	v.SetDefault("email.schoolEmail", "fmlibermann@gmail.com")
	v.SetDefault("email.sendTimeout", 20*time.Second)
	v.SetDefault("email.sendgridApiKey", "")
	v.SetDefault("email.smtp.host", "smtp.gmail.com")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.localDir", "uploads")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.accessKey", "")
	v.SetDefault("storage.s3.secretKey", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.useSSL", true)

	v.SetDefault("admission.maxAttachmentsSize", int64(25*1024*1024))
	v.SetDefault("admission.bankName", "NMB")
	v.SetDefault("admission.accountNumber", "444444444444")
	v.SetDefault("admission.feeAmount", "TZS 150,000 (Application Fee: TZS 50,000 + Admission Fee: TZS 100,000)")
	v.SetDefault("admission.paymentEmail", "fmlibermann@gmail.com")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// NewConfig loads the configuration from defaults, `config/.env.<env>`, `config/config.<env>.yaml`
// and the environment, in increasing order of priority.
// Environment variables are prefixed by the env name, eg: PROD_DATABASE_HOST.
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("debug", env == "DEV")
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	confPath := filepath.Join(wd, "config", "config."+strings.ToLower(env)+".yaml")
	if _, err := os.Stat(confPath); err == nil {
		v.SetConfigFile(confPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading %s", confPath)
		}
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		SecretKey:    v.GetString("secretKey"),
		WorkDir:      wd,
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			BodyLimit:          v.GetString("server.bodyLimit"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
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
		Email: EmailConfig{
			Backend:          v.GetString("email.backend"),
			DefaultFromEmail: v.GetString("email.defaultFromEmail"),
			SchoolEmail:      v.GetString("email.schoolEmail"),
			SendTimeout:      v.GetDuration("email.sendTimeout"),
			SendgridApiKey:   v.GetString("email.sendgridApiKey"),
			SMTP: SMTPConfig{
				Host:     v.GetString("email.smtp.host"),
				Port:     v.GetInt("email.smtp.port"),
				Username: v.GetString("email.smtp.username"),
				Password: v.GetString("email.smtp.password"),
			},
		},
		Storage: StorageConfig{
			Backend:  v.GetString("storage.backend"),
			LocalDir: v.GetString("storage.localDir"),
			S3: S3Config{
				Endpoint:  v.GetString("storage.s3.endpoint"),
				AccessKey: v.GetString("storage.s3.accessKey"),
				SecretKey: v.GetString("storage.s3.secretKey"),
				Bucket:    v.GetString("storage.s3.bucket"),
				Region:    v.GetString("storage.s3.region"),
				UseSSL:    v.GetBool("storage.s3.useSSL"),
			},
		},
		Admission: AdmissionConfig{
			MaxAttachmentsSize: v.GetInt64("admission.maxAttachmentsSize"),
			BankName:           v.GetString("admission.bankName"),
			AccountNumber:      v.GetString("admission.accountNumber"),
			FeeAmount:          v.GetString("admission.feeAmount"),
			PaymentEmail:       v.GetString("admission.paymentEmail"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}, nil
}
