// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Forecast ForecastConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string // "postgres" or "memory"
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	DataDir   string
	ExportDir string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	ForecastTTLSeconds  int
	DashboardTTLSeconds int
}

// StorageConfig points at the S3-compatible bucket that import files are
// pulled from and forecast exports are pushed to.
type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	ImportPrefix string
	ExportPrefix string
}

type DriveConfig struct {
	CredentialsJSON string
	FolderPath      string
}

// ForecastConfig seeds the settings record and the engine's smoothing
// windows.
type ForecastConfig struct {
	Defaults     forecast.Settings
	Options      forecast.Options
	HorizonWeeks int
	Workers      int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_DATA_DIR"))
		ensureDir(viper.GetString("APP_EXPORT_DIR"))

		instance = fromViper()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "autoforecast")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("APP_DATA_DIR", "./data/import")
	viper.SetDefault("APP_EXPORT_DIR", "./data/export")
	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 900)
	viper.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", true)
	viper.SetDefault("STORAGE_IMPORT_PREFIX", "imports/")
	viper.SetDefault("STORAGE_EXPORT_PREFIX", "exports/")
	viper.SetDefault("DRIVE_FOLDER_PATH", "")

	viper.SetDefault("FORECAST_VELOCITY_ADJ_FACTOR", forecast.DefaultVelocityAdjFactor)
	viper.SetDefault("FORECAST_GROWTH_FACTOR", forecast.DefaultGrowthFactor)
	viper.SetDefault("FORECAST_LEAD_TIME_DAYS", forecast.DefaultLeadTimeDays)
	viper.SetDefault("FORECAST_SAFETY_STOCK_WEEKS", forecast.DefaultSafetyStockWeeks)
	viper.SetDefault("FORECAST_SMOOTHING_FACTOR", forecast.DefaultSmoothingFactor)
	viper.SetDefault("FORECAST_CYCLE_LENGTH", forecast.DefaultCycleLength)
	viper.SetDefault("FORECAST_LOOKBACK_CYCLES", 0)
	viper.SetDefault("FORECAST_OFFSET_WINDOW", forecast.DefaultOffsetWindow)
	viper.SetDefault("FORECAST_MAX_UNITS_WINDOW_WEEKS", forecast.DefaultMaxUnitsWindowWeeks)
	viper.SetDefault("FORECAST_WEIGHTED_AVG_WINDOW_WEEKS", forecast.DefaultWeightedAvgWindowWeeks)
	viper.SetDefault("FORECAST_TREND_WINDOW_WEEKS", forecast.DefaultTrendWindowWeeks)
	viper.SetDefault("FORECAST_HORIZON_WEEKS", 104)
	viper.SetDefault("FORECAST_WORKERS", 4)
}

func fromViper() *Config {
	opts := forecast.DefaultOptions()
	opts.CycleLength = viper.GetInt("FORECAST_CYCLE_LENGTH")
	opts.LookbackCycles = viper.GetInt("FORECAST_LOOKBACK_CYCLES")
	opts.OffsetWindow = viper.GetInt("FORECAST_OFFSET_WINDOW")
	opts.MaxUnitsWindowWeeks = viper.GetInt("FORECAST_MAX_UNITS_WINDOW_WEEKS")
	opts.WeightedAvgWindowWeeks = viper.GetInt("FORECAST_WEIGHTED_AVG_WINDOW_WEEKS")
	opts.TrendWindowWeeks = viper.GetInt("FORECAST_TREND_WINDOW_WEEKS")

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:   viper.GetString("DB_DRIVER"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			DataDir:   viper.GetString("APP_DATA_DIR"),
			ExportDir: viper.GetString("APP_EXPORT_DIR"),
		},
		Cache: CacheConfig{
			Enabled:             viper.GetBool("CACHE_ENABLED"),
			RedisURL:            viper.GetString("REDIS_URL"),
			RedisHost:           viper.GetString("REDIS_HOST"),
			RedisPort:           viper.GetString("REDIS_PORT"),
			RedisPassword:       viper.GetString("REDIS_PASSWORD"),
			RedisDB:             viper.GetInt("REDIS_DB"),
			ForecastTTLSeconds:  viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			DashboardTTLSeconds: viper.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:     viper.GetString("STORAGE_ENDPOINT"),
			AccessKey:    viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:    viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:       viper.GetString("STORAGE_BUCKET"),
			Region:       viper.GetString("STORAGE_REGION"),
			UseSSL:       viper.GetBool("STORAGE_USE_SSL"),
			ImportPrefix: viper.GetString("STORAGE_IMPORT_PREFIX"),
			ExportPrefix: viper.GetString("STORAGE_EXPORT_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsJSON: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderPath:      viper.GetString("DRIVE_FOLDER_PATH"),
		},
		Forecast: ForecastConfig{
			Defaults: forecast.Settings{
				VelocityAdjFactor: viper.GetFloat64("FORECAST_VELOCITY_ADJ_FACTOR"),
				GrowthFactor:      viper.GetFloat64("FORECAST_GROWTH_FACTOR"),
				LeadTimeDays:      viper.GetInt("FORECAST_LEAD_TIME_DAYS"),
				SafetyStockWeeks:  viper.GetInt("FORECAST_SAFETY_STOCK_WEEKS"),
				SmoothingFactor:   viper.GetFloat64("FORECAST_SMOOTHING_FACTOR"),
			},
			Options:      opts,
			HorizonWeeks: viper.GetInt("FORECAST_HORIZON_WEEKS"),
			Workers:      viper.GetInt("FORECAST_WORKERS"),
		},
	}
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
