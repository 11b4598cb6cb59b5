package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MongoConfig holds MongoDB settings used when METADATA_DRIVER=mongo.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MediaConfig holds the content store and ingestion settings.
type MediaConfig struct {
	// UploadRoot is the directory holding the images/ and videos/ partitions.
	UploadRoot      string
	FetchTimeoutSec int
	MaxUploadBytes  int
	StreamChunkSize int
	StreamDepth     int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Env            string
	Port           string
	LogLevel       string
	LogTimezone    string
	MetadataDriver string
	StorageDriver  string
	Database       DatabaseConfig
	Mongo          MongoConfig
	MinIO          MinIOConfig
	Media          MediaConfig
}

// Development reports whether the service runs with APP_ENV=development.
func (c *AppConfig) Development() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Env:            getEnv("APP_ENV", "production"),
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogTimezone:    getEnv("LOG_TIMEZONE", "UTC"),
		MetadataDriver: getEnv("METADATA_DRIVER", "postgres"),
		StorageDriver:  getEnv("STORAGE_DRIVER", "local"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", ""),
			Database:   getEnv("MONGO_DATABASE", ""),
			Collection: getEnv("MONGO_COLLECTION", "media"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Media: MediaConfig{
			UploadRoot:      getEnv("MEDIA_UPLOAD_ROOT", "upload"),
			FetchTimeoutSec: getEnvInt("MEDIA_FETCH_TIMEOUT_SEC", 10),
			MaxUploadBytes:  getEnvInt("MEDIA_MAX_UPLOAD_BYTES", 512<<20),
			StreamChunkSize: getEnvInt("MEDIA_STREAM_CHUNK_BYTES", 32<<10),
			StreamDepth:     getEnvInt("MEDIA_STREAM_DEPTH", 4),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
