// config/config.go
package config

import (
	"time"

	"github.com/spf13/viper"
)

// --- Sub-structs mirroring the YAML layout ---

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// BackendConfig points at the marketplace REST backend.
type BackendConfig struct {
	BaseURL string        `mapstructure:"baseURL"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

// SessionConfig controls how form sessions are persisted. Driver is "redis" or "memory".
type SessionConfig struct {
	Driver    string        `mapstructure:"driver"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"keyPrefix"`
}

// AdminConfig seeds the admin credential record on first start.
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	AccessToken  string `mapstructure:"accessToken"`
	RefreshToken string `mapstructure:"refreshToken"`
}

// UploadConfig bounds photos after compression (MaxDimension, MaxBytes),
// photo dimensions before decoding (MaxPixels) and any incoming file before it is read (MaxFileBytes).
type UploadConfig struct {
	MaxDimension int   `mapstructure:"maxDimension"`
	MaxBytes     int   `mapstructure:"maxBytes"`
	MaxFileBytes int64 `mapstructure:"maxFileBytes"`
	MaxPixels    int   `mapstructure:"maxPixels"`
}

// S3Config is only needed when CleanupReplaced is on.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	CleanupReplaced bool   `mapstructure:"cleanupReplaced"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Backend BackendConfig `mapstructure:"backend"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Session SessionConfig `mapstructure:"session"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Upload  UploadConfig  `mapstructure:"upload"`
	S3      S3Config      `mapstructure:"s3"`
}

// LoadConfig reads config.yaml from path and overlays environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowOrigins", []string{"http://localhost:3000"})
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("mongo.dbName", "rental_admin")
	v.SetDefault("session.driver", "redis")
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.keyPrefix", "formsession")
	v.SetDefault("upload.maxDimension", 1024)
	v.SetDefault("upload.maxBytes", 512*1024)
	v.SetDefault("upload.maxFileBytes", 20<<20)
	v.SetDefault("upload.maxPixels", 40_000_000)

	v.AutomaticEnv()

	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("log.development", "LOG_DEVELOPMENT")
	v.BindEnv("backend.baseURL", "BACKEND_BASE_URL")
	v.BindEnv("backend.timeout", "BACKEND_TIMEOUT")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.dbName", "MONGO_DBNAME")
	v.BindEnv("session.driver", "SESSION_DRIVER")
	v.BindEnv("session.ttl", "SESSION_TTL")
	v.BindEnv("admin.username", "ADMIN_USERNAME")
	v.BindEnv("admin.accessToken", "ADMIN_ACCESS_TOKEN")
	v.BindEnv("admin.refreshToken", "ADMIN_REFRESH_TOKEN")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.cleanupReplaced", "S3_CLEANUP_REPLACED")

	// A missing config.yaml is fine, env vars and defaults still apply.
	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}
