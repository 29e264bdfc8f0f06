package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	PostgresConnStr string
	RunMigrations   bool
	MongoURI        string
	MongoDatabase   string

	FirebaseCredentialsPath string
	AuthMode                string // "jwt" or "firebase"
	JWTSecret               string
	JWTTTL                  time.Duration

	KafkaBrokers      []string
	KafkaTopic        string
	KafkaGroupID      string
	KafkaWriteTimeout time.Duration

	WorkerConcurrency int
	DedupeWindow      time.Duration

	PageSizeDefault int
	PageSizeMax     int
}

// Load reads .env (if present), then the environment, then an optional
// config.yaml, with the defaults below underneath.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("MONGO_DATABASE", "socialgraph")
	v.SetDefault("AUTH_MODE", "jwt")
	v.SetDefault("JWT_TTL", "72h")
	v.SetDefault("KAFKA_TOPIC", "notification-events")
	v.SetDefault("KAFKA_GROUP_ID", "push-worker")
	v.SetDefault("KAFKA_WRITE_TIMEOUT", "5s")
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("DEDUPE_WINDOW", "1m")
	v.SetDefault("PAGE_SIZE_DEFAULT", 20)
	v.SetDefault("PAGE_SIZE_MAX", 50)

	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // optional

	return &Config{
		Port:                    v.GetString("PORT"),
		Env:                     v.GetString("ENV"),
		LogLevel:                v.GetString("LOG_LEVEL"),
		PostgresConnStr:         v.GetString("POSTGRES_CONN_STR"),
		RunMigrations:           v.GetBool("RUN_MIGRATIONS"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		AuthMode:                strings.ToLower(v.GetString("AUTH_MODE")),
		JWTSecret:               v.GetString("JWT_SECRET"),
		JWTTTL:                  parseDuration(v.GetString("JWT_TTL"), 72*time.Hour),
		KafkaBrokers:            splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:              v.GetString("KAFKA_TOPIC"),
		KafkaGroupID:            v.GetString("KAFKA_GROUP_ID"),
		KafkaWriteTimeout:       parseDuration(v.GetString("KAFKA_WRITE_TIMEOUT"), 5*time.Second),
		WorkerConcurrency:       v.GetInt("WORKER_CONCURRENCY"),
		DedupeWindow:            parseDuration(v.GetString("DEDUPE_WINDOW"), time.Minute),
		PageSizeDefault:         v.GetInt("PAGE_SIZE_DEFAULT"),
		PageSizeMax:             v.GetInt("PAGE_SIZE_MAX"),
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
