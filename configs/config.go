package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	JWTSecret   string

	PushAPIURL      string
	PushAccessToken string
	CloudinaryURL   string
	RollbarToken    string

	TasksWorkers   int
	TasksQueueSize int
	TasksTimeout   time.Duration

	MissionsFallbackAllOnNoMatch bool
	MissionsGenerateSpec         string
	MissionsExpireSpec           string

	StudySweepSpec     string
	StudyMaxSessionAge time.Duration
	SlowQueryThreshold time.Duration
	RateLimitPerMinute int
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("ENV", "DEV")
	v.SetDefault("PORT", "8080")
	v.SetDefault("PUSH_API_URL", "https://exp.host/--/api/v2/push/send")
	v.SetDefault("PUSH_ACCESS_TOKEN", "")
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("ROLLBAR_TOKEN", "")
	v.SetDefault("TASKS_WORKERS", 4)
	v.SetDefault("TASKS_QUEUE_SIZE", 256)
	v.SetDefault("TASKS_TIMEOUT", 30*time.Second)
	v.SetDefault("MISSIONS_FALLBACK_ALL_ON_NO_MATCH", false)
	v.SetDefault("MISSIONS_GENERATE_SPEC", "5 0 * * *")
	v.SetDefault("MISSIONS_EXPIRE_SPEC", "*/15 * * * *")
	v.SetDefault("STUDY_SWEEP_SPEC", "*/10 * * * *")
	v.SetDefault("STUDY_MAX_SESSION_AGE", 6*time.Hour)
	v.SetDefault("SLOW_QUERY_THRESHOLD", 200*time.Millisecond)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)

	v.AutomaticEnv()
	return v
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Could not read .env file: %v", err)
		} else {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	}
	return fromViper(newViper())
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:                          v.GetString("ENV"),
		Port:                         v.GetString("PORT"),
		DatabaseURL:                  v.GetString("DATABASE_URL"),
		JWTSecret:                    v.GetString("JWT_SECRET"),
		PushAPIURL:                   v.GetString("PUSH_API_URL"),
		PushAccessToken:              v.GetString("PUSH_ACCESS_TOKEN"),
		CloudinaryURL:                v.GetString("CLOUDINARY_URL"),
		RollbarToken:                 v.GetString("ROLLBAR_TOKEN"),
		TasksWorkers:                 v.GetInt("TASKS_WORKERS"),
		TasksQueueSize:               v.GetInt("TASKS_QUEUE_SIZE"),
		TasksTimeout:                 v.GetDuration("TASKS_TIMEOUT"),
		MissionsFallbackAllOnNoMatch: v.GetBool("MISSIONS_FALLBACK_ALL_ON_NO_MATCH"),
		MissionsGenerateSpec:         v.GetString("MISSIONS_GENERATE_SPEC"),
		MissionsExpireSpec:           v.GetString("MISSIONS_EXPIRE_SPEC"),
		StudySweepSpec:               v.GetString("STUDY_SWEEP_SPEC"),
		StudyMaxSessionAge:           v.GetDuration("STUDY_MAX_SESSION_AGE"),
		SlowQueryThreshold:           v.GetDuration("SLOW_QUERY_THRESHOLD"),
		RateLimitPerMinute:           v.GetInt("RATE_LIMIT_PER_MINUTE"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.TasksWorkers < 1 {
		cfg.TasksWorkers = 1
	}
	if cfg.TasksQueueSize < 1 {
		cfg.TasksQueueSize = 1
	}
	return cfg, nil
}
