package connection

import (
	"fmt"
	"log"
	"os"
	"time"

	"yangbot/notification"

	"github.com/joho/godotenv"
)

type Config struct {
	LineChannelAccessToken string
	LineChannelSecret      string
	GCPProjectID           string
	FirestoreDatabase      string
	NotifyLookahead        time.Duration
	Port                   string
}

// LoadConfig reads configuration from the environment, loading a local .env
// file first when one exists.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found or failed to load")
	}

	cfg := Config{
		LineChannelAccessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		LineChannelSecret:      os.Getenv("LINE_CHANNEL_SECRET"),
		GCPProjectID:           os.Getenv("GCP_PROJECT_ID"),
		FirestoreDatabase:      os.Getenv("FIRESTORE_DATABASE"),
		NotifyLookahead:        notification.DefaultLookahead,
		Port:                   os.Getenv("PORT"),
	}

	if cfg.LineChannelAccessToken == "" || cfg.LineChannelSecret == "" {
		return cfg, fmt.Errorf("LINE channel credentials not configured")
	}
	if cfg.GCPProjectID == "" {
		return cfg, fmt.Errorf("GCP_PROJECT_ID not configured")
	}
	if cfg.FirestoreDatabase == "" {
		cfg.FirestoreDatabase = "yang-line-bot-database"
	}
	if raw := os.Getenv("NOTIFY_LOOKAHEAD"); raw != "" {
		lookahead, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid NOTIFY_LOOKAHEAD %q: %v", raw, err)
		}
		cfg.NotifyLookahead = lookahead
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	return cfg, nil
}
