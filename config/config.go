package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application
type Config struct {
	BotToken string
	Storage  string
	DataDir  string
	DBPath   string
	AdminIDs map[int64]bool
}

// Load loads the configuration from environment variables. A .env file is
// read first if present; real environment variables take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, errors.New("BOT_TOKEN environment variable is required")
	}

	storage := os.Getenv("STORAGE")
	if storage == "" {
		storage = "file"
	}
	if storage != "file" && storage != "sqlite" {
		return nil, fmt.Errorf("unsupported STORAGE value %q (want file or sqlite)", storage)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data/quizbot"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/quizbot.db"
	}

	adminIDs, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}

	return &Config{
		BotToken: botToken,
		Storage:  storage,
		DataDir:  dataDir,
		DBPath:   dbPath,
		AdminIDs: adminIDs,
	}, nil
}

// parseAdminIDs parses a comma-separated list of Telegram user ids.
func parseAdminIDs(raw string) (map[int64]bool, error) {
	ids := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDS entry %q", part)
		}
		ids[id] = true
	}
	return ids, nil
}
