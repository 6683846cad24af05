package main

import (
	"log"
	"os"

	"github.com/msmirnov/askanswerbot/bank"
	"github.com/msmirnov/askanswerbot/bot"
	"github.com/msmirnov/askanswerbot/config"
	"github.com/msmirnov/askanswerbot/quiz"
	"github.com/msmirnov/askanswerbot/storage"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting quiz bot...")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open the persistence backend
	backend, err := openBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer backend.Close()

	// Initialize the bank store and the quiz engine
	store, err := bank.NewStore(backend)
	if err != nil {
		log.Fatalf("Failed to initialize bank store: %v", err)
	}
	log.Printf("Active bank: %s", store.Active())

	engine, err := quiz.NewEngine(store)
	if err != nil {
		log.Fatalf("Failed to initialize quiz engine: %v", err)
	}

	// Initialize and start the bot
	b, err := bot.New(cfg, engine)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	log.Println("Bot initialized successfully")
	b.Start()
}

func openBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage {
	case "sqlite":
		return storage.NewSQLiteBackend(cfg.DBPath)
	default:
		return storage.NewFileBackend(cfg.DataDir)
	}
}
