package main

import (
	"context"
	"log"
	"net/http"

	"github.com/interviewlab/interview-api/internal/adapters/completion"
	httpadapter "github.com/interviewlab/interview-api/internal/adapters/http"
	firestorestore "github.com/interviewlab/interview-api/internal/adapters/storage/firestore"
	memstore "github.com/interviewlab/interview-api/internal/adapters/storage/memory"
	sqlitestore "github.com/interviewlab/interview-api/internal/adapters/storage/sqlite"
	"github.com/interviewlab/interview-api/internal/app/interaction"
	"github.com/interviewlab/interview-api/internal/app/settings"
	"github.com/interviewlab/interview-api/internal/config"
	"github.com/interviewlab/interview-api/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Completion service backend.
	var (
		completionClient domain.CompletionClient
		err              error
	)
	switch cfg.CompletionBackend {
	case "gemini":
		log.Println("[COMPLETION] Using Gemini (Vertex AI) client")
		completionClient, err = completion.NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
	case "openai":
		log.Println("[COMPLETION] Using OpenAI client")
		completionClient, err = completion.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing OpenAI client: %v", err)
		}
	default:
		log.Println("[COMPLETION] Using MOCK completion client")
		completionClient = completion.NewMockClient()
	}

	// Storage backend: one store implements both the record and the
	// settings interfaces.
	var (
		recordStore   domain.RecordStore
		settingsStore domain.SettingsStore
	)
	switch cfg.StorageBackend {
	case "firestore":
		if cfg.GCPProjectID == "" {
			log.Fatal("INTERVIEW_GCP_PROJECT is required for the firestore storage backend")
		}
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		recordStore = fsStore
		settingsStore = fsStore

	case "sqlite":
		log.Printf("[STORE] Using SQLite storage (path=%s)", cfg.SQLitePath)
		sqlStore, err := sqlitestore.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		defer sqlStore.Close()
		recordStore = sqlStore
		settingsStore = sqlStore

	default:
		log.Println("[STORE] Using in-memory storage")
		recordStore = memstore.NewRecordStore()
		settingsStore = memstore.NewSettingsStore()
	}

	interactionSvc := interaction.NewService(completionClient, recordStore, settingsStore)
	settingsSvc := settings.NewService(settingsStore)

	handler := httpadapter.NewServer(interactionSvc, settingsSvc)

	addr := ":" + cfg.Port
	log.Println("Interview API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
