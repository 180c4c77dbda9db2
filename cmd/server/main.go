package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/archive"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/config"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/diarizer"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/jobstore"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/llm"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/pipeline"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/preprocess"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/queue"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/server"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcriber"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "config.yaml", "Configuration file path")
	flag.Parse()

	cfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Job store and queue: Redis when an address is configured, otherwise
	// in-process (single-instance development runs).
	var store jobstore.Store
	var q queue.Queue
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		store = jobstore.NewRedisStore(client, jobstore.DefaultTTL)
		q = queue.NewRedisQueue(client)
		log.Printf("Using Redis at %s (db %d)", cfg.Redis.Addr, cfg.Redis.DB)
	} else {
		store = jobstore.NewMemoryStore(jobstore.DefaultTTL)
		q = queue.NewMemoryQueue(0)
		log.Printf("Redis not configured, using in-process store and queue")
	}

	pre := preprocess.NewFFmpegPreprocessor(cfg.Pipeline.SampleRate, cfg.Uploads.MaxAudioDurationSeconds)

	var diar diarizer.Diarizer
	switch cfg.Diarization.Mode {
	case "real":
		diar = diarizer.NewHTTPDiarizer(cfg.Diarization.URL,
			time.Duration(cfg.Diarization.TimeoutSeconds)*time.Second)
		log.Printf("Diarization: %s", cfg.Diarization.URL)
	default:
		diar = diarizer.NewStub()
		log.Printf("Diarization: stub")
	}

	var stt transcriber.ClipTranscriber
	switch cfg.Transcription.Mode {
	case "real":
		stt = transcriber.NewVoskTranscriber(cfg.Transcription.URL)
		log.Printf("Transcription: %s", cfg.Transcription.URL)
	default:
		stt = transcriber.NewStub()
		log.Printf("Transcription: stub")
	}

	var enhancer llm.Enhancer = llm.Disabled{}
	if cfg.Ollama.Enabled {
		enhancer = llm.NewOllamaClient(cfg.Ollama.Host, cfg.Ollama.Model)
		log.Printf("LLM analysis: %s (%s)", cfg.Ollama.Host, cfg.Ollama.Model)
	}

	var arch *archive.Archive
	if cfg.Archive.Enabled {
		arch, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			log.Fatalf("Failed to open archive: %v", err)
		}
		defer arch.Close()
		log.Printf("Archive: %s", cfg.Archive.Path)
	}

	controller := pipeline.NewController(store, pre, diar, stt, enhancer, arch, pipeline.Options{
		ClipPadding:       cfg.Pipeline.ClipPaddingSeconds,
		MergeGap:          cfg.Pipeline.MergeGapSeconds,
		DiarizeTimeout:    time.Duration(cfg.Diarization.TimeoutSeconds) * time.Second,
		TranscribeTimeout: time.Duration(cfg.Transcription.TimeoutSeconds) * time.Second,
	})

	pool := queue.NewPool(q, cfg.Pipeline.Workers, controller.Run)
	pool.Start()

	srv, err := server.New(server.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		UploadDir:        cfg.Uploads.Dir,
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		OllamaEnabled:    cfg.Ollama.Enabled,
		OllamaModel:      cfg.Ollama.Model,
	}, store, q, enhancer)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down server...")
	srv.Stop()
	pool.Stop()
}

// loadConfig falls back to defaults when the file does not exist, so a bare
// binary still runs with the stub collaborators.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Config file %s not found, using defaults", path)
		return config.Default(), nil
	}
	return config.Load(path)
}
