package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vidscribe/internal/adapters/bilibili"
	"vidscribe/internal/adapters/markdownstore"
	"vidscribe/internal/adapters/whisper"
	"vidscribe/internal/adapters/youtube"
	"vidscribe/internal/config"
	"vidscribe/internal/logging"
	"vidscribe/internal/service"
)

func main() {
	// Environment variables may also be set manually, a missing .env is fine.
	_ = godotenv.Load()

	videoRef := flag.String("url", "", "video URL or id (Bilibili BV id or YouTube id)")
	model := flag.String("model", "", "whisper model tier (tiny/base/small/medium/large)")
	langMode := flag.String("lang", "auto", "transcript language preference: auto, zh, or en")
	includeCollection := flag.Bool("include-collection", false, "process the whole collection the video belongs to")
	writeText := flag.Bool("txt", false, "also write a plain-text transcript next to the Markdown")
	outputDir := flag.String("output-dir", "", "transcript root directory (default from config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *videoRef == "" && flag.NArg() > 0 {
		*videoRef = flag.Arg(0)
	}
	if *videoRef == "" {
		fmt.Println("Usage: transcribe-cli -url <video-url> [-model small] [-lang auto|zh|en] [-include-collection] [-txt]")
		fmt.Println("\nExample:")
		fmt.Println("  transcribe-cli -url https://www.bilibili.com/video/BV1xx411c7mD")
		fmt.Println("  transcribe-cli -url https://www.youtube.com/watch?v=dQw4w9WgXcQ -lang en -txt")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.OutputRoot = *outputDir
	}
	if *model == "" {
		*model = cfg.Model
	}

	log := logging.NewStdout(*debug)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warnf("interrupt received, cancelling")
		cancel()
	}()

	biliClient := bilibili.NewClient()
	biliClient.LoadCookies(cfg.BilibiliCookieFile)
	ytClient := youtube.NewClient(cfg.YouTubeCookieFile)
	transcriber := whisper.NewTranscriber(cfg.WhisperBin)
	store := markdownstore.NewStore(cfg.OutputRoot)

	orc := service.NewOrchestrator(biliClient, ytClient, ytClient, ytClient, transcriber, store, log)
	runner := service.NewVideoRunner(orc)
	catalog := service.NewCatalog(biliClient, ytClient, log)

	urls := []string{*videoRef}
	if *includeCollection {
		expanded, err := catalog.ExpandVideoCollection(ctx, *videoRef, *videoRef)
		if err != nil {
			log.Errorf("expanding collection: %v", err)
			os.Exit(1)
		}
		urls = expanded
	}

	jobs := service.NewJobs(urls, *model, *langMode, *writeText)
	summary, err := service.RunBatch(ctx, jobs, runner, log, service.BatchOptions{
		MaxWorkers: cfg.MaxWorkers,
		Sequential: !*includeCollection,
	})
	if err != nil {
		log.Errorf("batch aborted: %v", err)
		os.Exit(1)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
