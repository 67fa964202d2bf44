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
	_ = godotenv.Load()

	catalogURL := flag.String("url", "", "creator page, favorites folder, series, or playlist URL")
	model := flag.String("model", "", "whisper model tier (tiny/base/small/medium/large)")
	limit := flag.Int("limit", 0, "process only the latest N videos (0 = all)")
	langMode := flag.String("lang", "auto", "transcript language preference: auto, zh, or en")
	maxWorkers := flag.Int("max-workers", 0, "concurrent jobs, 1-8 (default from config)")
	noConcurrent := flag.Bool("no-concurrent", false, "process videos one at a time")
	writeText := flag.Bool("txt", false, "also write plain-text transcripts")
	outputDir := flag.String("output-dir", "", "transcript root directory (default from config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *catalogURL == "" && flag.NArg() > 0 {
		*catalogURL = flag.Arg(0)
	}
	if *catalogURL == "" {
		fmt.Println("Usage: creator-export -url <catalog-url> [-limit N] [-max-workers N] [-no-concurrent]")
		fmt.Println("\nExample:")
		fmt.Println("  creator-export -url https://space.bilibili.com/123456 -limit 20")
		fmt.Println("  creator-export -url https://www.youtube.com/@somechannel/videos -max-workers 4")
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
	if *maxWorkers == 0 {
		*maxWorkers = cfg.MaxWorkers
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

	urls, title, err := catalog.Resolve(ctx, *catalogURL, *limit)
	if err != nil {
		log.Errorf("resolving catalog: %v", err)
		os.Exit(1)
	}
	log.Infof("catalog %q resolved to %d video(s)", title, len(urls))

	jobs := service.NewJobs(urls, *model, *langMode, *writeText)
	summary, err := service.RunBatch(ctx, jobs, runner, log, service.BatchOptions{
		MaxWorkers: *maxWorkers,
		Sequential: *noConcurrent,
	})
	if err != nil {
		log.Errorf("batch aborted: %v", err)
		os.Exit(1)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
