package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"cortex-sentinel/internal/audit"
	"cortex-sentinel/internal/classify"
	"cortex-sentinel/internal/config"
	"cortex-sentinel/internal/dashboard"
	"cortex-sentinel/internal/export"
	"cortex-sentinel/internal/feed"
	"cortex-sentinel/internal/generate"
	"cortex-sentinel/internal/ingest"
	"cortex-sentinel/internal/metrics"
	"cortex-sentinel/internal/notify"
	"cortex-sentinel/internal/session"
	"cortex-sentinel/internal/types"

	"github.com/joho/godotenv"
)

func main() {
	// Best effort: credentials may live in a local .env
	godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		runCommand(os.Args[2:])
	case "analyze":
		analyzeCommand(os.Args[2:])
	case "simulate":
		simulateCommand(os.Args[2:])
	case "export":
		exportCommand(os.Args[2:])
	case "verify":
		verifyCommand(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: cortex-sentinel <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  run       Start the console (dashboard, metrics, optional replay)")
	fmt.Println("  analyze   Classify one log line (stdin or -log)")
	fmt.Println("  simulate  Generate one synthetic attack log line")
	fmt.Println("  export    Export a saved session as CSV")
	fmt.Println("  verify    Verify the generator API credential")
}

func loadConfig(path string) *types.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[CONFIG] No config at %s, using defaults", path)
			return config.Default()
		}
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func buildClassifier(cfg *types.Config) classify.Classifier {
	if cfg.Classifier.Mode == "cloud" {
		return classify.NewCloudEngine(cfg.Classifier.CloudURL, cfg.Classifier.CloudModel, os.Getenv(cfg.Classifier.CloudKeyEnv))
	}
	return classify.NewLocalEngine(classify.NewEmbedClient(cfg.Classifier.EmbedURL, cfg.Classifier.EmbedModel))
}

func buildGenerator(cfg *types.Config) generate.Generator {
	key := os.Getenv(cfg.Generator.APIKeyEnv)
	if key == "" {
		return generate.NewProceduralGenerator()
	}
	return generate.NewLLMGenerator(cfg.Generator.APIURL, cfg.Generator.Model, key)
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)

	fmt.Printf("Starting CORTEX Sentinel...\n")
	fmt.Printf("Classifier: %s\n", cfg.Classifier.Mode)

	auditLogger := audit.NewLogger(cfg.Output.AuditLogPath)
	classifier := buildClassifier(cfg)
	generator := buildGenerator(cfg)
	activeFeed := feed.New()
	notifier := notify.NewNotifier(cfg.Notification.Webhook, cfg.Notification.Allowlist)

	sessionStore, err := session.NewStore(cfg.Session.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer sessionStore.Close()

	// The full classification flow for one line. Shared by the dashboard
	// and the replay tailer.
	submit := func(logText string) types.LogEntry {
		verdict := classifier.Classify(context.Background(), logText)

		metrics.ScansTotal.Inc()
		if verdict.IsAgenticThreat {
			metrics.ThreatsDetected.WithLabelValues(string(verdict.ThreatLevel)).Inc()
		}

		entry := activeFeed.Append(verdict)
		notifier.Notify(entry)

		if err := auditLogger.LogEntry(entry); err != nil {
			log.Printf("Failed to write to audit log: %v", err)
		}
		return entry
	}

	// Prometheus metrics server
	go func() {
		log.Printf("[METRICS] Starting on %s", cfg.Metrics.Port)
		if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
			log.Printf("[METRICS] Failed to start: %v", err)
		}
	}()

	// Dashboard
	if cfg.Dashboard.Enabled {
		server, err := dashboard.NewServer(activeFeed, sessionStore, generator, cfg, submit)
		if err != nil {
			log.Fatalf("Failed to initialize dashboard: %v", err)
		}
		go func() {
			if err := server.Start(); err != nil {
				log.Printf("[DASHBOARD] Failed to start: %v", err)
			}
		}()
	}

	// Optional replay: tail an external file through the classifier
	var tailer *ingest.FileTailer
	var replayChan <-chan ingest.LogLine
	if cfg.Ingest.ReplayPath != "" {
		tailer = ingest.NewFileTailer(cfg.Ingest.ReplayPath)
		ch, err := tailer.Start()
		if err != nil {
			log.Printf("Warning: Failed to start replay tailer: %v", err)
		} else {
			replayChan = ch
		}
	}

	var wg sync.WaitGroup
	if replayChan != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for line := range replayChan {
				entry := submit(line.Content)
				fmt.Printf("[%s] %s :: %s\n", entry.ThreatLevel, entry.Source, sanitize(line.Content))
			}
		}()
	}

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			log.Println("[CONFIG] SIGHUP received, reloading configuration...")
			newCfg, err := config.LoadConfig(*configPath)
			if err != nil {
				log.Printf("[ERROR] Failed to reload config: %v", err)
				continue
			}
			notifier.UpdateConfig(newCfg.Notification.Webhook, newCfg.Notification.Allowlist)
			metrics.ConfigReloads.Inc()

			// Classifier/generator endpoints and the replay path require a
			// restart; notification settings apply immediately.
			cfg = newCfg
			log.Println("[CONFIG] Reload successful")
		} else {
			fmt.Println("\nShutting down...")
			break
		}
	}

	if tailer != nil {
		tailer.Stop()
	}
	wg.Wait()
	fmt.Println("Shutdown complete.")
}

func analyzeCommand(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "Path to config file")
	logText := fs.String("log", "", "Log line to classify (defaults to stdin)")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	classifier := buildClassifier(cfg)

	text := *logText
	if text == "" {
		scanner := bufio.NewScanner(os.Stdin)
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		text = strings.Join(lines, "\n")
	}
	if strings.TrimSpace(text) == "" {
		fmt.Println("Error: no log text supplied")
		os.Exit(1)
	}

	verdict := classifier.Classify(context.Background(), text)

	fmt.Printf("Threat: %v | Level: %s | Confidence: %d%%\n", verdict.IsAgenticThreat, verdict.ThreatLevel, verdict.ConfidenceScore)
	fmt.Printf("Patterns: %s\n", strings.Join(verdict.DetectedPatterns, ", "))
	fmt.Printf("Explain: %s\n", sanitize(verdict.Explanation))
	fmt.Printf("Action: %s\n", sanitize(verdict.RecommendedAction))
}

func simulateCommand(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "Path to config file")
	vector := fs.String("vector", string(types.VectorReconnaissance), "Attack vector label")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	generator := buildGenerator(cfg)

	line, mode := generator.Generate(context.Background(), types.AttackVector(*vector))
	fmt.Printf("[%s] %s\n", mode, sanitize(line))
}

func exportCommand(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "Path to config file")
	sessionID := fs.String("session", "", "Session id to export")
	fs.Parse(args)

	if *sessionID == "" {
		fmt.Println("Error: -session required")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	store, err := session.NewStore(cfg.Session.DBPath)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer store.Close()

	logs, err := store.Load(*sessionID)
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}
	if err := export.Write(os.Stdout, logs); err != nil {
		log.Fatalf("Failed to export: %v", err)
	}
}

func verifyCommand(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	key := os.Getenv(cfg.Generator.APIKeyEnv)
	if key == "" {
		fmt.Printf("No credential in %s; generator will use procedural templates.\n", cfg.Generator.APIKeyEnv)
		return
	}

	gen := generate.NewLLMGenerator(cfg.Generator.APIURL, cfg.Generator.Model, key)
	err := gen.Verify(context.Background())
	switch {
	case err == nil:
		fmt.Println("Credential verified: provider reachable and key accepted.")
	case errors.Is(err, generate.ErrAuthRejected):
		fmt.Println("Credential rejected by provider.")
		os.Exit(1)
	default:
		fmt.Println("Provider unreachable (network error).")
		os.Exit(1)
	}
}

// sanitize strips control characters (except newline) to prevent terminal injection
func sanitize(s string) string {
	var builder strings.Builder
	for _, r := range s {
		if r >= 32 || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
