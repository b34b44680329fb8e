package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/anandaputra/uangku/internal/ai"
	"github.com/anandaputra/uangku/internal/balance"
	"github.com/anandaputra/uangku/internal/config"
	"github.com/anandaputra/uangku/internal/domain"
	"github.com/anandaputra/uangku/internal/export"
	"github.com/anandaputra/uangku/internal/ingest"
	"github.com/anandaputra/uangku/internal/logger"
	"github.com/anandaputra/uangku/internal/notionsync"
	"github.com/anandaputra/uangku/internal/session"
	"github.com/anandaputra/uangku/internal/store"
	bqstore "github.com/anandaputra/uangku/internal/store/bigquery"
	"github.com/anandaputra/uangku/internal/store/memory"
	pgstore "github.com/anandaputra/uangku/internal/store/postgres"
)

func main() {
	// .env is optional; real deployments configure via env or config file.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New()
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.Log.Level)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		runAdd(log, cfg)
	case "categorize":
		runCategorize(log, cfg)
	case "list":
		runList(log, cfg)
	case "update":
		runUpdate(log, cfg)
	case "delete":
		runDelete(log, cfg)
	case "balance":
		runBalance(log, cfg)
	case "set-balance":
		runSetBalance(log, cfg)
	case "export":
		runExport(log, cfg)
	case "sync-notion":
		runSyncNotion(log, cfg)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("UangKu")
	fmt.Println("\nUsage:")
	fmt.Println("  uangku <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  add          Record a transaction described in natural language")
	fmt.Println("  categorize   Suggest a category for a transaction description")
	fmt.Println("  list         Show all recorded transactions")
	fmt.Println("  update       Change fields of a recorded transaction")
	fmt.Println("  delete       Remove a recorded transaction")
	fmt.Println("  balance      Show the current balance")
	fmt.Println("  set-balance  Set the displayed balance to an exact amount")
	fmt.Println("  export       Export transactions as CSV")
	fmt.Println("  sync-notion  Mirror transactions into a Notion database")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'uangku <command> -h' for more information on a command.")
}

func newContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	return logger.WithContext(ctx, log), cancel
}

func openStore(ctx context.Context, log zerolog.Logger, cfg config.Config) store.Store {
	switch cfg.Store.Backend {
	case "memory":
		log.Warn().Msg("Using in-memory store, data will not survive the process")
		return memory.NewStore()
	case "bigquery":
		st, err := bqstore.NewStore(ctx, cfg.Store.BigQuery.ProjectID, cfg.Store.BigQuery.Dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open BigQuery store")
		}
		return st
	case "postgres":
		st, err := pgstore.NewStore(ctx, cfg.Store.Postgres.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open Postgres store")
		}
		return st
	default:
		log.Fatal().Str("backend", cfg.Store.Backend).Msg("Unknown store backend")
		return nil
	}
}

// openSession loads the server state into a fresh session.
func openSession(ctx context.Context, log zerolog.Logger, st store.Store) *session.Session {
	s := session.New(st, log)
	if err := s.Refresh(ctx); err != nil {
		fatalSessionError(log, err, "Failed to load transactions")
	}
	return s
}

// fatalSessionError logs the error, surfaces the user-facing message for
// failed session operations, and exits.
func fatalSessionError(log zerolog.Logger, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	var opErr *session.OpError
	if errors.As(err, &opErr) {
		fmt.Println(opErr.UserMessage())
	}
	os.Exit(1)
}

func runAdd(log zerolog.Logger, cfg config.Config) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))

	ctx, cancel := newContext(log)
	defer cancel()

	if cfg.AI.APIKey == "" {
		log.Fatal().Msg("Error: AI API key is required, set UANGKU_AI_APIKEY or GEMINI_API_KEY")
	}

	gateway, err := ai.NewGateway(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Retries)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize inference gateway")
	}

	st := openStore(ctx, log, cfg)
	s := openSession(ctx, log, st)
	svc := ingest.NewService(gateway, st, nil)

	tx, err := s.Submit(ctx, svc, text)
	if err != nil {
		log.Error().Err(err).Msg("Ingestion failed")
		fmt.Println(ingest.UserMessage(err))
		os.Exit(1)
	}

	fmt.Printf("Tercatat: %s %s Rp%d (%s)\n", tx.Type, tx.Description, tx.Amount, tx.Category)
}

func runCategorize(log zerolog.Logger, cfg config.Config) {
	fs := flag.NewFlagSet("categorize", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	description := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if description == "" {
		log.Fatal().Msg("Error: categorize takes a transaction description")
	}

	ctx, cancel := newContext(log)
	defer cancel()

	if cfg.AI.APIKey == "" {
		log.Fatal().Msg("Error: AI API key is required, set UANGKU_AI_APIKEY or GEMINI_API_KEY")
	}

	gateway, err := ai.NewGateway(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Retries)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize inference gateway")
	}

	result, err := gateway.Categorize(ctx, description, domain.Categories)
	if err != nil {
		log.Fatal().Err(err).Msg("Categorization failed")
	}

	fmt.Printf("%s (confidence %.2f)\n", result.Category, result.Confidence)
}

func runList(log zerolog.Logger, cfg config.Config) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx, cancel := newContext(log)
	defer cancel()

	s := openSession(ctx, log, openStore(ctx, log, cfg))
	txns := s.Transactions()

	if len(txns) == 0 {
		fmt.Println("Belum ada transaksi.")
		return
	}
	for _, tx := range txns {
		sign := "-"
		if tx.Type == domain.TypeIncome {
			sign = "+"
		}
		fmt.Printf("%s  %s  %sRp%d  %-15s %s\n",
			tx.ID, tx.Timestamp().Format("2006-01-02"), sign, tx.Amount, tx.Category, tx.Description)
	}
}

func runUpdate(log zerolog.Logger, cfg config.Config) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	description := fs.String("description", "", "New description")
	amount := fs.Int64("amount", 0, "New amount in whole Rupiah")
	txType := fs.String("type", "", "New type, income or expense")
	category := fs.String("category", "", "New category")
	fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		log.Fatal().Msg("Error: update takes exactly one transaction id argument")
	}
	id := fs.Arg(0)

	// Only flags the user actually passed go into the patch.
	var patch domain.TransactionPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "description":
			patch.Description = description
		case "amount":
			patch.Amount = amount
		case "type":
			parsed, err := domain.ParseTransactionType(*txType)
			if err != nil {
				log.Fatal().Err(err).Msg("Error: invalid type")
			}
			patch.Type = &parsed
		case "category":
			patch.Category = category
		}
	})
	if patch.IsEmpty() {
		log.Fatal().Msg("Error: update needs at least one field flag")
	}

	ctx, cancel := newContext(log)
	defer cancel()

	s := openSession(ctx, log, openStore(ctx, log, cfg))
	if err := s.Update(ctx, id, patch); err != nil {
		fatalSessionError(log, err, "Update failed")
	}

	fmt.Printf("Transaksi %s diperbarui.\n", id)
}

func runDelete(log zerolog.Logger, cfg config.Config) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		log.Fatal().Msg("Error: delete takes exactly one transaction id argument")
	}
	id := fs.Arg(0)

	ctx, cancel := newContext(log)
	defer cancel()

	s := openSession(ctx, log, openStore(ctx, log, cfg))
	if err := s.Delete(ctx, id); err != nil {
		fatalSessionError(log, err, "Delete failed")
	}

	fmt.Printf("Transaksi %s dihapus.\n", id)
}

func runBalance(log zerolog.Logger, cfg config.Config) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx, cancel := newContext(log)
	defer cancel()

	st := openStore(ctx, log, cfg)
	s := openSession(ctx, log, st)
	txns := s.Transactions()

	base, err := st.BaseBalance(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read base balance")
	}

	income, expense := balance.Totals(txns)
	fmt.Printf("Saldo:       Rp%d\n", balance.Compute(&base, txns))
	fmt.Printf("Pemasukan:   Rp%d\n", income)
	fmt.Printf("Pengeluaran: Rp%d\n", expense)
}

func runSetBalance(log zerolog.Logger, cfg config.Config) {
	fs := flag.NewFlagSet("set-balance", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		log.Fatal().Msg("Error: set-balance takes exactly one amount argument")
	}
	desired, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		log.Fatal().Err(err).Str("amount", fs.Arg(0)).Msg("Error: invalid amount")
	}

	ctx, cancel := newContext(log)
	defer cancel()

	st := openStore(ctx, log, cfg)
	s := openSession(ctx, log, st)

	reconciler := &balance.Reconciler{Store: st}
	if _, err := reconciler.Rebase(ctx, desired, s.Transactions()); err != nil {
		log.Fatal().Err(err).Msg("Failed to set balance")
	}

	fmt.Printf("Saldo diatur ke Rp%d\n", desired)
}

func runExport(log zerolog.Logger, cfg config.Config) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", "", "Write CSV to this file instead of stdout")
	bucket := fs.String("bucket", cfg.Export.Bucket, "Upload CSV to this GCS bucket instead of writing locally")
	object := fs.String("object", "", "Object name for the GCS upload (default transactions-<date>.csv)")
	fs.Parse(os.Args[2:])

	ctx, cancel := newContext(log)
	defer cancel()

	st := openStore(ctx, log, cfg)
	txns, err := st.ListTransactions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	if *bucket != "" {
		name := *object
		if name == "" {
			name = fmt.Sprintf("transactions-%s.csv", time.Now().UTC().Format("2006-01-02"))
		}
		if err := export.UploadCSV(ctx, *bucket, name, txns); err != nil {
			log.Fatal().Err(err).Msg("Failed to upload CSV")
		}
		fmt.Printf("Uploaded gs://%s/%s\n", *bucket, name)
		return
	}

	w := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal().Err(err).Str("path", *output).Msg("Failed to create output file")
		}
		defer f.Close()
		w = f
	}
	if err := export.WriteCSV(w, txns); err != nil {
		log.Fatal().Err(err).Msg("Failed to write CSV")
	}
	if *output != "" {
		fmt.Printf("Wrote %s\n", *output)
	} else {
		fmt.Println()
	}
}

func runSyncNotion(log zerolog.Logger, cfg config.Config) {
	fs := flag.NewFlagSet("sync-notion", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Preview changes without writing to Notion")
	fs.Parse(os.Args[2:])

	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: Notion token is required, set UANGKU_NOTION_TOKEN")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: Notion database ID is required, set UANGKU_NOTION_DATABASEID")
	}

	ctx, cancel := newContext(log)
	defer cancel()

	st := openStore(ctx, log, cfg)
	notionClient := notionsync.NewNotionClient(cfg.Notion.Token)

	if err := notionsync.SyncTransactions(ctx, st, notionClient, cfg.Notion.DatabaseID, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
