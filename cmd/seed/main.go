// Command seed loads demo accounts, hospitals and an ambulance fleet.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lifelink/emergency-coordinator/internal/config"
	"github.com/lifelink/emergency-coordinator/internal/logging"
	"github.com/lifelink/emergency-coordinator/internal/seed"
	"github.com/lifelink/emergency-coordinator/internal/store"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reset       bool
	dryRun      bool
	ambulances  int
	databaseURL string
	randSeed    int64
)

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Load demo data into the emergency coordinator database",
	Long:          `Creates demo public, hospital and government accounts, donors, hospital records, a sample alert and request, and an ambulance fleet around Mangalore.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&reset, "reset", false, "Delete all existing records before seeding")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Seed an in-memory store and print the summary only")
	rootCmd.Flags().IntVar(&ambulances, "ambulances", 100, "Number of ambulances to create")
	rootCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")
	rootCmd.Flags().Int64Var(&randSeed, "rand-seed", 0, "Seed for generated coordinates and drivers (0 uses the clock)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, closeStore, target, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}

	pterm.DefaultBox.WithTitle("LifeLink seed").Println(
		fmt.Sprintf("Target:     %s\nReset:      %t\nAmbulances: %d", target, reset, ambulances),
	)

	spinner, _ := pterm.DefaultSpinner.Start("Seeding demo data...")
	summary, err := seed.Run(ctx, st, seed.Options{
		Reset:      reset,
		Ambulances: ambulances,
		Rand:       rand.New(rand.NewSource(randSeed)),
		Logger:     logger,
	})
	if err != nil {
		spinner.Fail("Seeding failed")
		if errors.Is(err, seed.ErrAlreadySeeded) {
			pterm.Warning.Println("Demo accounts already exist. Use --reset to start from a clean database.")
		}
		return err
	}
	spinner.Success("Seeding complete")

	printSummary(summary)
	return nil
}

func openStore(ctx context.Context, logger *zap.Logger) (store.Store, func(), string, error) {
	if dryRun {
		return store.NewMemory(), func() {}, "in-memory (dry run)", nil
	}

	url := databaseURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" || url == config.MemoryStoreURL {
		return nil, nil, "", fmt.Errorf("DATABASE_URL or --database-url is required unless --dry-run is set")
	}

	pg, closeFn, err := store.OpenPostgres(ctx, url, store.OpenOptions{Attempts: 3}, logger)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return pg, closeFn, "postgres", nil
}

func printSummary(s *seed.Summary) {
	heading := pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	pterm.Println()
	heading.Println("Records created")
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Kind", "Count"},
		{"Users", strconv.Itoa(s.Users)},
		{"Hospitals", strconv.Itoa(s.Hospitals)},
		{"Alerts", strconv.Itoa(s.Alerts)},
		{"Requests", strconv.Itoa(s.Requests)},
		{"Ambulances", strconv.Itoa(s.Ambulances)},
	}).Render()

	pterm.Println()
	heading.Println("Demo logins (password: " + seed.DemoPassword + ")")
	rows := pterm.TableData{{"Role", "Email", "Name"}}
	for _, a := range s.Accounts {
		rows = append(rows, []string{a.Role, a.Email, a.Name})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
