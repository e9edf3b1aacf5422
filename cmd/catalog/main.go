// Command catalog manages the disease catalog: schema migrations, seeding the
// reference diseases, and listing what is stored.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Skufu/symptomatch/internal/catalog"
	"github.com/Skufu/symptomatch/internal/config"
	"github.com/Skufu/symptomatch/internal/database"
	"github.com/Skufu/symptomatch/internal/disease"
	"github.com/Skufu/symptomatch/internal/observability"
)

const connectWait = 10 * time.Second

func main() {
	observability.InitLogger("symptomatch-catalog", os.Getenv("APP_ENV"))
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "catalog",
		Short:        "Manage the symptomatch disease catalog",
		SilenceUsage: true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE:  runMigrate,
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the reference diseases by name",
		Long: `Upserts the bundled reference diseases (or a YAML file given with --file)
into the diseases table. Existing rows keep their ids; every other column is
overwritten. The catalog snapshot cache is invalidated when REDIS_ADDR is set.`,
		RunE: runSeed,
	}
	seedCmd.Flags().String("file", "", "YAML file to seed instead of the bundled catalog")
	seedCmd.Flags().Bool("dry-run", false, "Validate and print the diseases without writing")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored diseases",
		RunE:  runList,
	}

	root.AddCommand(migrateCmd, seedCmd, listCmd)
	return root
}

func runMigrate(cmd *cobra.Command, args []string) error {
	url, err := config.RequireDatabaseURL()
	if err != nil {
		return err
	}
	return database.Migrate(url)
}

func runSeed(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	records, err := loadRecords(file)
	if err != nil {
		return err
	}

	if dryRun {
		printRecords(cmd, records)
		return nil
	}

	url, err := config.RequireDatabaseURL()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := database.Connect(ctx, url, connectWait)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := catalog.NewPostgres(pool).Upsert(ctx, records); err != nil {
		return err
	}
	log.Info().Int("diseases", len(records)).Msg("catalog seeded")

	invalidateCache(ctx)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	url, err := config.RequireDatabaseURL()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := database.Connect(ctx, url, connectWait)
	if err != nil {
		return err
	}
	defer pool.Close()

	records, err := catalog.NewPostgres(pool).FetchAll(ctx)
	if err != nil {
		return err
	}
	printRecords(cmd, records)
	return nil
}

func loadRecords(file string) ([]disease.Record, error) {
	if file == "" {
		return catalog.LoadSeed()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return catalog.ParseSeed(data)
}

// invalidateCache drops the snapshot so servers pick up the new catalog before
// the TTL expires. A failure only delays that.
func invalidateCache(ctx context.Context) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	defer client.Close()

	if err := catalog.NewRedisStore(client).Delete(ctx, catalog.SnapshotKey); err != nil {
		log.Warn().Err(err).Msg("catalog cache not invalidated")
	}
}

func printRecords(cmd *cobra.Command, records []disease.Record) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSEVERITY\tCATEGORY\tSYMPTOMS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.Name, r.Severity, r.Category, len(r.Symptoms))
	}
	w.Flush()
}
