// cleanup-test-data removes test-like restaurants and their evaluations.
//
// Test patterns matched against restaurant names (case-insensitive):
// - ^test (starts with "test")
// - test$ (ends with "test")
// - ^debug (debug prefix)
// - ^dummy (dummy prefix)
// - ^sample (sample prefix)
// - ^example (example prefix)
// - \d{4}$ (ends with 4 digits, e.g., "Resto2026")
//
// Usage: go run ./scripts/cleanup-test-data [-config config.yaml] [-dry-run=false]
//
// Database connection: same configuration as the main binary (config.yaml and PG* variables)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/config"
	"github.com/hearc-ig/guideresto/pkg/database"
	"github.com/hearc-ig/guideresto/pkg/logging"
	"github.com/hearc-ig/guideresto/pkg/mappers"
	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

var testNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^test`),
	regexp.MustCompile(`(?i)test$`),
	regexp.MustCompile(`(?i)^debug`),
	regexp.MustCompile(`(?i)^dummy`),
	regexp.MustCompile(`(?i)^sample`),
	regexp.MustCompile(`(?i)^example`),
	regexp.MustCompile(`\d{4}$`),
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML configuration file")
	dryRun := flag.Bool("dry-run", true, "Show what would be deleted without actually deleting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionURL())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %s\n", logging.SanitizeError(err))
		os.Exit(1)
	}
	defer conn.Close(ctx)

	ctx = database.SetSession(ctx, database.NewSession(conn, nil))
	set := mappers.NewSet(sequence.NewPostgresSource(), true, zap.NewNop())

	if *dryRun {
		fmt.Println("DRY RUN - no changes will be made")
		fmt.Println("Run with -dry-run=false to actually delete restaurants")
		fmt.Println()
	}

	restaurants, err := set.Restaurants.FindAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list restaurants: %s\n", logging.SanitizeError(err))
		os.Exit(1)
	}

	total := 0
	for _, r := range restaurants {
		pattern := matchingPattern(r.Name)
		if pattern == "" {
			continue
		}
		total++

		fmt.Printf("  [%s] %q - %s (%s)\n", pattern, r.Name,
			logging.TruncateString(r.Description, 60), r.Address.City.Name)
		if *dryRun {
			continue
		}
		if err := removeRestaurant(ctx, set, r); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting restaurant %d: %s\n", r.ID, logging.SanitizeError(err))
			os.Exit(1)
		}
	}

	if *dryRun {
		fmt.Printf("\nTotal restaurants that would be deleted: %d\n", total)
	} else {
		fmt.Printf("\nTotal restaurants deleted: %d\n", total)
	}
}

func matchingPattern(name string) string {
	for _, p := range testNamePatterns {
		if p.MatchString(name) {
			return p.String()
		}
	}
	return ""
}

// removeRestaurant deletes the evaluations of r, then r, in one transaction.
// Restaurant deletes do not cascade on their own.
func removeRestaurant(ctx context.Context, set *mappers.Set, r *models.Restaurant) error {
	return database.InTx(ctx, func(ctx context.Context) error {
		comments, err := set.CompleteEvaluations.FindByRestaurant(ctx, r)
		if err != nil {
			return err
		}
		for _, c := range comments {
			if err := set.CompleteEvaluations.Delete(ctx, c); err != nil {
				return err
			}
		}

		likes, err := set.BasicEvaluations.FindByRestaurant(ctx, r)
		if err != nil {
			return err
		}
		for _, l := range likes {
			if err := set.BasicEvaluations.Delete(ctx, l); err != nil {
				return err
			}
		}

		if err := set.Restaurants.Delete(ctx, r); err != nil {
			return err
		}
		fmt.Printf("Deleted %q with %d comments and %d likes\n", r.Name, len(comments), len(likes))
		return nil
	})
}
