package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/domain/keyelement"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate-keyelements",
		Short: "Promote USCDI-only elements to QI-Core key elements in the authored profiles",
		Long: "Scans the generated StructureDefinitions for snapshot elements that carry only the\n" +
			"uscdi-requirement extension and are not mustSupport, rewrites them as qicore-keyelement\n" +
			"elements and merges them by id into the differentials of the matching authored profiles.",
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}
	cmd.Flags().String("source", "", "Directory holding generated StructureDefinition JSON files (default output)")
	cmd.Flags().String("profiles", "", "Directory holding the authored profile JSON files (default input/profiles)")
	cmd.Flags().Bool("dry-run", false, "Print unified diffs instead of writing files")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files := keyelement.NewFileProfileRepository(cfg.ProfilesDir)
	var profiles keyelement.ProfileRepository = files
	if cfg.DryRun {
		profiles = &keyelement.DryRun{Profiles: files, Out: out}
	}

	logger.Info().
		Str("source", cfg.SourceDir).
		Str("profiles", cfg.ProfilesDir).
		Bool("dry_run", cfg.DryRun).
		Msg("starting key element migration")

	report, err := keyelement.NewService(profiles, logger).Run(ctx, cfg.SourceDir)
	if err != nil {
		logger.Error().Err(err).Msg("key element migration failed")
		return err
	}

	fmt.Fprintf(out, "Scanned %d profile(s): %d with promoted elements, %d updated, %d unchanged, %d failed.\n",
		report.Profiles, len(report.Promoted), len(report.Updated), len(report.Unchanged), len(report.Failed))
	if len(report.Unmatched) > 0 {
		fmt.Fprintln(out, "No authored profile found for:")
		for _, key := range report.Unmatched {
			fmt.Fprintf(out, "  %s\n", key)
		}
	}
	return nil
}
