package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/domain/intro"
	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/prompt"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Inject generated intros into every target and rebuild the index page",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	cmd.Flags().String("source", "", "Directory holding StructureDefinition JSON files (default output)")
	cmd.Flags().String("target", "", "Directory holding the intro documents (default per family)")
	cmd.Flags().String("index", "", "Path of the aggregate index page (default per family)")
	cmd.Flags().Bool("dry-run", false, "Print unified diffs instead of writing files")
	cmd.Flags().Bool("yes", false, "Create missing intro files without asking")
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	family, err := buildFamily(cfg)
	if err != nil {
		return err
	}
	policy, err := intro.ParseCreatePolicy(cfg.CreateMissing)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files := intro.NewFileTargetRepository(family.TargetDir, family.TargetExt)
	var targets intro.TargetRepository = files
	var index intro.IndexWriter = intro.FileIndexWriter{Path: family.IndexFile}
	if cfg.DryRun {
		dry := &intro.DryRun{Targets: files, IndexPath: family.IndexFile, Out: out}
		targets, index = dry, dry
		// Nothing is written, so show what creation would produce.
		if policy == intro.CreatePrompt {
			policy = intro.CreateAlways
		}
	}

	logger.Info().
		Str("family", family.Name).
		Str("source", cfg.SourceDir).
		Str("target", family.TargetDir).
		Str("index", family.IndexFile).
		Bool("dry_run", cfg.DryRun).
		Msg("starting intro generation")

	svc := intro.NewService(family, targets, index, prompt.NewConfirmer(), policy, logger)
	report, err := svc.Run(ctx, cfg.SourceDir)
	if err != nil {
		logger.Error().Err(err).Msg("intro generation failed")
		return err
	}

	fmt.Fprintf(out, "Processed %d profile(s): %d injected, %d unchanged, %d empty, %d failed.\n",
		report.Profiles, len(report.Injected), len(report.Unchanged), len(report.Empty),
		len(report.Failed)+len(report.ParseFailures))
	if len(report.Missing) > 0 && len(report.Created) == 0 {
		fmt.Fprintln(out, "The following intro files were missing:")
		for _, name := range report.Missing {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	verb := "Created"
	if cfg.DryRun {
		verb = "Would create"
	}
	for _, name := range report.Created {
		fmt.Fprintf(out, "%s %s\n", verb, name)
	}
	return nil
}
