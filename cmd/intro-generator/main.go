package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/config"
	"github.com/echicoine-icf/structure-definition-intro-generator/internal/domain/intro"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "intro-generator",
		Short:        "Generate StructureDefinition intro notes and the element index page",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a .env style config file (default .env)")
	rootCmd.PersistentFlags().String("family", "", "Profile family: qicore or deqm")
	rootCmd.PersistentFlags().Bool("ms", false, "Treat optional elements without mustSupport as key elements")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(migrateCmd())
	return rootCmd
}

// loadConfig reads the config file and environment, then applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("family") {
		family, _ := flags.GetString("family")
		cfg.Family = strings.ToLower(strings.TrimSpace(family))
	}
	if ms, _ := flags.GetBool("ms"); ms {
		cfg.KeyElementRule = "cardinality"
	}
	for flag, dst := range map[string]*string{
		"source":   &cfg.SourceDir,
		"target":   &cfg.TargetDir,
		"index":    &cfg.IndexFile,
		"profiles": &cfg.ProfilesDir,
	} {
		if flags.Lookup(flag) != nil && flags.Changed(flag) {
			*dst, _ = flags.GetString(flag)
		}
	}
	if flags.Lookup("dry-run") != nil && flags.Changed("dry-run") {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Lookup("yes") != nil {
		if yes, _ := flags.GetBool("yes"); yes {
			cfg.CreateMissing = string(intro.CreateAlways)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildFamily resolves the configured family and applies rule and path
// overrides on top of its defaults. A key element rule is rejected for a
// family that renders no key element list.
func buildFamily(cfg *config.Config) (intro.Family, error) {
	family, err := intro.LookupFamily(cfg.Family)
	if err != nil {
		return intro.Family{}, err
	}
	if cfg.KeyElementRule != "" {
		rule, err := intro.ParseKeyRule(cfg.KeyElementRule)
		if err != nil {
			return intro.Family{}, err
		}
		if rule != intro.KeyRuleNone && !family.HasKeyElements() {
			return intro.Family{}, fmt.Errorf("family %q has no key element list; KEY_ELEMENT_RULE %q (or --ms) does not apply", family.Name, cfg.KeyElementRule)
		}
		family.Rules.KeyRule = rule
	}
	if cfg.ExtensionPolicy != "" {
		policy, err := intro.ParseExtensionPolicy(cfg.ExtensionPolicy)
		if err != nil {
			return intro.Family{}, err
		}
		family.Rules.ExtensionPolicy = policy
	}
	if cfg.TargetDir != "" {
		family.TargetDir = cfg.TargetDir
	}
	if cfg.IndexFile != "" {
		family.IndexFile = cfg.IndexFile
	}
	return family, nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	if lvl, err := cfg.Level(); err == nil {
		logger = logger.Level(lvl)
	}
	return logger.With().Str("run_id", uuid.NewString()).Logger()
}
