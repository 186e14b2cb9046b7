package intro

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/fhir"
)

// CreatePolicy decides what happens to profiles whose target is missing.
type CreatePolicy string

const (
	CreatePrompt CreatePolicy = "prompt"
	CreateAlways CreatePolicy = "always"
	CreateNever  CreatePolicy = "never"
)

// ParseCreatePolicy parses "prompt", "always" or "never".
func ParseCreatePolicy(s string) (CreatePolicy, error) {
	switch p := CreatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case CreatePrompt, CreateAlways, CreateNever:
		return p, nil
	default:
		return "", fmt.Errorf("unknown create policy %q", s)
	}
}

// RunReport summarizes one batch run.
type RunReport struct {
	Profiles      int
	Generated     int
	Empty         []string
	ParseFailures []string
	Injected      []string
	Unchanged     []string
	Failed        []string
	Missing       []string
	Created       []string
	IndexEntries  int
	IndexWritten  bool
}

// generated is one profile's output, kept only for the duration of a run.
type generated struct {
	id       string
	target   string
	fragment Fragment
}

type Service struct {
	family  Family
	targets TargetRepository
	index   IndexWriter
	confirm Confirmer
	create  CreatePolicy
	logger  zerolog.Logger
}

// NewService wires a batch service for one profile family. confirm may be
// nil unless policy is CreatePrompt.
func NewService(family Family, targets TargetRepository, index IndexWriter, confirm Confirmer, policy CreatePolicy, logger zerolog.Logger) *Service {
	return &Service{
		family:  family,
		targets: targets,
		index:   index,
		confirm: confirm,
		create:  policy,
		logger:  logger.With().Str("component", "intro-generator").Str("family", family.Name).Logger(),
	}
}

// Run processes every StructureDefinition in sourceDir. Only discovery
// failures and cancellation are returned; everything else is logged and
// recorded in the report.
func (s *Service) Run(ctx context.Context, sourceDir string) (*RunReport, error) {
	paths, err := fhir.DiscoverStructureDefinitions(sourceDir)
	if err != nil {
		return nil, err
	}
	existing, err := s.targets.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &RunReport{}
	var outputs []generated
	var index []IndexEntry
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Profiles++
		g, entry, ok := s.processProfile(path, report)
		if !ok {
			continue
		}
		index = append(index, entry)
		if !g.fragment.IsEmpty() {
			outputs = append(outputs, g)
		}
	}

	s.writeIndex(ctx, index, report)

	var missing []generated
	for _, g := range outputs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !existing[g.target] {
			missing = append(missing, g)
			continue
		}
		s.injectTarget(ctx, g, report)
	}
	if len(missing) > 0 {
		if err := s.handleMissing(ctx, missing, report); err != nil {
			return report, err
		}
	}

	s.logger.Info().
		Int("profiles", report.Profiles).
		Int("generated", report.Generated).
		Int("injected", len(report.Injected)).
		Int("unchanged", len(report.Unchanged)).
		Int("failed", len(report.Failed)+len(report.ParseFailures)).
		Int("missing", len(report.Missing)).
		Int("created", len(report.Created)).
		Msg("run complete")
	return report, nil
}

// processProfile loads and renders one profile. ok is false when the
// document could not be read.
func (s *Service) processProfile(path string, report *RunReport) (generated, IndexEntry, bool) {
	log := s.logger.With().Str("file", filepath.Base(path)).Logger()

	sd, err := fhir.LoadStructureDefinition(path)
	if err != nil {
		log.Error().Err(err).Msg("skipping profile")
		report.ParseFailures = append(report.ParseFailures, filepath.Base(path))
		return generated{}, IndexEntry{}, false
	}
	log = log.With().Str("profile", sd.ID).Logger()

	if !sd.HasSnapshot() {
		log.Warn().Msg("profile has no snapshot elements")
	}
	result := Classify(sd, s.family.Rules)
	g := generated{
		id:       sd.ID,
		target:   s.family.TargetFileName(sd.ID),
		fragment: Render(result, s.family.Target),
	}
	entry := IndexEntry{
		Title:    sd.DisplayTitle(),
		PageFile: PageFileName(sd.ID),
		Fragment: Render(result, s.family.Index),
	}

	if g.fragment.IsEmpty() {
		log.Info().Str("target", g.target).Msg("no intro generated, no elements pass criteria")
		report.Empty = append(report.Empty, sd.ID)
	} else {
		log.Debug().Str("target", g.target).Msg("intro generated")
		report.Generated++
	}
	return g, entry, true
}

func (s *Service) writeIndex(ctx context.Context, entries []IndexEntry, report *RunReport) {
	for _, e := range entries {
		if !e.Fragment.IsEmpty() {
			report.IndexEntries++
		}
	}
	if err := s.index.WriteIndex(ctx, BuildIndex(entries, s.family.IndexHeader)); err != nil {
		s.logger.Error().Err(err).Msg("failed to write index page")
		return
	}
	report.IndexWritten = true
	s.logger.Info().Int("entries", report.IndexEntries).Msg("index page regenerated")
}

func (s *Service) injectTarget(ctx context.Context, g generated, report *RunReport) {
	log := s.logger.With().Str("profile", g.id).Str("target", g.target).Logger()

	doc, err := s.targets.Read(ctx, g.target)
	if err != nil {
		log.Error().Err(err).Msg("failed to read target")
		report.Failed = append(report.Failed, g.target)
		return
	}
	updated, err := InjectChecked(doc, g.fragment, s.family.InjectStyle)
	if err != nil {
		log.Error().Err(err).Msg("refusing to modify target")
		report.Failed = append(report.Failed, g.target)
		return
	}
	if updated == doc {
		log.Debug().Msg("target already up to date")
		report.Unchanged = append(report.Unchanged, g.target)
		return
	}
	if err := s.targets.Write(ctx, g.target, updated); err != nil {
		log.Error().Err(err).Msg("failed to write target")
		report.Failed = append(report.Failed, g.target)
		return
	}
	log.Info().Msg("injected intro")
	report.Injected = append(report.Injected, g.target)
}

// handleMissing reports missing targets and creates them when the policy
// (or the operator) allows it.
func (s *Service) handleMissing(ctx context.Context, missing []generated, report *RunReport) error {
	sort.Slice(missing, func(i, j int) bool { return missing[i].target < missing[j].target })
	names := make([]string, len(missing))
	for i, g := range missing {
		names[i] = g.target
	}
	report.Missing = names
	s.logger.Warn().Strs("targets", names).Msg("some intro files were missing")

	create := s.create == CreateAlways
	if s.create == CreatePrompt {
		if s.confirm == nil {
			return errors.New("create policy is prompt but no confirmer is configured")
		}
		ok, err := s.confirm.Confirm(ctx, names)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn().Err(err).Msg("not creating missing intro files")
			return nil
		}
		create = ok
	}
	if !create {
		return nil
	}

	for _, g := range missing {
		content := Inject("", g.fragment, s.family.InjectStyle)
		if err := s.targets.Create(ctx, g.target, content); err != nil {
			s.logger.Error().Err(err).Str("target", g.target).Msg("failed to create target")
			report.Failed = append(report.Failed, g.target)
			continue
		}
		s.logger.Info().Str("target", g.target).Msg("created intro file")
		report.Created = append(report.Created, g.target)
	}
	return nil
}
