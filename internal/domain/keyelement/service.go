package keyelement

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/fhir"
)

// Service promotes USCDI-only snapshot elements of generated profiles into
// the differentials of the authored profiles, so the next IG build marks
// them as key elements.
type Service struct {
	profiles ProfileRepository
	logger   zerolog.Logger
}

func NewService(profiles ProfileRepository, logger zerolog.Logger) *Service {
	return &Service{
		profiles: profiles,
		logger:   logger.With().Str("component", "keyelement-migration").Logger(),
	}
}

// profileKey matches generated and authored documents by lower-cased id,
// falling back to the file name when the id is missing.
func profileKey(id, name string) string {
	if id == "" {
		return strings.ToLower(name)
	}
	return strings.ToLower(id)
}

// Run scans the StructureDefinitions in sourceDir and rewrites the matching
// profile documents. Only discovery failures and cancellation are returned.
func (s *Service) Run(ctx context.Context, sourceDir string) (*Report, error) {
	paths, err := fhir.DiscoverStructureDefinitions(sourceDir)
	if err != nil {
		return nil, err
	}
	names, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Promoted: map[string][]string{}}
	promotions := map[string]*Promotion{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Profiles++
		file := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Error().Err(err).Str("file", file).Msg("failed to read profile")
			report.Failed = append(report.Failed, file)
			continue
		}
		p, err := Promote(data)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", file).Msg("skipping unparseable profile")
			report.Failed = append(report.Failed, file)
			continue
		}
		if len(p.Elements) == 0 {
			continue
		}
		key := profileKey(p.ProfileID, file)
		promotions[key] = p
		report.Promoted[key] = p.IDs()
		for _, c := range p.Elements {
			s.logger.Info().Str("profile", key).Str("element", c.ID).Str("short", c.Short).Msg("promoting element")
		}
	}

	matched := map[string]bool{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		data, err := s.profiles.Read(ctx, name)
		if err != nil {
			s.logger.Error().Err(err).Str("target", name).Msg("failed to read profile document")
			report.Failed = append(report.Failed, name)
			continue
		}
		id := ""
		if doc, err := decodeObject(data); err == nil {
			id = documentID(doc)
		}
		key := profileKey(id, name)
		p, ok := promotions[key]
		if !ok {
			continue
		}
		matched[key] = true

		out, err := Merge(data, p.Elements)
		if err != nil {
			s.logger.Error().Err(err).Str("target", name).Msg("failed to merge promoted elements")
			report.Failed = append(report.Failed, name)
			continue
		}
		if bytes.Equal(out, data) {
			report.Unchanged = append(report.Unchanged, name)
			continue
		}
		if err := s.profiles.Write(ctx, name, out); err != nil {
			s.logger.Error().Err(err).Str("target", name).Msg("failed to write profile document")
			report.Failed = append(report.Failed, name)
			continue
		}
		s.logger.Info().Str("target", name).Int("elements", len(p.Elements)).Msg("profile updated")
		report.Updated = append(report.Updated, name)
	}

	for key := range promotions {
		if !matched[key] {
			report.Unmatched = append(report.Unmatched, key)
		}
	}
	sort.Strings(report.Unmatched)
	if len(report.Unmatched) > 0 {
		s.logger.Warn().Strs("profiles", report.Unmatched).Msg("no profile document for promoted elements")
	}
	return report, nil
}
