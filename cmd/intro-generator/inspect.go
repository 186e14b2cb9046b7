package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/echicoine-icf/structure-definition-intro-generator/internal/domain/intro"
	"github.com/echicoine-icf/structure-definition-intro-generator/internal/platform/fhir"
)

type entryView struct {
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

type categoryView struct {
	Category string      `json:"category" yaml:"category"`
	Entries  []entryView `json:"entries" yaml:"entries"`
}

type resultView struct {
	Profile         string         `json:"profile" yaml:"profile"`
	Title           string         `json:"title" yaml:"title"`
	Family          string         `json:"family" yaml:"family"`
	PrimaryCodePath string         `json:"primaryCodePath,omitempty" yaml:"primaryCodePath,omitempty"`
	Categories      []categoryView `json:"categories" yaml:"categories"`
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Preview the classification and fragments of one StructureDefinition",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	cmd.Flags().String("style", "target", "What to print: target, index or result")
	cmd.Flags().String("format", "json", "Result format: json or yaml")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	family, err := buildFamily(cfg)
	if err != nil {
		return err
	}
	style, _ := cmd.Flags().GetString("style")
	format, _ := cmd.Flags().GetString("format")

	sd, err := fhir.LoadStructureDefinition(args[0])
	if err != nil {
		return err
	}
	result := intro.Classify(sd, family.Rules)
	out := cmd.OutOrStdout()

	switch strings.ToLower(style) {
	case "target":
		_, err = io.WriteString(out, intro.Render(result, family.Target).Text())
	case "index":
		entry := intro.IndexEntry{
			Title:    sd.DisplayTitle(),
			PageFile: intro.PageFileName(sd.ID),
			Fragment: intro.Render(result, family.Index),
		}
		_, err = io.WriteString(out, intro.BuildIndex([]intro.IndexEntry{entry}, ""))
	case "result":
		err = writeResult(out, newResultView(sd, family, result), format)
	default:
		return fmt.Errorf("unknown style %q (want target, index or result)", style)
	}
	return err
}

func newResultView(sd *fhir.StructureDefinitionResource, family intro.Family, result *intro.ClassificationResult) resultView {
	view := resultView{
		Profile:         sd.ID,
		Title:           sd.DisplayTitle(),
		Family:          family.Name,
		PrimaryCodePath: result.PrimaryCodePath,
		Categories:      []categoryView{},
	}
	for _, c := range []intro.Category{intro.CategoryMandatory, intro.CategoryKeyElement, intro.CategoryMustSupport} {
		entries := result.Entries(c)
		if len(entries) == 0 {
			continue
		}
		cv := categoryView{Category: c.String()}
		for _, e := range entries {
			cv.Entries = append(cv.Entries, entryView{Label: e.Label, Description: e.Description})
		}
		view.Categories = append(view.Categories, cv)
	}
	return view
}

func writeResult(w io.Writer, view resultView, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
