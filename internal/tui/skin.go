package tui

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Skin holds the terminal color palette. Colors are ANSI 256 codes or hex
// strings understood by lipgloss.
type Skin struct {
	Accent string `yaml:"accent"`
	Dim    string `yaml:"dim"`

	Severity struct {
		Info    string `yaml:"info"`
		Success string `yaml:"success"`
		Warning string `yaml:"warning"`
		Error   string `yaml:"error"`
	} `yaml:"severity"`

	Timeline struct {
		Normal string `yaml:"normal"`
		Refund string `yaml:"refund"`
		Danger string `yaml:"danger"`
	} `yaml:"timeline"`

	Steps struct {
		Done    string `yaml:"done"`
		Pending string `yaml:"pending"`
		Failed  string `yaml:"failed"`
	} `yaml:"steps"`
}

// DefaultSkin returns the built-in palette.
func DefaultSkin() Skin {
	var s Skin
	s.Accent = "39"
	s.Dim = "8"
	s.Severity.Info = "39"
	s.Severity.Success = "42"
	s.Severity.Warning = "208"
	s.Severity.Error = "196"
	s.Timeline.Normal = "42"
	s.Timeline.Refund = "208"
	s.Timeline.Danger = "196"
	s.Steps.Done = "42"
	s.Steps.Pending = "240"
	s.Steps.Failed = "196"
	return s
}

// LoadSkin reads a palette file, filling unset fields from the default skin.
// A missing file is not an error; it yields the default skin.
func LoadSkin(path string) (Skin, error) {
	skin := DefaultSkin()
	if path == "" {
		return skin, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return skin, nil
		}
		return skin, fmt.Errorf("read skin: %w", err)
	}
	if err := yaml.Unmarshal(data, &skin); err != nil {
		return DefaultSkin(), fmt.Errorf("parse skin: %w", err)
	}

	fillDefaults(&skin)
	return skin, nil
}

// fillDefaults replaces empty fields with the default palette values so a
// partial skin file stays renderable.
func fillDefaults(s *Skin) {
	def := DefaultSkin()
	fill := func(dst *string, fallback string) {
		if *dst == "" {
			*dst = fallback
		}
	}
	fill(&s.Accent, def.Accent)
	fill(&s.Dim, def.Dim)
	fill(&s.Severity.Info, def.Severity.Info)
	fill(&s.Severity.Success, def.Severity.Success)
	fill(&s.Severity.Warning, def.Severity.Warning)
	fill(&s.Severity.Error, def.Severity.Error)
	fill(&s.Timeline.Normal, def.Timeline.Normal)
	fill(&s.Timeline.Refund, def.Timeline.Refund)
	fill(&s.Timeline.Danger, def.Timeline.Danger)
	fill(&s.Steps.Done, def.Steps.Done)
	fill(&s.Steps.Pending, def.Steps.Pending)
	fill(&s.Steps.Failed, def.Steps.Failed)
}
