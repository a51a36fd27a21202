// Package persona implements the two-stage questionnaire that classifies a
// user into a style persona.
package persona

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is the coarse stage-1 bucket that selects the stage-2 question group.
type Type string

// Label names a persona, the final classification result.
type Label string

type Option struct {
	Text string   `yaml:"text" json:"text"`
	Tags []string `yaml:"tags" json:"tags"`
}

type Question struct {
	Text    string   `yaml:"text" json:"text"`
	Options []Option `yaml:"options" json:"options"`
}

type Profile struct {
	Label       Label  `yaml:"label" json:"label"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Type        Type   `yaml:"-" json:"type"`
}

type group struct {
	Type      Type       `yaml:"type"`
	Name      string     `yaml:"name"`
	Personas  []Profile  `yaml:"personas"`
	Questions []Question `yaml:"questions"`
}

type bankFile struct {
	Stage1 []Question `yaml:"stage1"`
	Types  []group    `yaml:"types"`
}

// Bank is immutable question and persona content.
type Bank struct {
	types    []Type
	names    map[Type]string
	stage1   []Question
	stage2   map[Type][]Question
	personas map[Type][]Profile
	profiles map[Label]Profile
}

//go:embed content/bank.yaml
var defaultBank []byte

// DefaultBank returns the bank shipped with the binary.
func DefaultBank() (*Bank, error) {
	return LoadBank(defaultBank)
}

func LoadBank(data []byte) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	b := &Bank{
		names:    make(map[Type]string, len(f.Types)),
		stage1:   f.Stage1,
		stage2:   make(map[Type][]Question, len(f.Types)),
		personas: make(map[Type][]Profile, len(f.Types)),
		profiles: make(map[Label]Profile),
	}
	for _, g := range f.Types {
		t := Type(strings.TrimSpace(string(g.Type)))
		if t == "" {
			return nil, fmt.Errorf("question bank: type without a name")
		}
		if _, dup := b.stage2[t]; dup {
			return nil, fmt.Errorf("question bank: duplicate type %q", t)
		}
		b.types = append(b.types, t)
		b.names[t] = g.Name
		b.stage2[t] = g.Questions
		for _, p := range g.Personas {
			p.Type = t
			if _, dup := b.profiles[p.Label]; dup {
				return nil, fmt.Errorf("question bank: duplicate persona %q", p.Label)
			}
			b.profiles[p.Label] = p
			b.personas[t] = append(b.personas[t], p)
		}
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bank) validate() error {
	if len(b.types) == 0 {
		return fmt.Errorf("question bank: no types")
	}
	if len(b.stage1) == 0 {
		return fmt.Errorf("question bank: stage 1 has no questions")
	}
	for i, q := range b.stage1 {
		if len(q.Options) == 0 {
			return fmt.Errorf("question bank: stage 1 question %d has no options", i)
		}
	}
	for _, t := range b.types {
		qs := b.stage2[t]
		if len(qs) == 0 {
			return fmt.Errorf("question bank: type %q has no stage 2 questions", t)
		}
		for i, q := range qs {
			if len(q.Options) == 0 {
				return fmt.Errorf("question bank: type %q question %d has no options", t, i)
			}
			for _, opt := range q.Options {
				for _, tag := range opt.Tags {
					p, ok := b.profiles[Label(tag)]
					if !ok || p.Type != t {
						return fmt.Errorf("question bank: type %q question %d tags unknown persona %q", t, i, tag)
					}
				}
			}
		}
	}
	return nil
}

func (b *Bank) Types() []Type {
	return append([]Type(nil), b.types...)
}

func (b *Bank) TypeName(t Type) string {
	return b.names[t]
}

// Questions returns the question list for a stage; t is ignored for stage 1.
func (b *Bank) Questions(stage Stage, t Type) []Question {
	if stage == StageOne {
		return b.stage1
	}
	return b.stage2[t]
}

func (b *Bank) Profile(label Label) (Profile, bool) {
	p, ok := b.profiles[label]
	return p, ok
}

const fallbackDescription = "A style all your own. Keep exploring."

// Describe returns the persona description, or a generic line for labels the
// bank does not know.
func (b *Bank) Describe(label Label) string {
	if p, ok := b.profiles[label]; ok && strings.TrimSpace(p.Description) != "" {
		return p.Description
	}
	return fallbackDescription
}

// Personas lists every persona in bank order, for the guide screen.
func (b *Bank) Personas() []Profile {
	out := make([]Profile, 0, len(b.profiles))
	for _, t := range b.types {
		out = append(out, b.personas[t]...)
	}
	return out
}

func (b *Bank) personaOf(t Type, tag string) bool {
	p, ok := b.profiles[Label(tag)]
	return ok && p.Type == t
}
