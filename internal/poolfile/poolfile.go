// Package poolfile reads question pools and mark-rule sets from YAML files.
// JSON input is accepted as well, being a subset of YAML.
package poolfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/paper"
)

// Course describes the course a pool file belongs to.
type Course struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Subject string `yaml:"subject"`
}

// Pool is the on-disk question pool.
type Pool struct {
	Course    Course           `yaml:"course"`
	Questions []model.Question `yaml:"questions"`
}

// RuleSet is the on-disk flexible-layout request.
type RuleSet struct {
	FromUnit  string                 `yaml:"from_unit"`
	ToUnit    string                 `yaml:"to_unit"`
	MarkRules map[int]model.MarkRule `yaml:"mark_rules"`
}

// Rules returns the mark rules in engine form.
func (r RuleSet) Rules() paper.Rules {
	return paper.Rules(r.MarkRules)
}

func decodeStrict(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty document")
		}
		return err
	}
	return nil
}

// DecodePool parses and checks a pool. Questions without IDs are numbered
// from 1 in file order; mixing numbered and unnumbered entries is an error.
func DecodePool(r io.Reader) (*Pool, error) {
	var p Pool
	if err := decodeStrict(r, &p); err != nil {
		return nil, fmt.Errorf("decode pool: %w", err)
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPool reads a pool file.
func LoadPool(path string) (*Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodePool(f)
}

func (p *Pool) normalize() error {
	if len(p.Questions) == 0 {
		return errors.New("pool has no questions")
	}

	numbered := 0
	for _, q := range p.Questions {
		if q.ID != 0 {
			numbered++
		}
	}
	if numbered != 0 && numbered != len(p.Questions) {
		return fmt.Errorf("%d of %d questions have an id; give every question an id or none", numbered, len(p.Questions))
	}

	seen := make(map[int]int, len(p.Questions))
	for i := range p.Questions {
		q := &p.Questions[i]
		if numbered == 0 {
			q.ID = i + 1
		}
		if prev, dup := seen[q.ID]; dup {
			return fmt.Errorf("question %d: id %d already used by question %d", i+1, q.ID, prev+1)
		}
		seen[q.ID] = i

		q.Unit = strings.TrimSpace(q.Unit)
		q.Portion = strings.ToUpper(strings.TrimSpace(q.Portion))
		if _, err := paper.ParseUnit(q.Unit); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
		switch paper.Portion(q.Portion) {
		case paper.PortionNone, paper.PortionA, paper.PortionB, paper.PortionAB:
		default:
			return fmt.Errorf("question %d: unknown portion %q", i+1, q.Portion)
		}
		if !paper.ValidMark(q.MarkValue) {
			return fmt.Errorf("question %d: mark_value %d is not one of %v", i+1, q.MarkValue, paper.MarkValues)
		}
		if strings.TrimSpace(q.QuestionText) == "" {
			return fmt.Errorf("question %d: question_text is empty", i+1)
		}
	}
	return nil
}

// DecodeRules parses and validates a rule set.
func DecodeRules(r io.Reader) (*RuleSet, error) {
	var rs RuleSet
	if err := decodeStrict(r, &rs); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if err := rs.Rules().Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadRules reads a rule file.
func LoadRules(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeRules(f)
}
