// Command assemble builds question papers from a pool file without a
// database, printing the result as JSON or plain text on stdout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/stemsi/qpaper-backend/internal/config"
	"github.com/stemsi/qpaper-backend/internal/logger"
	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/paper"
	"github.com/stemsi/qpaper-backend/internal/poolfile"
	"github.com/stemsi/qpaper-backend/internal/service"
)

type options struct {
	poolPath  string
	rulesPath string
	mode      string
	courseID  int
	sets      string
	salt      string
	from      string
	to        string
	noRepeat  bool
	exclude   string
	format    string
	examLabel string
}

func main() {
	var o options
	flag.StringVar(&o.poolPath, "pool", "", "Question pool file (YAML or JSON)")
	flag.StringVar(&o.rulesPath, "rules", "", "Mark rules file, required for -mode flexible")
	flag.StringVar(&o.mode, "mode", "full-term", "Layout: full-term, partial-term or flexible")
	flag.IntVar(&o.courseID, "course", 1, "Course identifier mixed into the shuffle seed")
	flag.StringVar(&o.sets, "sets", "A", "Comma-separated set labels")
	flag.StringVar(&o.salt, "salt", "", "Seed salt; a random one is chosen when empty")
	flag.StringVar(&o.from, "from", "", "First unit of the range")
	flag.StringVar(&o.to, "to", "", "Last unit of the range")
	flag.BoolVar(&o.noRepeat, "no-repeat", false, "Keep questions from repeating across sets")
	flag.StringVar(&o.exclude, "exclude", "", "Comma-separated question IDs to leave out")
	flag.StringVar(&o.format, "format", "json", "Output format: json or text")
	flag.StringVar(&o.examLabel, "label", "", "Exam label")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat).
		With().Str("component", "assemble").Logger()

	if o.poolPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	result, err := run(context.Background(), o, cfg, log)
	if err != nil {
		reportError(log, err)
		os.Exit(1)
	}

	switch o.format {
	case "text":
		err = writeText(os.Stdout, result)
	default:
		err = writeJSON(os.Stdout, result, term.IsTerminal(int(os.Stdout.Fd())))
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}

func run(ctx context.Context, o options, cfg *config.Config, log zerolog.Logger) (*service.GenerateResult, error) {
	p, err := poolfile.LoadPool(o.poolPath)
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}

	store := &fileStore{
		course: model.Course{ID: o.courseID, Code: p.Course.Code, Name: p.Course.Name, Subject: p.Course.Subject},
		pool:   p.Questions,
	}
	// Offline runs have no cache and no per-request set cap.
	cfg.MaxSetsPerRequest = 0
	svc := service.NewPaperService(store, store, discardHistory{}, nil, cfg, log)

	exclude, err := splitInts(o.exclude)
	if err != nil {
		return nil, err
	}
	base := model.GenerateFixedRequest{
		CourseID:     o.courseID,
		Sets:         splitList(o.sets),
		NoRepetition: o.noRepeat,
		ExcludeIDs:   exclude,
		Salt:         o.salt,
		ExamLabel:    o.examLabel,
	}

	switch o.mode {
	case "full-term":
		return svc.GenerateFullTerm(ctx, base)
	case "partial-term":
		return svc.GeneratePartialTerm(ctx, model.GeneratePartialRequest{
			GenerateFixedRequest: base,
			FromUnit:             o.from,
			ToUnit:               o.to,
		})
	case "flexible":
		if o.rulesPath == "" {
			return nil, errors.New("-rules is required for -mode flexible")
		}
		rs, err := poolfile.LoadRules(o.rulesPath)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		req := model.GenerateFlexibleRequest{
			GenerateFixedRequest: base,
			FromUnit:             firstNonEmpty(o.from, rs.FromUnit),
			ToUnit:               firstNonEmpty(o.to, rs.ToUnit),
			MarkRules:            rs.MarkRules,
		}
		return svc.GenerateFlexible(ctx, req)
	}
	return nil, fmt.Errorf("unknown mode %q", o.mode)
}

// reportError logs assembly failures with their structured fields.
func reportError(log zerolog.Logger, err error) {
	var (
		ve *paper.ValidationError
		ie *paper.InsufficientPoolError
		se *paper.StructuralError
	)
	switch {
	case errors.As(err, &ve):
		log.Error().Str("field", ve.Field).Str("reason", ve.Reason).Msg("Invalid request")
	case errors.As(err, &ie):
		log.Error().
			Str("section", ie.Section).
			Str("unit", ie.Unit).
			Int("mark", ie.Mark).
			Int("required", ie.Required).
			Int("found", ie.Found).
			Msg("Insufficient questions in pool")
	case errors.As(err, &se):
		log.Error().
			Str("section", se.Section).
			Int("target_sum", se.TargetSum).
			Int("candidates", se.Candidates).
			Msg("No qualifying written pair")
	default:
		log.Error().Err(err).Msg("Assembly failed")
	}
}

func writeJSON(w io.Writer, r *service.GenerateResult, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}

func writeText(w io.Writer, r *service.GenerateResult) error {
	var b strings.Builder
	for i, gs := range r.Sets {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s  Set %s  (%s, seed %s)\n", r.Course.Code, gs.Set, r.Mode, gs.Paper.Seed)
		for _, nq := range gs.Paper.Numbered() {
			q := nq.Question
			fmt.Fprintf(&b, "%5s. [%d] %s", nq.Label, q.MarkValue, q.QuestionText)
			if tags := strings.TrimSpace(q.CourseOutcome + " " + q.CompetencyLevel); tags != "" {
				fmt.Fprintf(&b, "  (%s)", tags)
			}
			b.WriteString("\n")
			if paper.IsValidMCQ(q) {
				fmt.Fprintf(&b, "       a) %s  b) %s  c) %s  d) %s\n", q.OptionA, q.OptionB, q.OptionC, q.OptionD)
			}
		}
		b.WriteString("\n  Outcome marks:")
		for _, om := range gs.Analytics.OutcomeMarks {
			fmt.Fprintf(&b, " %s=%d", om.Outcome, om.Marks)
		}
		b.WriteString("\n")
		for _, c := range gs.Analytics.Competency {
			fmt.Fprintf(&b, "  %s: %s\n", c.Level, strings.Join(c.Questions, ", "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
