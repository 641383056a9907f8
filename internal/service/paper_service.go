package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stemsi/qpaper-backend/internal/config"
	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/paper"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrEmptyPool      = errors.New("course has no questions")
	ErrTooManySets    = errors.New("too many sets requested")
)

// DefaultSets is used when a request names no sets.
var DefaultSets = []string{"A"}

// GeneratedSet is one assembled paper with its presentation tables.
type GeneratedSet struct {
	Set       string          `json:"set"`
	Paper     paper.Paper     `json:"paper"`
	Analytics paper.Analytics `json:"analytics"`
}

// GenerateResult is everything produced by one generation request. Salt
// together with the request reproduces the same papers.
type GenerateResult struct {
	HistoryID    uuid.UUID      `json:"history_id"`
	Course       model.Course   `json:"course"`
	Mode         paper.Mode     `json:"mode"`
	ExamLabel    string         `json:"exam_label,omitempty"`
	Salt         string         `json:"salt"`
	NoRepetition bool           `json:"no_repetition"`
	Sets         []GeneratedSet `json:"sets"`
}

// assembleFunc builds one set's paper from the shared options.
type assembleFunc func(pool []model.Question, o paper.Options) (paper.Paper, error)

// PaperService loads question pools, runs the assemblers once per set and
// records what was generated.
type PaperService struct {
	courses   CourseStore
	questions QuestionStore
	history   HistoryStore
	rdb       *redis.Client
	cfg       *config.Config
	log       zerolog.Logger
}

// NewPaperService wires the service. rdb may be nil, in which case pools
// are always read from the store and history is written synchronously.
func NewPaperService(
	courses CourseStore,
	questions QuestionStore,
	history HistoryStore,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *PaperService {
	return &PaperService{
		courses:   courses,
		questions: questions,
		history:   history,
		rdb:       rdb,
		cfg:       cfg,
		log:       log.With().Str("component", "paper_service").Logger(),
	}
}

// GenerateFullTerm assembles fifteen-section papers.
func (s *PaperService) GenerateFullTerm(ctx context.Context, req model.GenerateFixedRequest) (*GenerateResult, error) {
	return s.generate(ctx, paper.ModeFullTerm, req, paper.AssembleFullTerm)
}

// GeneratePartialTerm assembles nine-section papers for one term half.
func (s *PaperService) GeneratePartialTerm(ctx context.Context, req model.GeneratePartialRequest) (*GenerateResult, error) {
	if _, err := paper.ResolveHalf(req.FromUnit, req.ToUnit); err != nil {
		return nil, err
	}
	return s.generate(ctx, paper.ModePartialTerm, req.GenerateFixedRequest,
		func(pool []model.Question, o paper.Options) (paper.Paper, error) {
			return paper.AssemblePartialTerm(pool, paper.PartialTermOptions{
				Options:  o,
				FromUnit: req.FromUnit,
				ToUnit:   req.ToUnit,
			})
		})
}

// GenerateFlexible assembles papers from per-mark quotas.
func (s *PaperService) GenerateFlexible(ctx context.Context, req model.GenerateFlexibleRequest) (*GenerateResult, error) {
	rules := paper.Rules(req.MarkRules)
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return s.generate(ctx, paper.ModeFlexible, req.GenerateFixedRequest,
		func(pool []model.Question, o paper.Options) (paper.Paper, error) {
			return paper.AssembleFlexible(pool, paper.FlexibleOptions{
				Options:  o,
				FromUnit: req.FromUnit,
				ToUnit:   req.ToUnit,
				Rules:    rules,
			})
		})
}

func (s *PaperService) generate(ctx context.Context, mode paper.Mode, req model.GenerateFixedRequest, assemble assembleFunc) (*GenerateResult, error) {
	sets, err := s.normalizeSets(req.Sets)
	if err != nil {
		return nil, err
	}

	course, err := s.lookupCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	pool, err := s.loadPool(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	salt := req.Salt
	if salt == "" {
		salt = uuid.NewString()
	}

	log := s.log.With().
		Int("course_id", req.CourseID).
		Str("mode", string(mode)).
		Strs("sets", sets).
		Str("salt", salt).
		Logger()

	base := paper.NewExclusion(req.ExcludeIDs...)
	generated := make([]GeneratedSet, len(sets))

	if req.NoRepetition {
		// Each set's selection is withheld from every later set.
		used := base
		for i, set := range sets {
			p, err := assemble(pool, paper.Options{CourseID: req.CourseID, Set: set, Salt: salt, Exclude: used})
			if err != nil {
				logFailure(log, set, err)
				return nil, fmt.Errorf("set %s: %w", set, err)
			}
			used.AddIDs(p.QuestionIDs()...)
			generated[i] = GeneratedSet{Set: set, Paper: p, Analytics: paper.Analyze(p)}
		}
	} else {
		var g errgroup.Group
		for i, set := range sets {
			g.Go(func() error {
				p, err := assemble(pool, paper.Options{CourseID: req.CourseID, Set: set, Salt: salt, Exclude: base})
				if err != nil {
					logFailure(log, set, err)
					return fmt.Errorf("set %s: %w", set, err)
				}
				generated[i] = GeneratedSet{Set: set, Paper: p, Analytics: paper.Analyze(p)}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	result := &GenerateResult{
		HistoryID:    uuid.New(),
		Course:       *course,
		Mode:         mode,
		ExamLabel:    req.ExamLabel,
		Salt:         salt,
		NoRepetition: req.NoRepetition,
		Sets:         generated,
	}
	s.recordHistory(ctx, result)

	log.Info().
		Int("pool_size", len(pool)).
		Str("history_id", result.HistoryID.String()).
		Msg("Papers generated")

	return result, nil
}

// normalizeSets trims labels, applies the default and rejects duplicates.
func (s *PaperService) normalizeSets(sets []string) ([]string, error) {
	if len(sets) == 0 {
		return slices.Clone(DefaultSets), nil
	}
	if limit := s.cfg.MaxSetsPerRequest; limit > 0 && len(sets) > limit {
		return nil, fmt.Errorf("%w: %d requested, at most %d allowed", ErrTooManySets, len(sets), limit)
	}
	out := make([]string, 0, len(sets))
	for _, set := range sets {
		set = strings.TrimSpace(set)
		if set == "" {
			return nil, &paper.ValidationError{Field: "sets", Reason: "set labels must not be blank"}
		}
		if slices.Contains(out, set) {
			return nil, &paper.ValidationError{Field: "sets", Reason: fmt.Sprintf("set %q requested twice", set)}
		}
		out = append(out, set)
	}
	return out, nil
}

func (s *PaperService) lookupCourse(ctx context.Context, courseID int) (*model.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return course, nil
}

// loadPool reads a course's pool from the Redis cache, falling back to the
// question store and repopulating the cache. Cache errors never fail the
// request.
func (s *PaperService) loadPool(ctx context.Context, courseID int) ([]model.Question, error) {
	key := config.CacheKey.CoursePoolKey(courseID)

	if s.cacheEnabled() {
		data, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var pool []model.Question
			if err := json.Unmarshal(data, &pool); err == nil {
				return pool, nil
			}
			s.log.Warn().Int("course_id", courseID).Msg("Discarding undecodable cached pool")
		case !errors.Is(err, redis.Nil):
			s.log.Warn().Err(err).Int("course_id", courseID).Msg("Pool cache read failed")
		}
	}

	pool, err := s.questions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	s.cachePool(ctx, courseID, pool)
	return pool, nil
}

func (s *PaperService) cachePool(ctx context.Context, courseID int, pool []model.Question) {
	if !s.cacheEnabled() || len(pool) == 0 {
		return
	}
	data, err := json.Marshal(pool)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.CoursePoolKey(courseID), data, s.cfg.PoolCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Int("course_id", courseID).Msg("Pool cache write failed")
	}
}

// RefreshPool drops the cached pool of a course and reloads it from the
// question store. It returns the pool size.
func (s *PaperService) RefreshPool(ctx context.Context, courseID int) (int, error) {
	if _, err := s.lookupCourse(ctx, courseID); err != nil {
		return 0, err
	}
	if s.cacheEnabled() {
		if err := s.rdb.Del(ctx, config.CacheKey.CoursePoolKey(courseID)).Err(); err != nil {
			s.log.Warn().Err(err).Int("course_id", courseID).Msg("Pool cache delete failed")
		}
	}
	pool, err := s.loadPool(ctx, courseID)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("course_id", courseID).Int("pool_size", len(pool)).Msg("Pool refreshed")
	return len(pool), nil
}

// PrewarmPools loads every course's pool into the cache before traffic
// arrives. Courses that fail are logged and skipped.
func (s *PaperService) PrewarmPools(ctx context.Context) error {
	if !s.cacheEnabled() {
		return nil
	}
	courses, err := s.courses.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	for _, c := range courses {
		if _, err := s.RefreshPool(ctx, c.ID); err != nil {
			s.log.Warn().Err(err).Int("course_id", c.ID).Msg("Pool prewarm failed")
		}
	}
	return nil
}

func (s *PaperService) cacheEnabled() bool {
	return s.rdb != nil && s.cfg.PoolCacheTTL > 0
}

// recordHistory queues the history record for the HistoryWorker, or
// writes it directly when no queue is available.
func (s *PaperService) recordHistory(ctx context.Context, r *GenerateResult) {
	h := &model.GenerationHistory{
		ID:        r.HistoryID,
		CourseID:  r.Course.ID,
		Subject:   r.Course.Subject,
		ExamLabel: r.ExamLabel,
		Mode:      string(r.Mode),
		Salt:      r.Salt,
		CreatedAt: time.Now().UTC(),
	}
	for _, gs := range r.Sets {
		h.Sets = append(h.Sets, gs.Set)
		h.QuestionIDs = append(h.QuestionIDs, gs.Paper.QuestionIDs()...)
	}

	if s.rdb != nil {
		raw, err := json.Marshal(h)
		if err == nil {
			err = s.rdb.RPush(ctx, config.WorkerKey.PersistHistoryQueue, raw).Err()
		}
		if err == nil {
			return
		}
		s.log.Warn().Err(err).Msg("History enqueue failed, writing directly")
	}

	if s.history == nil {
		return
	}
	if err := s.history.Insert(ctx, h); err != nil {
		s.log.Error().Err(err).Str("history_id", h.ID.String()).Msg("History insert failed")
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func logFailure(log zerolog.Logger, set string, err error) {
	ev := log.Warn().Str("set", set)

	var ie *paper.InsufficientPoolError
	var se *paper.StructuralError
	switch {
	case errors.As(err, &ie):
		ev.Str("section", ie.Section).
			Str("unit", ie.Unit).
			Int("mark", ie.Mark).
			Int("required", ie.Required).
			Int("found", ie.Found).
			Str("side", string(ie.Side)).
			Msg("Insufficient pool")
	case errors.As(err, &se):
		ev.Str("section", se.Section).
			Str("unit", se.Unit).
			Int("target_sum", se.TargetSum).
			Int("candidates", se.Candidates).
			Msg("No qualifying written pair")
	default:
		ev.Err(err).Msg("Assembly rejected")
	}
}
