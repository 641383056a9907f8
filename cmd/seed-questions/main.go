package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/qpaper-backend/internal/config"
	"github.com/stemsi/qpaper-backend/internal/database"
	"github.com/stemsi/qpaper-backend/internal/logger"
	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/poolfile"
	"github.com/stemsi/qpaper-backend/internal/repository"
	"github.com/stemsi/qpaper-backend/internal/service"
)

func main() {
	var (
		file    = flag.String("file", "", "Question pool file (YAML or JSON)")
		code    = flag.String("course", "", "Course code; overrides the file's course.code")
		name    = flag.String("name", "", "Course name; overrides the file's course.name")
		subject = flag.String("subject", "", "Subject; overrides the file's course.subject")
		replace = flag.Bool("replace", false, "Delete the course's existing questions first")
	)
	flag.Parse()

	cfg := config.Load()
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat).
		With().Str("component", "seed").Logger()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: seed-questions -file pool.yaml [-course CODE] [-name NAME] [-subject SUBJECT] [-replace]")
		os.Exit(2)
	}

	p, err := poolfile.LoadPool(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read pool file")
	}

	course := &model.Course{
		Code:    firstNonEmpty(*code, p.Course.Code),
		Name:    firstNonEmpty(*name, p.Course.Name, p.Course.Code, *code),
		Subject: firstNonEmpty(*subject, p.Course.Subject),
	}
	if course.Code == "" {
		log.Fatal().Msg("Course code missing: pass -course or set course.code in the file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	courseRepo := repository.NewCourseRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)

	if err := courseRepo.Upsert(ctx, course); err != nil {
		log.Fatal().Err(err).Str("code", course.Code).Msg("Failed to upsert course")
	}
	log.Info().Int("course_id", course.ID).Str("code", course.Code).Msg("Course ready")

	if *replace {
		removed, err := questionRepo.DeleteByCourse(ctx, course.ID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to clear existing questions")
		}
		log.Info().Int64("removed", removed).Msg("Existing questions cleared")
	}

	inserted, err := questionRepo.BulkCreate(ctx, course.ID, p.Questions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to insert questions")
	}
	log.Info().Int64("inserted", inserted).Msg("Questions seeded")

	// A running server may hold a stale cached pool for this course.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; cached pool not refreshed")
		return
	}
	defer rdb.Close()

	papers := service.NewPaperService(courseRepo, questionRepo, historyRepo, rdb, cfg, log)
	size, err := papers.RefreshPool(ctx, course.ID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to refresh cached pool")
		return
	}
	log.Info().Int("pool_size", size).Msg("Cached pool refreshed")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
