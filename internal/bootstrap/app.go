package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"course-backend/internal/decision"
	"course-backend/internal/entropy"
	"course-backend/internal/evaluations"
	"course-backend/internal/judge"
	"course-backend/internal/judge/anthropic"
	"course-backend/internal/queue"
	"course-backend/internal/services/health"
	"course-backend/internal/shared/config"
	"course-backend/internal/shared/server"
	"course-backend/internal/shared/storage/db"
)

// App holds shared dependencies.
type App struct {
	Config              config.Config
	Router              *gin.Engine
	DB                  *sql.DB
	Queue               queue.Client
	Health              *health.Service
	EvaluationsRepo     evaluations.Repo
	EvaluationsService  *evaluations.Service
	EvaluationProcessor EvaluationProcessor
	EvaluationsHandler  *evaluations.Handler
}

// EvaluationProcessor allows callers to override evaluation processing for tests.
type EvaluationProcessor interface {
	Process(ctx context.Context, evaluationID string) error
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Queue:  queueClient,
		Health: health.NewServiceWithDB(sqlDB),
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		EvaluationsHandler: app.EvaluationsHandler,
		Health:             app.Health,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("CB_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var repo evaluations.Repo
	if app.DB != nil {
		repo = &evaluations.PGRepo{DB: app.DB}
	} else {
		repo = evaluations.NewMemoryRepo()
	}

	cascade, err := buildCascade(app.Config)
	if err != nil {
		return err
	}

	engine, entropyCfg, qualityThreshold, err := buildTuning(app.Config)
	if err != nil {
		return err
	}

	svc := &evaluations.Service{
		Repo:             repo,
		Cascade:          cascade,
		Engine:           engine,
		EntropyCfg:       entropyCfg,
		Queue:            app.Queue,
		QualityThreshold: qualityThreshold,
	}

	app.EvaluationsRepo = repo
	app.EvaluationsService = svc
	app.EvaluationProcessor = svc
	app.EvaluationsHandler = evaluations.NewHandler(svc)

	return nil
}

func buildCascade(cfg config.Config) (*judge.Cascade, error) {
	if cfg.JudgeProvider != "anthropic" {
		return judge.NewCascade(judge.PlaceholderClient{}), nil
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	primary, err := anthropic.NewClient(apiKey, cfg.JudgeModel)
	if err != nil {
		return nil, err
	}

	panel := make([]judge.Client, 0, cfg.JudgePanelSize)
	for i := 0; i < cfg.JudgePanelSize; i++ {
		voter, err := anthropic.NewClient(apiKey, cfg.JudgeModel)
		if err != nil {
			return nil, err
		}
		panel = append(panel, voter)
	}

	return judge.NewCascade(primary, panel...), nil
}

func buildTuning(cfg config.Config) (*decision.Engine, entropy.Config, float64, error) {
	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		return nil, entropy.Config{}, 0, err
	}

	thresholds := decision.DefaultThresholds()
	if tuning.Accept > 0 {
		thresholds.Accept = tuning.Accept
	}
	if tuning.TargetedFix > 0 {
		thresholds.TargetedFix = tuning.TargetedFix
	}
	if tuning.Regenerate > 0 {
		thresholds.Regenerate = tuning.Regenerate
	}
	if tuning.MaxIterations > 0 {
		thresholds.MaxIterations = tuning.MaxIterations
	}
	if tuning.AffectedSplit > 0 {
		thresholds.AffectedSplit = tuning.AffectedSplit
	}
	if tuning.DiminishingEpsilon > 0 {
		thresholds.DiminishingEpsilon = tuning.DiminishingEpsilon
	}

	entropyCfg := entropy.DefaultConfig()
	if tuning.Entropy.SpanThreshold > 0 {
		entropyCfg.SpanThreshold = tuning.Entropy.SpanThreshold
	}
	if tuning.Entropy.CriticalThreshold > 0 {
		entropyCfg.CriticalSpanThreshold = tuning.Entropy.CriticalThreshold
	}
	if tuning.Entropy.HighRatioTrigger > 0 {
		entropyCfg.HighRatioTrigger = tuning.Entropy.HighRatioTrigger
	}

	qualityThreshold := cfg.QualityThreshold
	if tuning.QualityThreshold > 0 {
		qualityThreshold = tuning.QualityThreshold
	}

	return decision.NewEngine(thresholds), entropyCfg, qualityThreshold, nil
}
