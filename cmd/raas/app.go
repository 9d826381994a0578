package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/admin"
	"github.com/ovaphlow/pitchfork/service-raas/internal/analytics"
	"github.com/ovaphlow/pitchfork/service-raas/internal/audit"
	auditrepo "github.com/ovaphlow/pitchfork/service-raas/internal/audit/repo"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/campaign"
	campaignrepo "github.com/ovaphlow/pitchfork/service-raas/internal/campaign/repo"
	"github.com/ovaphlow/pitchfork/service-raas/internal/config"
	"github.com/ovaphlow/pitchfork/service-raas/internal/llm"
	"github.com/ovaphlow/pitchfork/service-raas/internal/notify"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome"
	outcomerepo "github.com/ovaphlow/pitchfork/service-raas/internal/outcome/repo"
	"github.com/ovaphlow/pitchfork/service-raas/internal/payment"
	"github.com/ovaphlow/pitchfork/service-raas/internal/pipeline"
	pipelinerepo "github.com/ovaphlow/pitchfork/service-raas/internal/pipeline/repo"
	"github.com/ovaphlow/pitchfork/service-raas/internal/router"
	"github.com/ovaphlow/pitchfork/service-raas/internal/subscriber"
	subscriberrepo "github.com/ovaphlow/pitchfork/service-raas/internal/subscriber/repo"
	"github.com/ovaphlow/pitchfork/service-raas/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-raas/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-raas/pkg/database"
	"github.com/ovaphlow/pitchfork/service-raas/pkg/utilities"
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	db     *sqlx.DB
	ids    *utilities.IDGenerator

	users       *userrepo.UserRepo
	subscribers *subscriberrepo.SubscriberRepo
	outcomes    *outcomerepo.OutcomeRepo
	audits      *auditrepo.AuditRepo
	pipelines   *pipelinerepo.PipelineRepo
	campaigns   *campaignrepo.CampaignRepo

	recorder *audit.Recorder
	notifier *notify.Notifier
	prefs    *subscriber.Service
}

// newApp loads configuration, starts logging and connects to the database.
// modeOverride replaces PIPELINE_MODE when non-empty.
func newApp(modeOverride string) (*app, error) {
	cfg, err := config.Load(envFiles()...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.PipelineModeOverride(modeOverride); err != nil {
		return nil, fmt.Errorf("pipeline mode: %w", err)
	}
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	sugar := lg.Sugar()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		_ = lg.Sync()
		return nil, fmt.Errorf("db connect: %w", err)
	}

	a := &app{
		cfg:         cfg,
		logger:      lg,
		sugar:       sugar,
		db:          db,
		ids:         utilities.NewIDGenerator(cfg.SnowflakeNode),
		users:       userrepo.NewUserRepo(db),
		subscribers: subscriberrepo.NewSubscriberRepo(db),
		outcomes:    outcomerepo.NewOutcomeRepo(db),
		audits:      auditrepo.NewAuditRepo(db),
		pipelines:   pipelinerepo.NewPipelineRepo(db),
		campaigns:   campaignrepo.NewCampaignRepo(db),
	}
	a.recorder = audit.NewRecorder(a.audits, a.ids, sugar)
	a.prefs = subscriber.NewService(a.subscribers, sugar)
	a.notifier = notify.NewNotifier(notify.NewMailer(cfg.Email.ResendAPIKey, cfg.Email.From, sugar),
		a.prefs, cfg.Payment.AppURL, cfg.Payment.Currency, sugar)
	return a, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.sugar.Warnw("db close failed", "err", err)
	}
	_ = a.logger.Sync()
}

// migrate creates every table, referenced tables first.
func (a *app) migrate(ctx context.Context) error {
	return database.EnsureSchema(ctx,
		database.NamedEnsurer{Name: "users", Ensurer: a.users},
		database.NamedEnsurer{Name: "notification_preferences", Ensurer: a.subscribers},
		database.NamedEnsurer{Name: "outcomes", Ensurer: a.outcomes},
		database.NamedEnsurer{Name: "audit_logs/raas_metrics", Ensurer: a.audits},
		database.NamedEnsurer{Name: "agent_executions/prd_instances", Ensurer: a.pipelines},
		database.NamedEnsurer{Name: "aether_campaign_metrics/aether_leads", Ensurer: a.campaigns},
	)
}

// producer picks the stage producer for the configured pipeline mode.
func (a *app) producer(ctx context.Context) (pipeline.Producer, error) {
	if a.cfg.Pipeline.Mode != config.ModeLive {
		now := uint64(time.Now().UnixNano())
		return pipeline.NewSimulatedProducer(rand.New(rand.NewPCG(now, now>>7))), nil
	}
	p := a.cfg.Pipeline
	completer, err := llm.New(ctx, llm.Config{
		Provider:         p.Provider,
		AnthropicAPIKey:  p.AnthropicAPIKey,
		AnthropicModel:   p.AnthropicModel,
		AnthropicBaseURL: p.AnthropicBaseURL,
		GeminiAPIKey:     p.GeminiAPIKey,
		GeminiModel:      p.GeminiModel,
		MaxTokens:        p.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	catalog, err := pipeline.DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("prompt catalog: %w", err)
	}
	return pipeline.NewLiveProducer(completer, catalog), nil
}

func (a *app) runner(ctx context.Context) (*pipeline.Runner, error) {
	producer, err := a.producer(ctx)
	if err != nil {
		return nil, err
	}
	a.sugar.Infow("pipeline configured", "mode", a.cfg.Pipeline.Mode, "provider", a.cfg.Pipeline.Provider)
	return pipeline.NewRunner(a.outcomes, a.pipelines, producer, a.recorder, a.notifier, a.ids, a.sugar), nil
}

// handler assembles services and handlers into the HTTP API.
func (a *app) handler(ctx context.Context) (http.Handler, error) {
	cfg := a.cfg
	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("token verifier: %w", err)
	}
	var webhookVerifier *user.SignatureVerifier
	if cfg.IdentityWebhookSecret != "" {
		webhookVerifier, err = user.NewSignatureVerifier(cfg.IdentityWebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("identity webhook secret: %w", err)
		}
	} else {
		a.sugar.Warnw("identity webhook signatures are not verified; set IDENTITY_WEBHOOK_SECRET")
	}

	runner, err := a.runner(ctx)
	if err != nil {
		return nil, err
	}

	var provider payment.Provider
	if cfg.Payment.StripeSecretKey != "" {
		provider = payment.NewStripeProvider(cfg.Payment.StripeSecretKey, cfg.Payment.WebhookSecret)
	} else {
		a.sugar.Warnw("payments disabled; set STRIPE_SECRET_KEY")
	}

	users := user.NewUserService(a.users, a.prefs, a.recorder, a.sugar)
	outcomes := outcome.NewService(a.outcomes, a.recorder, a.sugar)
	payments := payment.NewService(provider, a.outcomes, a.notifier, a.recorder,
		payment.Settings{Currency: cfg.Payment.Currency, AppURL: cfg.Payment.AppURL}, a.sugar)
	campaigns := campaign.NewService(a.campaigns, a.recorder, a.ids, a.sugar)
	admins := admin.NewService(a.users, a.campaigns, a.outcomes, a.audits, a.recorder, a.sugar)
	stats := analytics.NewService(a.outcomes, a.audits)

	return router.RegisterRoutes(a.sugar, router.Handlers{
		Auth:        auth.NewMiddleware(verifier, users, a.sugar),
		Users:       user.NewHandler(users, webhookVerifier, a.sugar),
		Preferences: subscriber.NewHandler(a.prefs, a.sugar),
		Outcomes:    outcome.NewHandler(outcomes, a.sugar),
		Pipeline:    pipeline.NewHandler(runner, a.sugar),
		Payments:    payment.NewHandler(payments, a.sugar),
		Campaigns:   campaign.NewHandler(campaigns, a.sugar),
		Admin:       admin.NewHandler(admins, a.sugar),
		Analytics:   analytics.NewHandler(stats, a.sugar),
	}), nil
}
