package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aivideo/config"
	"aivideo/handlers"
	"aivideo/services"
	"aivideo/store"
	"aivideo/utils"
)

// app wires the services shared by every command
type app struct {
	cfg          *config.Config
	store        *store.Store
	tokens       *utils.TokenPool
	catalog      *services.Catalog
	orchestrator *services.Orchestrator
	media        *services.MediaService
	pending      *services.PendingMedia
	progress     *services.ProgressTracker
	session      *services.GenerationSession
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	repo, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	st, err := store.New(ctx, repo, store.WithDefaultModel(cfg.DefaultModel))
	if err != nil {
		repo.Close()
		return nil, err
	}

	catalog, err := services.LoadCatalog(cfg.ModelsFile)
	if err != nil {
		st.Close()
		return nil, err
	}

	tokens := utils.NewTokenPool(cfg.UpstreamTokens)
	client := services.NewChatCompletionsClient(services.InferenceOptions{
		BaseURL:    cfg.UpstreamBaseURL,
		CustomerID: cfg.UpstreamCustomerID,
		Tokens:     tokens,
		Cooldown:   cfg.TokenCooldown,
		Timeout:    cfg.UpstreamTimeout,
	})
	orch := services.NewOrchestrator(services.NewComposerService(), client, services.Placeholders{
		NoMatch: cfg.PlaceholderNoMatchURL,
		NoReply: cfg.PlaceholderNoReplyURL,
	})

	var previewer services.FramePreviewer
	if cfg.VideoPreviews {
		previewer = &services.FFmpegPreviewer{TempDir: cfg.TempDir}
	}

	pending := services.NewPendingMedia(cfg.MaxPendingMedia)
	progress := services.NewProgressTracker()
	session := services.NewGenerationSession(orch, st, pending, progress, services.ResetDelays{
		Success: cfg.SuccessResetDelay,
		Failure: cfg.FailureResetDelay,
		Cancel:  cfg.CancelResetDelay,
	}, services.WithSizeProbe(&http.Client{Timeout: 10 * time.Second}))

	return &app{
		cfg:          cfg,
		store:        st,
		tokens:       tokens,
		catalog:      catalog,
		orchestrator: orch,
		media:        services.NewMediaService(cfg.MaxUploadBytes, previewer),
		pending:      pending,
		progress:     progress,
		session:      session,
	}, nil
}

func (a *app) dependencies() handlers.Dependencies {
	return handlers.Dependencies{
		Orchestrator: a.orchestrator,
		Session:      a.session,
		Store:        a.store,
		Media:        a.media,
		Pending:      a.pending,
		Progress:     a.progress,
		Catalog:      a.catalog,
		Tokens:       a.tokens,
		HTTPClient:   &http.Client{Timeout: 10 * time.Minute},
	}
}

func (a *app) close() error {
	a.session.Cancel()
	a.session.Wait()
	return a.store.Close()
}
