package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"taskctl/internal/app/execution"
	"taskctl/internal/app/facade"
	"taskctl/internal/app/planning"
	"taskctl/internal/app/router"
	"taskctl/internal/app/specialists"
	"taskctl/internal/app/toolregistry"
	"taskctl/internal/app/tracker"
	"taskctl/internal/app/workspace"
	"taskctl/internal/infra/llmclient"
	"taskctl/internal/infra/store"
	"taskctl/internal/observability"
	taskctlhttp "taskctl/internal/server/http"
	"taskctl/internal/shared/config"
	"taskctl/internal/shared/logging"
)

// newServeCommand wires the full dependency graph (store, LLM client,
// facade, planning pipeline, execution engine, router, and HTTP Façade)
// and starts the server: load config, construct collaborators, listen.
func newServeCommand(flags *rootFlags) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the orchestration HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runServe(cfg, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address the Prometheus /metrics endpoint listens on")
	return cmd
}

func runServe(cfg config.Config, metricsAddr string) error {
	logger := logging.NewComponentLogger("taskctl")

	metrics, err := observability.New()
	if err != nil {
		return fmt.Errorf("serve: observability.New: %w", err)
	}

	taskStore := store.New(cfg.ProjectsBaseDir)
	llmClient := llmclient.New(llmclient.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})

	f := facade.New(llmClient, logger, facade.WithNetworkPlanMaxIter(cfg.NetworkPlanMaxIter))
	pipeline := planning.New(f, taskStore, logger)
	engine := execution.New(taskStore, logger, execution.WithSubtaskTimeout(cfg.SubtaskTimeout))
	trackers := tracker.NewRegistry(cfg.TrackerCacheSize)

	workspaces := func(projectID string) (*workspace.Workspace, error) {
		return workspace.New(cfg.AllowedBaseDir, projectID)
	}

	registryFor := func(ws *workspace.Workspace) *toolregistry.Registry {
		return toolregistry.New(ws, nil, metrics.ToolSLARecorder(), logger)
	}

	generalChat := specialists.GeneralChat(llmClient, logger)
	dispatcher := router.NewDispatcherWithThreshold(map[router.Category]router.Specialist{
		router.CategoryCodeDevelopment: specialists.CodeDevelopment(llmClient, registryFor, logger),
	}, generalChat, workspaces, cfg.IntentThreshold)

	server := taskctlhttp.New(taskctlhttp.Deps{
		Store:      taskStore,
		Pipeline:   pipeline,
		Engine:     engine,
		Dispatcher: dispatcher,
		Trackers:   trackers,
		Workspaces: workspaces,
		Logger:     logger,
	})

	metricsServer := &http.Server{Addr: metricsAddr, Handler: metrics.Handler()}
	apiServer := &http.Server{Addr: cfg.ServerAddr, Handler: server.Handler()}

	// The two listeners and the signal wait run as an errgroup. A listen
	// error cancels ctx; the signal goroutine waits for either a shutdown
	// signal or ctx and then shuts both servers down, which makes the
	// listeners return.
	group, ctx := errgroup.WithContext(context.Background())

	group.Go(func() error {
		logger.Info("metrics listening on %s", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		logger.Info("taskctl listening on %s", cfg.ServerAddr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info("shutting down")
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiServer.Shutdown(shutdownCtx)
		_ = metricsServer.Shutdown(shutdownCtx)
		_ = metrics.Shutdown(shutdownCtx)
		return nil
	})

	return group.Wait()
}
