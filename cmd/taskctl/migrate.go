package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"taskctl/internal/infra/store"
)

// newMigrateProjectsCommand re-saves every stored project's task, which
// recomputes and rewrites its metadata sidecar (status, progress,
// updated_at) against the Store's current rules. Use after a progress-
// formula or status-taxonomy change to bring existing projects in line
// without touching their task content.
func newMigrateProjectsCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-projects",
		Short: "Recompute metadata sidecars for every project on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runMigrateProjects(cfg.ProjectsBaseDir)
		},
	}
}

func runMigrateProjects(projectsBaseDir string) error {
	s := store.New(projectsBaseDir)
	ctx := context.Background()

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("migrate-projects: list: %w", err)
	}

	bold := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("%s %d project(s) found\n", bold("migrate-projects:"), len(projects))

	migrated := 0
	for _, meta := range projects {
		task, err := s.LoadTask(ctx, meta.ID)
		if err != nil {
			fmt.Println(color.RedString("  %s: load failed: %v", meta.ID, err))
			continue
		}
		if task == nil {
			continue
		}
		if err := s.SaveTask(ctx, meta.ID, task); err != nil {
			fmt.Println(color.RedString("  %s: save failed: %v", meta.ID, err))
			continue
		}
		migrated++
		fmt.Println(color.GreenString("  %s: ok", meta.ID))
	}

	fmt.Printf("%s %d/%d migrated\n", bold("migrate-projects:"), migrated, len(projects))
	return nil
}
