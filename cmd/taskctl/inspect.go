package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"taskctl/internal/domain/plan"
	"taskctl/internal/infra/store"
)

// newInspectTaskCommand prints a project's task hierarchy and per-subtask
// status to the terminal, colorized by outcome.
func newInspectTaskCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect-task <project-id>",
		Short: "Print a project's task hierarchy and subtask statuses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runInspectTask(cfg.ProjectsBaseDir, args[0])
		},
	}
}

func runInspectTask(projectsBaseDir, projectID string) error {
	s := store.New(projectsBaseDir)
	task, err := s.LoadTask(context.Background(), projectID)
	if err != nil {
		return fmt.Errorf("inspect-task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("inspect-task: no task stored for project %q", projectID)
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Printf("%s  (%s)\n", task.Name, task.State)
	fmt.Printf("  scope: %s\n", task.Scope.Status)
	if task.NetworkPlan == nil {
		fmt.Println("  no network plan yet")
		return nil
	}

	for _, stage := range task.NetworkPlan.Stages {
		color.New(color.FgYellow).Printf("stage %-2d %s\n", stage.SequenceOrder, stage.Name)
		for _, work := range stage.WorkPackages {
			fmt.Printf("  work %-2d %s\n", work.SequenceOrder, work.Name)
			for _, xt := range work.Tasks {
				fmt.Printf("    task %-2d %s\n", xt.SequenceOrder, xt.Name)
				for _, st := range xt.Subtasks {
					printSubtask(st)
				}
			}
		}
	}
	return nil
}

func printSubtask(st *plan.Subtask) {
	line := fmt.Sprintf("      subtask %-2d [%s] %s", st.SequenceOrder, st.Status, st.Name)
	switch st.Status {
	case plan.SubtaskCompleted:
		color.Green(line)
	case plan.SubtaskFailed:
		color.Red(line)
	case plan.SubtaskInProgress:
		color.Yellow(line)
	default:
		fmt.Println(line)
	}
}
