package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orcforge/engine/internal/modes"
)

func newSubmitCmd() *cobra.Command {
	var mode string
	var priority int
	var projectID string
	var taskID string

	cmd := &cobra.Command{
		Use:   "submit <description>",
		Short: "Submit a new development task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := eng.Submit(taskID, args[0], mode, priority, projectID)
			if err != nil {
				return err
			}
			return printTask(cmd, task)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "mode name (SPEED, QUALITY, AUTONOMY, COST); defaults to the engine's current default mode")
	cmd.Flags().IntVar(&priority, "priority", 0, "scheduling priority, higher runs first")
	cmd.Flags().StringVar(&projectID, "project", "", "project id the task belongs to")
	cmd.Flags().StringVar(&taskID, "id", "", "task id (generated if omitted)")
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show a task's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := eng.GetState(args[0])
			if err != nil {
				return err
			}
			return printTask(cmd, task)
		},
	}
	return cmd
}

func newCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <task-id>",
		Short: "Cancel a queued or running task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := eng.Cancel(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cancellation requested")
			return nil
		},
	}
	return cmd
}

func newSwitchModeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switch-mode <mode>",
		Short: "Change the engine's default mode for future submissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := eng.SwitchMode(args[0])
			if err != nil {
				return err
			}
			return printTask(cmd, result)
		},
	}
	return cmd
}

func newModesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List registered mode names",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range modes.Builtin().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	return cmd
}

func printTask(cmd *cobra.Command, task any) error {
	if !jsonOut {
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", task)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(task)
}
