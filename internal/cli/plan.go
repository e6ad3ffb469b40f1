package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/softforge/pipewright/internal/config"
)

type PlanCmd struct{}

func NewPlanCmd() *PlanCmd {
	return &PlanCmd{}
}

func (c *PlanCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the pipeline stages and their retry policy for the active config",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, configPath, err := rootFlags(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			printPlan(cfg)
			return nil
		},
	}
	return cmd
}

func printPlan(cfg *config.Config) {
	fmt.Println("Workflow:", cfg.Workflow)
	fmt.Println("Default branch:", cfg.DefaultBranch)
	fmt.Println("Ignore globs:", cfg.IgnorePaths)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Stage", "Action", "Retryable", "Max attempts"})

	attempts := strconv.Itoa(cfg.Publish.MaxAttempts)
	rows := [][]string{
		{"provision", "checkout, " + cfg.Python.Interpreter() + ", pip install", "no", "1"},
		{"precondition", "ensure " + cfg.Docker.Executable + " engine", "no", "1"},
		{"build", cfg.Python.Interpreter() + " " + cfg.Python.BuildScript, "no", "1"},
		{"publish/commit", "stage build output, commit", "no", "1"},
		{"publish/push", "push to " + cfg.Publish.Remote, "yes", attempts},
		{"publish/release", "create release on " + cfg.Forge.APIBaseURL, "yes", attempts},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}
