package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type VersionCmd struct{}

func NewVersionCmd() *VersionCmd {
	return &VersionCmd{}
}

func (c *VersionCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
			return nil
		},
	}
}
