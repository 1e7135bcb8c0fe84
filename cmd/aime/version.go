package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/aime"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of aime",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aime version %s\n", strings.TrimSpace(aime.Version))
		},
	}
}
