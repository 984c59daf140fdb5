package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mathsym/mathsym/internal/symbols"
)

var renderCmd = &cobra.Command{
	Use:   "render <text>...",
	Short: "Replace LaTeX commands in text with Unicode glyphs",
	Example: `  mathsym render '\alpha \leq \beta'
  mathsym render 'x^2 \in \mathbb{R}'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), symbols.Replace(strings.Join(args, " ")))
		return err
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
}
