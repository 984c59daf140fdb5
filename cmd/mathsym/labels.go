package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mathsym/mathsym/internal/labels"
)

var auditTop int

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Inspect the label tables",
}

var labelsAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check the label file against the index remapping",
	Long: `Resolve every compact class index through the remapping and the label file
and report indices without a label, labels no index reaches, LaTeX values with no
Unicode glyph, and LaTeX values repeated more than 50 times.

Exits non-zero when the tables are inconsistent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		table, err := labels.Load(cfg.Model.LabelsPath, cfg.Model.MappingPath)
		if err != nil {
			return err
		}
		report := table.Audit(auditTop)

		w := cmd.OutOrStdout()
		structured, err := printStructured(w, report)
		if err != nil {
			return err
		}
		if !structured {
			fmt.Fprintf(w, "indices:          %d\n", report.Indices)
			fmt.Fprintf(w, "labels:           %d\n", report.Labels)
			fmt.Fprintf(w, "identity mapping: %t\n", report.Identity)
			fmt.Fprintf(w, "resolved:         %d\n", report.Resolved)
			if len(report.UnresolvedIndex) > 0 {
				fmt.Fprintf(w, "unresolved:       %v\n", report.UnresolvedIndex)
			}
			if len(report.UnusedLabels) > 0 {
				fmt.Fprintf(w, "unused labels:    %v\n", report.UnusedLabels)
			}
			if len(report.NoGlyph) > 0 {
				fmt.Fprintf(w, "no glyph:         %v\n", report.NoGlyph)
			}
			fmt.Fprintln(w, "most frequent:")
			for _, f := range report.Frequency {
				fmt.Fprintf(w, "  %-24s %d\n", f.LaTeX, f.Count)
			}
			for _, f := range report.Suspicious {
				fmt.Fprintf(w, "suspicious:       %s appears %d times\n", f.LaTeX, f.Count)
			}
		}

		if !report.OK() {
			return fmt.Errorf("label tables are inconsistent")
		}
		return nil
	},
}

func init() {
	labelsAuditCmd.Flags().IntVar(&auditTop, "top", 10, "number of most frequent LaTeX values to list (0 for all)")

	labelsCmd.AddCommand(labelsAuditCmd)
	rootCmd.AddCommand(labelsCmd)
}
