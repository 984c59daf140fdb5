package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mathsym/mathsym/internal/classifier"
)

type recognition struct {
	File   string            `json:"file" yaml:"file"`
	Result classifier.Result `json:"result" yaml:"result"`
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>...",
	Short: "Recognize the symbol in one or more image files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		c, err := newClassifier(cfg, logger)
		if err != nil {
			return err
		}
		defer closeClassifier(c, logger)

		out := make([]recognition, 0, len(args))
		failures := 0
		for _, path := range args {
			r := recognizeFile(c, path, cfg.Classifier.MaxImagePixels)
			if r.Result.Failed() {
				failures++
			}
			out = append(out, r)
		}

		w := cmd.OutOrStdout()
		structured, err := printStructured(w, out)
		if err != nil {
			return err
		}
		if !structured {
			printRecognitions(w, out)
		}

		if failures > 0 {
			return fmt.Errorf("%d of %d images failed", failures, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}

func printRecognitions(w io.Writer, out []recognition) {
	for _, r := range out {
		switch {
		case r.Result.Recognized():
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\n", r.File, r.Result.Symbol, r.Result.LaTeX, r.Result.Confidence*100)
		case r.Result.Rejected():
			fmt.Fprintf(w, "%s\t%s (%s: %.1f%%)\n", r.File, r.Result.Message, r.Result.Reason, r.Result.Confidence*100)
		default:
			fmt.Fprintf(w, "%s\t%s\n", r.File, r.Result.LaTeX)
		}
	}
}

// recognizeFile decodes the image at path and recognizes it. Unreadable and
// undecodable files yield a Failed result carrying the cause.
func recognizeFile(c *classifier.Classifier, path string, maxPixels int) recognition {
	r := recognition{File: path}

	f, err := os.Open(path)
	if err != nil {
		r.Result = classifier.FailedResult(err)
		return r
	}
	defer f.Close()

	img, _, err := classifier.DecodeImage(f, maxPixels)
	if err != nil {
		r.Result = classifier.FailedResult(err)
		return r
	}
	r.Result = c.Recognize(img)
	return r
}
