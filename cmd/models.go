package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-chat/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show available models and how the candidate list resolves",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()

		config, logger := setup()

		s, err := newSession(ctx, config, logger)
		if err != nil {
			logger.Fatal("preparing the assistant", zap.Error(err))
		}

		printModels(cmd.OutOrStdout(), s.availability, s.selection)
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func printModels(out io.Writer, availability ai.AvailabilitySet, selection *ai.Selection) {
	if availability.Known() {
		fmt.Fprintf(out, "available models (%d):\n", len(availability))
		for _, m := range availability.Sorted() {
			fmt.Fprintf(out, "  %s\n", m)
		}
	} else {
		fmt.Fprintln(out, "available models: unknown (listing failed)")
	}

	fmt.Fprintln(out, "candidates:")
	for _, r := range selection.Results {
		fmt.Fprintf(out, "  %s\n", r)
	}

	if selection.Resolved() {
		fmt.Fprintf(out, "resolved model: %s\n", selection.Model)
		return
	}
	fmt.Fprintf(out, "resolved model: none (%v)\n", selection.Err())
}
