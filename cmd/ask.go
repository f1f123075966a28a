package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptOwnQuestion = "Ask my own question"
	PromptExit        = "Exit"
)

var errExit = errors.New("exit requested")

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask questions about the document in the terminal",
	Long: "Ask answers a single question given as arguments, or starts an interactive " +
		"menu with example questions and free text input.",
	Run: func(cmd *cobra.Command, args []string) {
		ask(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func ask(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	config, logger := setup()

	s, err := newSession(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the assistant", zap.Error(err))
	}

	out := cmd.OutOrStdout()

	if question := strings.TrimSpace(strings.Join(args, " ")); question != "" {
		fmt.Fprintln(out, s.assistant.Ask(ctx, question))
		return
	}

	fmt.Fprintf(out, "%s\n\n%s\nDocument: %s\n\n", config.UI.Title, config.UI.Intro, s.assistant.DocumentURL())

	for {
		question, err := nextQuestion(config.UI.Examples)
		if err != nil {
			if errors.Is(err, errExit) || errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				logger.Info("exiting", zap.String("reason", "requested by user"))
				return
			}
			logger.Fatal("reading a question", zap.Error(err))
		}

		if question == "" {
			continue
		}

		printAnswer(out, question, s.assistant.Ask(ctx, question))
	}
}

// nextQuestion shows the example menu and returns the chosen or typed question.
func nextQuestion(examples []string) (string, error) {
	items := append(append([]string{}, examples...), PromptOwnQuestion, PromptExit)

	menu := promptui.Select{
		Label: "Pick a question",
		Items: items,
		Size:  len(items),
	}

	_, choice, err := menu.Run()
	if err != nil {
		return "", err
	}

	switch choice {
	case PromptExit:
		return "", errExit
	case PromptOwnQuestion:
		input := promptui.Prompt{Label: "Your question (any language)"}
		typed, err := input.Run()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(typed), nil
	default:
		return choice, nil
	}
}

func printAnswer(out io.Writer, question, answer string) {
	fmt.Fprintf(out, "\nQ: %s\nA: %s\n\n", question, answer)
}
