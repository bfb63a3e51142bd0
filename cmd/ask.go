package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/logger"
	"github.com/resume2job/resume2job/internal/shell/terminal"
)

var askCmd = &cobra.Command{
	Use:   "ask PROMPT...",
	Short: "Ask one question in an existing session",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ask(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("session", "s", "", "session ID printed by the upload command")
	askCmd.Flags().Bool("raw", false, "print the answer without markdown rendering")
	askCmd.MarkFlagRequired("session")
}

func ask(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	config, log, client := setup("stderr")
	defer log.Sync()

	sessionID, _ := cmd.Flags().GetString("session")
	prompt := strings.Join(args, " ")
	if strings.TrimSpace(prompt) == "" {
		log.Fatal("prompt is empty")
	}

	log = logger.WithSession(log, sessionID, "")

	answer, err := client.Query(ctx, sessionID, prompt)
	if err != nil {
		log.Fatal("querying", zap.Error(err))
	}

	raw, _ := cmd.Flags().GetBool("raw")
	renderer, err := terminal.NewRenderer(config.Chat.Markdown && !raw, 0)
	if err != nil {
		log.Fatal("creating a renderer", zap.Error(err))
	}

	fmt.Println(renderer.Answer(answer))
}
