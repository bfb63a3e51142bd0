package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/intake"
	"github.com/resume2job/resume2job/internal/shell/terminal"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Upload your documents and chat about them in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().Bool("markdown", true, "render answers as markdown")
	chatCmd.Flags().Int("width", 0, "wrap width for rendered answers")
	chatCmd.Flags().StringP("resume", "r", "", "resume file to start with")

	viper.BindPFlag("chat.markdown", chatCmd.Flags().Lookup("markdown"))
}

func chat(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Startup failures go to stderr. Once the frame is drawn in place, logs only go to a file.
	logger := newLogger("stderr")
	config := loadConfig(logger)
	if config.LogFile != "" {
		logger = newLogger(config.LogFile)
	} else {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	client := newClient(config, logger)

	width, _ := cmd.Flags().GetInt("width")
	renderer, err := terminal.NewRenderer(config.Chat.Markdown, width)
	if err != nil {
		log.Fatalf("creating a renderer: %s", err)
	}

	ws := newWorkspace(config, client, logger)
	defer ws.Close()

	if path, _ := cmd.Flags().GetString("resume"); path != "" {
		doc, err := intake.FromFile(path)
		if err != nil {
			log.Fatalf("reading resume: %s", err)
		}
		if err := ws.SelectResume(doc); err != nil {
			log.Fatalf("selecting resume: %s", err)
		}
	}

	logger.Info("starting the terminal shell", zap.String("version", version))

	shell := terminal.New(ws, renderer, os.Stdin, os.Stdout, logger)
	if err := shell.Run(ctx); err != nil {
		logger.Error("running the terminal shell", zap.Error(err))
		log.Fatalf("terminal shell: %s", err)
	}
}
