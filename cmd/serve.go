package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/shell/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat in the browser on a local address",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", web.DefaultAddr, "address to listen on")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "extra origins allowed to call the API")

	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("serve.allowed-origins", serveCmd.Flags().Lookup("allowed-origins"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var outputs []string
	if file := viper.GetString("log-file"); file != "" {
		outputs = append(outputs, file)
	}
	config, logger, client := setup(outputs...)
	defer logger.Sync()

	ws := newWorkspace(config, client, logger)
	defer ws.Close()

	logger.Info("starting the web shell",
		zap.String("version", version),
		zap.String("backend", config.Backend.URL),
	)

	srv := web.NewServer(ws, config.Serve.Addr, config.Serve.AllowedOrigins, logger)
	if err := srv.Start(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("web shell stopped")
}
