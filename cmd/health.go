package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the assistant service is up",
	Run: func(_ *cobra.Command, _ []string) {
		health()
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func health() {
	_, logger, client := setup("stderr")
	defer logger.Sync()

	h, err := client.Health(context.Background())
	if err != nil {
		logger.Fatal("checking backend health", zap.Error(err), zap.String("backend", client.BaseURL))
	}

	fmt.Printf("%s: %s\n", h.Service, h.Status)
}
