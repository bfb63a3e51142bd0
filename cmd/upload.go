package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/intake"
	"github.com/resume2job/resume2job/internal/session"
)

var uploadCmd = &cobra.Command{
	Use:   "upload RESUME [JOB_DESCRIPTION_FILE]",
	Short: "Upload a resume and a job description and print the session ID",
	Long: `Upload a resume and a job description once and print the session ID.
The job description is either a file or text given with --jd-text. A file wins when both are given.
Use the printed ID with the ask command.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		upload(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringP("jd-text", "t", "", "job description text")
}

func upload(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	_, logger, client := setup("stderr")
	defer logger.Sync()

	resume, err := intake.FromFile(args[0])
	if err != nil {
		logger.Fatal("reading resume", zap.Error(err))
	}
	logInspect(logger, resume)

	var capture intake.Capture
	capture.Open()
	text, _ := cmd.Flags().GetString("jd-text")
	capture.SetText(text)
	if len(args) == 2 {
		doc, err := intake.FromFile(args[1])
		if err != nil {
			logger.Fatal("reading job description", zap.Error(err))
		}
		logInspect(logger, doc)
		capture.SetFile(doc)
	}

	jd, err := capture.Confirm()
	if err != nil {
		logger.Fatal("job description is required", zap.Error(err),
			zap.String("hint", "pass a file as the second argument or use --jd-text"))
	}

	s, err := session.NewUploader(client, logger).Upload(ctx, resume, jd)
	if err != nil {
		logger.Fatal("uploading documents", zap.Error(err))
	}

	fmt.Println(s.ID)
}

func logInspect(logger *zap.Logger, doc intake.Document) {
	info, err := intake.Inspect(doc)
	if err != nil {
		logger.Warn("inspecting document", zap.String("name", doc.DisplayName()), zap.Error(err))
		return
	}
	if !info.Accepted {
		logger.Warn("unexpected document type, uploading anyway",
			zap.String("name", info.Name),
			zap.Strings("accepted", intake.AcceptedExtensions),
		)
	}
	logger.Info("document", zap.Stringer("info", info))
}
