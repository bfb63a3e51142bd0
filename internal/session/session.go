package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/intake"
	"github.com/resume2job/resume2job/internal/logger"
)

type uploadClient interface {
	Upload(ctx context.Context, sessionID string, resume, jobDescription intake.Document) (string, error)
}

// Session is the result of a successful upload. Its ID correlates every later query.
type Session struct {
	ID                 string
	ResumeName         string
	JobDescriptionName string
	Ack                string
}

// Uploader mints a session identifier and submits both documents under it.
type Uploader struct {
	client uploadClient
	newID  func() string
	logger *zap.Logger
}

func NewUploader(client uploadClient, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Uploader{
		client: client,
		newID:  uuid.NewString,
		logger: logger,
	}
}

// Upload submits the documents once. A failed upload yields no session and is not retried.
func (u *Uploader) Upload(ctx context.Context, resume, jobDescription intake.Document) (*Session, error) {
	if resume.IsZero() {
		return nil, fmt.Errorf("resume is required")
	}
	if jobDescription.IsZero() {
		return nil, fmt.Errorf("job description is required")
	}

	id := u.newID()
	log := logger.WithSession(u.logger, id, "")

	log.Info("uploading documents",
		zap.String("resume", resume.DisplayName()),
		zap.String("job_description", jobDescription.DisplayName()),
	)

	ack, err := u.client.Upload(ctx, id, resume, jobDescription)
	if err != nil {
		log.Error("upload failed", zap.Error(err))
		return nil, fmt.Errorf("uploading documents: %w", err)
	}

	log.Info("upload success", zap.String("ack", ack))

	return &Session{
		ID:                 id,
		ResumeName:         resume.DisplayName(),
		JobDescriptionName: jobDescription.DisplayName(),
		Ack:                ack,
	}, nil
}
