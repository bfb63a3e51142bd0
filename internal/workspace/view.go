package workspace

import "github.com/resume2job/resume2job/internal/conversation"

// Phase is the position in the linear intake → chat progression.
type Phase int

const (
	PhaseNoDocuments Phase = iota
	PhaseUploading
	PhaseReady
	PhaseConversing
)

func (p Phase) String() string {
	switch p {
	case PhaseNoDocuments:
		return "no_documents"
	case PhaseUploading:
		return "uploading"
	case PhaseReady:
		return "ready"
	case PhaseConversing:
		return "conversing"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationFailure NotificationKind = "failure"
)

const (
	MessageUploadSuccess = "Files uploaded successfully"
	MessageUploadFailure = "Upload failed. Please try again."

	HintAddJobDescription = "Now add the job description to continue"
	EmptyTranscript       = "Ask me to analyze how your resume matches the job description, suggest improvements, or generate a cover letter."
	Disclaimer            = "Resume 2 Job may produce inaccurate information. Always verify important details."
)

// Notification is a transient message that dismisses itself.
type Notification struct {
	Kind NotificationKind `json:"kind"`
	Text string           `json:"text"`
}

// View is an immutable snapshot of the workspace. Shells render nothing else.
type View struct {
	Phase              Phase                  `json:"phase"`
	ResumeName         string                 `json:"resume_name,omitempty"`
	JobDescriptionName string                 `json:"job_description_name,omitempty"`
	PendingJD          bool                   `json:"pending_jd"`
	SessionID          string                 `json:"session_id,omitempty"`
	Uploading          bool                   `json:"uploading"`
	Loading            bool                   `json:"loading"`
	Messages           []conversation.Message `json:"messages"`
	Notification       *Notification          `json:"notification,omitempty"`
}

// ShowUploadCards is true while either document is missing.
func (v View) ShowUploadCards() bool {
	return v.ResumeName == "" || v.JobDescriptionName == ""
}

// ComposerVisible is true once a session exists.
func (v View) ComposerVisible() bool {
	return v.SessionID != ""
}

// BothUploaded is true when the header shows both document names.
func (v View) BothUploaded() bool {
	return v.ResumeName != "" && v.JobDescriptionName != ""
}

func (v View) Hint() string {
	if v.ResumeName != "" && v.JobDescriptionName == "" && !v.Uploading {
		return HintAddJobDescription
	}
	return ""
}
