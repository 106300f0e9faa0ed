package formrelay

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfig indicates a required configuration value is empty.
	ErrMissingConfig = errors.New("missing configuration")
	// ErrNoRecipient indicates the form data names no mail address.
	ErrNoRecipient = errors.New("form data has no recipient")
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageFetchProjects    Stage = "fetch_projects"
	StageDecodeProject    Stage = "decode_project"
	StageFetchCellTable   Stage = "fetch_cell_table"
	StageDownloadTemplate Stage = "download_template"
	StageFillTemplate     Stage = "fill_template"
	StageWriteOutput      Stage = "write_output"
	StageSendEmail        Stage = "send_email"
	StageUpdateStatus     Stage = "update_status"
)

// StageError represents a failure that aborted the pipeline.
type StageError struct {
	Stage     Stage
	ProjectID string
	Err       error
}

func (e *StageError) Error() string {
	if e.ProjectID == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s (project %s): %v", e.Stage, e.ProjectID, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a new StageError.
func NewStageError(stage Stage, projectID string, err error) *StageError {
	return &StageError{
		Stage:     stage,
		ProjectID: projectID,
		Err:       err,
	}
}
