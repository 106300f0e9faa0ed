package formrelay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ukaji3/formrelay-go/pkg/formrelay/models"
	"github.com/ukaji3/formrelay-go/pkg/formrelay/notify"
	"github.com/ukaji3/formrelay-go/pkg/formrelay/records"
	"github.com/ukaji3/formrelay-go/pkg/formrelay/workbook"
	"go.uber.org/zap"
)

// RecordStore lists and updates records.
type RecordStore interface {
	GetFilteredList(ctx context.Context, collection, filter string) ([]records.Record, error)
	GetFullList(ctx context.Context, collection string) ([]records.Record, error)
	UpdateStatus(ctx context.Context, collection, id, status string) (records.Record, error)
}

// ObjectStore downloads template files.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// Mailer sends a message and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, m notify.Message) (string, error)
}

// Pipeline processes one pending project per Run.
type Pipeline struct {
	Records RecordStore
	Storage ObjectStore
	Mailer  Mailer
	Config  *Config
	Logger  *zap.Logger

	// DryRun fills the template but skips the email and the status update.
	// The populated workbook is written to Output when it is non-nil.
	DryRun bool
	Output io.Writer
}

// Result describes a processed project.
type Result struct {
	ProjectID  string
	MessageID  string
	Recipients []string
	Cells      map[string]any
	DryRun     bool
}

// Run processes the first pending project. It returns a nil Result and a nil
// error when no project is pending. The first failing step aborts the run
// with a *StageError and leaves the project in its pending status.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.Config == nil {
		return nil, errors.New("pipeline has no config")
	}
	cfg := p.Config
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("fetching pending projects", zap.String("collection", cfg.ProjectsCollection))
	pending, err := p.Records.GetFilteredList(ctx, cfg.ProjectsCollection, cfg.PendingFilter())
	if err != nil {
		return nil, p.fail(log, NewStageError(StageFetchProjects, "", err))
	}
	if len(pending) == 0 {
		log.Info("no pending project found", zap.String("status", cfg.PendingStatus))
		return nil, nil
	}

	record := pending[0]
	log = log.With(zap.String("project_id", record.ID))
	log.Info("selected project", zap.Int("pending", len(pending)))

	var project models.Project
	if err := record.Decode(&project); err != nil {
		return nil, p.fail(log, NewStageError(StageDecodeProject, record.ID, err))
	}
	recipients := []string(project.FormData.Header.MailAddresses)
	if len(recipients) == 0 {
		return nil, p.fail(log, NewStageError(StageDecodeProject, record.ID, ErrNoRecipient))
	}

	log.Info("fetching cell table", zap.String("collection", cfg.CellTableCollection))
	entries, err := p.cellTable(ctx)
	if err != nil {
		return nil, p.fail(log, NewStageError(StageFetchCellTable, record.ID, err))
	}

	log.Info("merging form data with cell table")
	cells := BuildCellValues(entries, project.FormData)
	log.Debug("cell values", zap.Any("cells", cells))

	log.Info("downloading template", zap.String("bucket", cfg.Bucket), zap.String("key", cfg.TemplateKey))
	template, err := p.Storage.Download(ctx, cfg.Bucket, cfg.TemplateKey)
	if err != nil {
		return nil, p.fail(log, NewStageError(StageDownloadTemplate, record.ID, err))
	}

	log.Info("writing form data into template", zap.Int("cells", len(cells)))
	populated, err := workbook.Fill(template, cfg.TemplateSheet, cells)
	if err != nil {
		return nil, p.fail(log, NewStageError(StageFillTemplate, record.ID, err))
	}

	result := &Result{
		ProjectID:  record.ID,
		Recipients: recipients,
		Cells:      cells,
		DryRun:     p.DryRun,
	}

	if p.DryRun {
		if p.Output != nil {
			if _, err := p.Output.Write(populated); err != nil {
				return nil, p.fail(log, NewStageError(StageWriteOutput, record.ID, err))
			}
		}
		log.Info("dry run: skipping email and status update")
		return result, nil
	}

	log.Info("sending email", zap.Strings("to", recipients))
	messageID, err := p.Mailer.Send(ctx, notify.Message{
		From:       cfg.Sender,
		To:         recipients,
		Subject:    cfg.Subject,
		Body:       cfg.Body,
		Attachment: populated,
		Filename:   cfg.AttachmentFilename(),
	})
	if err != nil {
		return nil, p.fail(log, NewStageError(StageSendEmail, record.ID, err))
	}
	result.MessageID = messageID
	log.Info("email sent", zap.String("message_id", messageID))

	if _, err := p.Records.UpdateStatus(ctx, cfg.ProjectsCollection, record.ID, cfg.ProcessedStatus); err != nil {
		return nil, p.fail(log, NewStageError(StageUpdateStatus, record.ID, err))
	}
	log.Info("record status updated", zap.String("status", cfg.ProcessedStatus))

	return result, nil
}

func (p *Pipeline) cellTable(ctx context.Context) ([]models.CellTableEntry, error) {
	recs, err := p.Records.GetFullList(ctx, p.Config.CellTableCollection)
	if err != nil {
		return nil, err
	}
	entries := make([]models.CellTableEntry, 0, len(recs))
	for _, r := range recs {
		var e models.CellTableEntry
		if err := r.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode cell table record %s: %w", r.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (p *Pipeline) fail(log *zap.Logger, err *StageError) error {
	log.Error("pipeline aborted", zap.String("stage", string(err.Stage)), zap.Error(err.Err))
	return err
}
