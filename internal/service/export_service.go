package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/export"
)

// ExportJob is one render in flight. The snapshot it renders was taken when
// the job started, so later roster changes do not affect it.
type ExportJob struct {
	ID          uuid.UUID
	SetID       string
	ContentType string
	done        chan struct{}
	data        []byte
	err         error
}

// Done is closed when rendering finishes.
func (j *ExportJob) Done() <-chan struct{} {
	return j.done
}

// Result returns the rendered bytes. It is only valid after Done is closed.
func (j *ExportJob) Result() ([]byte, error) {
	return j.data, j.err
}

// Wait blocks until the job finishes or ctx is done.
func (j *ExportJob) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-j.done:
		return j.data, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type ExportService struct {
	roster   *RosterService
	lookup   export.CharacterLookup
	renderer export.Renderer
	timeout  time.Duration
	log      logrus.FieldLogger
}

func NewExportService(roster *RosterService, lookup export.CharacterLookup, renderer export.Renderer, timeout time.Duration, log logrus.FieldLogger) *ExportService {
	if log == nil {
		log = logrus.New()
	}
	return &ExportService{roster: roster, lookup: lookup, renderer: renderer, timeout: timeout, log: log}
}

// Start snapshots a team set and renders it in the background. Rendering
// failures are reported through the job and never touch the roster.
func (s *ExportService) Start(ctx context.Context, setID string) (*ExportJob, error) {
	snap, err := s.roster.Snapshot(setID)
	if err != nil {
		return nil, err
	}
	view := export.NewView(snap, s.lookup)

	job := &ExportJob{
		ID:          uuid.New(),
		SetID:       snap.ID,
		ContentType: s.renderer.ContentType(),
		done:        make(chan struct{}),
	}

	renderCtx := context.WithoutCancel(ctx)
	cancel := context.CancelFunc(func() {})
	if s.timeout > 0 {
		renderCtx, cancel = context.WithTimeout(renderCtx, s.timeout)
	}

	go func() {
		defer close(job.done)
		defer cancel()

		job.data, job.err = s.renderer.Render(renderCtx, view)
		log := s.log.WithFields(logrus.Fields{"job": job.ID, "set": job.SetID})
		if job.err != nil {
			log.WithError(job.err).Warn("export failed")
			return
		}
		log.WithField("bytes", len(job.data)).Debug("export finished")
	}()
	return job, nil
}

// Export starts a job and waits for it.
func (s *ExportService) Export(ctx context.Context, setID string) ([]byte, string, error) {
	job, err := s.Start(ctx, setID)
	if err != nil {
		return nil, "", err
	}
	data, err := job.Wait(ctx)
	return data, job.ContentType, err
}

// View returns the snapshot view of a team set without rendering it.
func (s *ExportService) View(setID string) (export.TeamSetView, error) {
	snap, err := s.roster.Snapshot(setID)
	if err != nil {
		return export.TeamSetView{}, err
	}
	return export.NewView(snap, s.lookup), nil
}
