package api

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fretline/fretline/pkg/errors"
	notesio "github.com/fretline/fretline/pkg/io"
	"github.com/fretline/fretline/pkg/jobs"
	"github.com/fretline/fretline/pkg/pipeline"
	"github.com/fretline/fretline/pkg/tab"
	"github.com/fretline/fretline/pkg/transcribe"
)

// workerTimeout bounds one background conversion, transcription included.
const workerTimeout = 10 * time.Minute

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error codes to HTTP statuses and writes the JSON envelope.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidTuning,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidAudio,
		errors.ErrCodeInvalidLayout:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeJobNotFound, errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnsupported:
		status = http.StatusUnsupportedMediaType
	case errors.ErrCodeTranscribe:
		status = http.StatusUnprocessableEntity
	case errors.ErrCodeNetwork:
		status = http.StatusBadGateway
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: string(code)})
}

// writeConflict reports an illegal job state transition.
func writeConflict(w http.ResponseWriter, job *jobs.Job, want jobs.Status) {
	writeJSON(w, http.StatusConflict, errorResponse{
		Error: fmt.Sprintf("job %s is %s, cannot move to %s", job.ID, job.Status, want),
		Code:  "CONFLICT",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload accepts a multipart upload and creates a job in the uploaded
// state. The file is kept on disk under the job's directory.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.UploadLimit())
	if err := r.ParseMultipartForm(s.cfg.UploadLimit()); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err,
			"upload must be multipart form data under %d MB", s.cfg.Server.UploadLimitMB))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, `missing "file" form field`))
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !transcribe.Supported(filename) {
		writeError(w, errors.New(errors.ErrCodeUnsupported,
			"unsupported file type %q (want .mid, .midi, .wav, .mp3, or .flac)", filename))
		return
	}
	if !transcribe.IsMIDI(filename) && s.remote == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported,
			"audio transcription is not configured, upload a MIDI file"))
		return
	}

	job := jobs.New(uuid.NewString(), filename)
	if err := os.MkdirAll(s.jobDir(job.ID), 0o755); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "create job dir"))
		return
	}
	dst, err := os.Create(s.sourcePath(job))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store upload"))
		return
	}
	if _, err := dst.ReadFrom(file); err != nil {
		dst.Close()
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store upload"))
		return
	}
	dst.Close()

	if err := s.store.Create(r.Context(), job); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("upload accepted", "job", job.ID, "filename", filename)
	writeJSON(w, http.StatusCreated, job)
}

// handleTranscribe moves an uploaded job to transcribing and extracts notes
// on a worker goroutine.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !job.Status.CanTransition(jobs.StatusTranscribing) {
		writeConflict(w, job, jobs.StatusTranscribing)
		return
	}
	job.SetStatus(jobs.StatusTranscribing)
	if err := s.store.Update(r.Context(), job); err != nil {
		writeError(w, err)
		return
	}

	go s.runTranscribe(job)
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) runTranscribe(job *jobs.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
	defer cancel()

	notes, err := s.transcribeSource(ctx, job)
	if err != nil {
		s.failJob(ctx, job, err)
		return
	}

	doc := notesio.Document{Source: job.Filename, Notes: notes}
	if err := notesio.ExportJSON(doc, s.notesPath(job.ID)); err != nil {
		s.failJob(ctx, job, err)
		return
	}

	duration := 0.0
	for _, n := range notes {
		if n.End > duration {
			duration = n.End
		}
	}
	job.Stats.NoteCount = len(notes)
	job.Stats.Duration = duration
	job.SetStatus(jobs.StatusTranscribed)
	if err := s.store.Update(ctx, job); err != nil {
		s.logger.Error("update job after transcribe", "job", job.ID, "err", err)
		return
	}
	s.logger.Info("transcribed", "job", job.ID, "notes", len(notes))
}

func (s *Server) transcribeSource(ctx context.Context, job *jobs.Job) ([]tab.Note, error) {
	data, err := os.ReadFile(s.sourcePath(job))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read upload for job %s", job.ID)
	}
	if transcribe.IsMIDI(job.Filename) {
		return s.midi.Transcribe(ctx, data, job.Filename)
	}
	if s.remote == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "audio transcription is not configured")
	}
	return s.remote.Transcribe(ctx, data, job.Filename)
}

// handleTab moves a transcribed job to rendering and runs the conversion
// pipeline on a worker goroutine. The request body is a pipeline.Options
// document; zero values fall back to the server's configured defaults.
func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !job.Status.CanTransition(jobs.StatusRendering) {
		writeConflict(w, job, jobs.StatusRendering)
		return
	}

	var opts pipeline.Options
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse request body"))
			return
		}
	}
	if len(opts.Tuning) == 0 {
		opts.Tuning = s.cfg.Defaults.Tuning
	}
	if opts.MaxFret == 0 {
		opts.MaxFret = s.cfg.Defaults.MaxFret
	}
	if opts.Title == "" {
		opts.Title = strings.TrimSuffix(job.Filename, filepath.Ext(job.Filename))
	}
	// Fail fast on bad options; only the rendering itself is asynchronous.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}

	job.SetStatus(jobs.StatusRendering)
	if err := s.store.Update(r.Context(), job); err != nil {
		writeError(w, err)
		return
	}

	go s.runTab(job, opts)
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) runTab(job *jobs.Job, opts pipeline.Options) {
	ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
	defer cancel()

	doc, err := notesio.ImportJSON(s.notesPath(job.ID))
	if err != nil {
		s.failJob(ctx, job, err)
		return
	}

	result, err := s.runner.Execute(ctx, doc.Notes, opts)
	if err != nil {
		s.failJob(ctx, job, err)
		return
	}

	if job.Artifacts == nil {
		job.Artifacts = map[string]string{}
	}
	for format, content := range result.Artifacts {
		path := filepath.Join(s.jobDir(job.ID), "tab."+format)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			s.failJob(ctx, job, errors.Wrap(errors.ErrCodeInternal, err, "store %s artifact", format))
			return
		}
		job.Artifacts[format] = path
	}

	job.Stats.NoteCount = result.Arrangement.TotalNotes
	job.Stats.Dropped = result.Arrangement.Dropped
	job.Stats.Groups = len(result.Arrangement.Groups)
	job.Stats.Pages = len(result.Pages)
	job.Stats.Duration = result.Arrangement.Duration
	job.Stats.FromCache = result.CacheInfo.ArrangeHit && result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit
	job.SetStatus(jobs.StatusDone)
	if err := s.store.Update(ctx, job); err != nil {
		s.logger.Error("update job after render", "job", job.ID, "err", err)
		return
	}
	s.logger.Info("rendered", "job", job.ID, "formats", len(result.Artifacts))
}

func (s *Server) failJob(ctx context.Context, job *jobs.Job, cause error) {
	s.logger.Error("job failed", "job", job.ID, "err", cause)
	job.Fail(errors.UserMessage(cause))
	if err := s.store.Update(ctx, job); err != nil {
		s.logger.Error("record job failure", "job", job.ID, "err", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// contentTypes for artifact downloads.
var contentTypes = map[string]string{
	pipeline.FormatText: "text/plain; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	job, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	path, ok := job.Artifacts[format]
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound,
			"no %s artifact for job %s (status %s)", format, job.ID, job.Status))
		return
	}

	name := strings.TrimSuffix(job.Filename, filepath.Ext(job.Filename)) + "." + format
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeFile(w, r, path)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": list})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if err := os.RemoveAll(s.jobDir(id)); err != nil {
		s.logger.Warn("remove job dir", "job", id, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) jobDir(id string) string {
	return filepath.Join(s.cfg.Server.DataDir, id)
}

func (s *Server) sourcePath(job *jobs.Job) string {
	return filepath.Join(s.jobDir(job.ID), "source"+strings.ToLower(filepath.Ext(job.Filename)))
}

func (s *Server) notesPath(id string) string {
	return filepath.Join(s.jobDir(id), "notes.json")
}
