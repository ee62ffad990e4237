package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/fretline/fretline/pkg/jobs"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Server.DataDir = t.TempDir()
	cfg.Cache.Backend = BackendNull

	srv, err := New(context.Background(), cfg, log.NewWithOptions(io.Discard, log.Options{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func testMIDIBytes(t *testing.T) []byte {
	t.Helper()

	var tr smf.Track
	tr.Add(0, gomidi.NoteOn(0, 40, 100))
	tr.Add(960, gomidi.NoteOff(0, 40))
	tr.Add(0, gomidi.NoteOn(0, 64, 90))
	tr.Add(0, gomidi.NoteOn(0, 67, 90))
	tr.Add(960, gomidi.NoteOff(0, 64))
	tr.Add(0, gomidi.NoteOff(0, 67))
	tr.Close(0)

	s := smf.New()
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, ts *httptest.Server, filename string, data []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	resp, err := http.Post(ts.URL+"/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /upload: %v", err)
	}
	return resp
}

func decodeJob(t *testing.T, resp *http.Response) *jobs.Job {
	t.Helper()
	defer resp.Body.Close()

	var job jobs.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	return &job
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

// waitForStatus polls the status endpoint until the job reaches want or the
// deadline passes.
func waitForStatus(t *testing.T, ts *httptest.Server, id string, want jobs.Status) *jobs.Job {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/status/" + id)
		if err != nil {
			t.Fatalf("GET /status: %v", err)
		}
		job := decodeJob(t, resp)
		if job.Status == want {
			return job
		}
		if job.Status == jobs.StatusFailed && want != jobs.StatusFailed {
			t.Fatalf("job failed: %s", job.Error)
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, want)
	return nil
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestUploadTranscribeTabDownload(t *testing.T) {
	_, ts := newTestServer(t)

	resp := upload(t, ts, "riff.mid", testMIDIBytes(t))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d, want 201", resp.StatusCode)
	}
	job := decodeJob(t, resp)
	if job.Status != jobs.StatusUploaded {
		t.Fatalf("job status = %s, want uploaded", job.Status)
	}

	resp = post(t, ts.URL+"/transcribe/"+job.ID, "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("transcribe status = %d, want 202", resp.StatusCode)
	}
	resp.Body.Close()

	job = waitForStatus(t, ts, job.ID, jobs.StatusTranscribed)
	if job.Stats.NoteCount != 3 {
		t.Errorf("note count = %d, want 3", job.Stats.NoteCount)
	}

	resp = post(t, ts.URL+"/tab/"+job.ID, `{"formats":["txt","json"]}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("tab status = %d, want 202", resp.StatusCode)
	}
	resp.Body.Close()

	job = waitForStatus(t, ts, job.ID, jobs.StatusDone)
	if len(job.Artifacts) != 2 {
		t.Fatalf("artifacts = %v", job.Artifacts)
	}
	if job.Stats.Pages != 1 || job.Stats.Groups != 2 {
		t.Errorf("stats = %+v, want 2 groups on 1 page", job.Stats)
	}

	resp, err := http.Get(fmt.Sprintf("%s/download/%s/txt", ts.URL, job.ID))
	if err != nil {
		t.Fatalf("GET /download: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	content, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(content), "E2") {
		t.Errorf("download is not a tab sheet:\n%s", content)
	}
}

func TestNoteFreeMIDIProducesEmptyTab(t *testing.T) {
	_, ts := newTestServer(t)

	var tr smf.Track
	tr.Close(0)
	s := smf.New()
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	job := decodeJob(t, upload(t, ts, "silence.mid", buf.Bytes()))
	resp := post(t, ts.URL+"/transcribe/"+job.ID, "")
	resp.Body.Close()

	job = waitForStatus(t, ts, job.ID, jobs.StatusTranscribed)
	if job.Stats.NoteCount != 0 {
		t.Errorf("note count = %d, want 0", job.Stats.NoteCount)
	}

	resp = post(t, ts.URL+"/tab/"+job.ID, `{"formats":["json"]}`)
	resp.Body.Close()

	job = waitForStatus(t, ts, job.ID, jobs.StatusDone)
	if job.Stats.Pages != 0 || job.Stats.Groups != 0 {
		t.Errorf("stats = %+v, want empty tab", job.Stats)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	_, ts := newTestServer(t)

	resp := upload(t, ts, "notes.txt", []byte("not music"))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestUploadRejectsAudioWithoutTranscriber(t *testing.T) {
	_, ts := newTestServer(t)

	resp := upload(t, ts, "riff.wav", []byte("RIFF...."))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415 (no transcriber configured)", resp.StatusCode)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status/nope")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if e.Code != "JOB_NOT_FOUND" {
		t.Errorf("code = %q, want JOB_NOT_FOUND", e.Code)
	}
}

func TestTranscribeConflict(t *testing.T) {
	_, ts := newTestServer(t)

	job := decodeJob(t, upload(t, ts, "riff.mid", testMIDIBytes(t)))
	resp := post(t, ts.URL+"/transcribe/"+job.ID, "")
	resp.Body.Close()
	waitForStatus(t, ts, job.ID, jobs.StatusTranscribed)

	resp = post(t, ts.URL+"/transcribe/"+job.ID, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second transcribe status = %d, want 409", resp.StatusCode)
	}
}

func TestTabRejectsBadOptionsSynchronously(t *testing.T) {
	_, ts := newTestServer(t)

	job := decodeJob(t, upload(t, ts, "riff.mid", testMIDIBytes(t)))
	resp := post(t, ts.URL+"/transcribe/"+job.ID, "")
	resp.Body.Close()
	waitForStatus(t, ts, job.ID, jobs.StatusTranscribed)

	resp = post(t, ts.URL+"/tab/"+job.ID, `{"formats":["docx"]}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	// The failed request must not consume the transcribed state.
	job = waitForStatus(t, ts, job.ID, jobs.StatusTranscribed)
	if job.Status != jobs.StatusTranscribed {
		t.Errorf("status = %s, want transcribed", job.Status)
	}
}

func TestDownloadBeforeRender(t *testing.T) {
	_, ts := newTestServer(t)

	job := decodeJob(t, upload(t, ts, "riff.mid", testMIDIBytes(t)))
	resp, err := http.Get(fmt.Sprintf("%s/download/%s/txt", ts.URL, job.ID))
	if err != nil {
		t.Fatalf("GET /download: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDownloadInvalidFormat(t *testing.T) {
	_, ts := newTestServer(t)

	job := decodeJob(t, upload(t, ts, "riff.mid", testMIDIBytes(t)))
	resp, err := http.Get(fmt.Sprintf("%s/download/%s/docx", ts.URL, job.ID))
	if err != nil {
		t.Fatalf("GET /download: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListAndDelete(t *testing.T) {
	_, ts := newTestServer(t)

	job := decodeJob(t, upload(t, ts, "riff.mid", testMIDIBytes(t)))

	resp, err := http.Get(ts.URL + "/jobs")
	if err != nil {
		t.Fatalf("GET /jobs: %v", err)
	}
	var list struct {
		Jobs []*jobs.Job `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if len(list.Jobs) != 1 || list.Jobs[0].ID != job.ID {
		t.Fatalf("list = %+v", list.Jobs)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/jobs/"+job.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /jobs: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}

	resp, _ = http.Get(ts.URL + "/status/" + job.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", resp.StatusCode)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.toml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Jobs.Backend != BackendMemory {
		t.Errorf("defaults = %+v", cfg)
	}
}
