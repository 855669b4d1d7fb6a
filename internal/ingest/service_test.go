package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/common"
	"github.com/joseph-ayodele/legal-intake/internal/extract"
	"github.com/joseph-ayodele/legal-intake/internal/jobs"
	"github.com/joseph-ayodele/legal-intake/internal/risk"
)

type fakeExtractor struct {
	text  string
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, data []byte, ext, _ string) extract.Result {
	f.calls++
	if f.text == "" {
		return extract.Result{Method: constants.UnsupportedMethod(ext), Warning: "nothing"}
	}
	return extract.Result{Text: f.text, Method: constants.MethodPlainText}
}

type fakeJobs struct {
	subs []jobs.Submission
	err  error
}

func (f *fakeJobs) Submit(_ context.Context, sub jobs.Submission) (jobs.Job, error) {
	if f.err != nil {
		return jobs.Job{}, f.err
	}
	f.subs = append(f.subs, sub)
	return jobs.Job{ID: "transcribe-job-1", Status: constants.JobStatusQueued}, nil
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func readSidecar(t *testing.T, path string) Outcome {
	t.Helper()
	b, err := os.ReadFile(path + SidecarSuffix)
	require.NoError(t, err)
	var out Outcome
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestHandleFile_Document(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "claim.txt", []byte("ignored"))
	fx := &fakeExtractor{text: "Претензия: штраф за просрочку, суд до 01.03.2026"}
	svc := NewService(fx, risk.NewService(nil), nil)

	out, err := svc.HandleFile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, constants.ClassText, out.Class)
	assert.Equal(t, constants.MethodPlainText, out.Method)
	require.NotNil(t, out.Analysis)
	assert.Equal(t, constants.LevelHigh, out.Analysis.Urgency)
	assert.Len(t, out.HashHex, 64)

	side := readSidecar(t, p)
	assert.Equal(t, out.HashHex, side.HashHex)
	require.NotNil(t, side.Analysis)
	assert.Equal(t, risk.EngineHeuristic, side.Analysis.Engine)
}

func TestHandleFile_EmptyExtractionKeepsWarning(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "scan.pdf", []byte("%PDF-1.4"))
	svc := NewService(&fakeExtractor{}, risk.NewService(nil), nil)

	out, err := svc.HandleFile(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrEmptyExtraction)
	assert.Nil(t, out.Analysis)
	assert.Equal(t, "nothing", out.Warning)
	assert.Equal(t, constants.Method("unsupported-pdf"), out.Method)

	side := readSidecar(t, p)
	assert.Contains(t, side.Err, "EMPTY_EXTRACTION")
	assert.Equal(t, "nothing", side.Warning)
}

func TestHandleFile_MediaIsQueued(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "call.m4a", []byte("audio"))
	fj := &fakeJobs{}
	fx := &fakeExtractor{}
	svc := NewService(fx, nil, nil, WithJobs(fj), WithOwner("ops"))

	out, err := svc.HandleFile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "transcribe-job-1", out.JobID)
	assert.Zero(t, fx.calls)
	require.Len(t, fj.subs, 1)
	assert.Equal(t, "ops", fj.subs[0].OwnerID)
	assert.Equal(t, "call.m4a", fj.subs[0].FileName)
	assert.Equal(t, "audio/mp4", fj.subs[0].MimeType)
}

func TestHandleFile_SubmitErrorWritesSidecar(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "call.mp3", []byte("audio"))
	limit := common.NewAppError("RATE_LIMITED", "slow down", common.ErrRateLimited)
	svc := NewService(&fakeExtractor{}, nil, nil, WithJobs(&fakeJobs{err: limit}))

	_, err := svc.HandleFile(context.Background(), p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRateLimited))
	assert.Contains(t, readSidecar(t, p).Err, "slow down")
}

func TestHandleFile_Rejections(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(&fakeExtractor{text: "x"}, nil, nil, WithMaxBytes(4))

	_, err := svc.HandleFile(context.Background(), writeFile(t, dir, "photo.png", []byte("png")))
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)

	_, err = svc.HandleFile(context.Background(), writeFile(t, dir, "big.txt", []byte("12345")))
	assert.ErrorIs(t, err, common.ErrPayloadTooLarge)
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("a"))
	writeFile(t, dir, "nested/b.md", []byte("b"))
	writeFile(t, dir, ".hidden/c.txt", []byte("c"))
	writeFile(t, dir, "image.png", []byte("d"))
	done := writeFile(t, dir, "done.txt", []byte("e"))
	writeFile(t, dir, "done.txt"+SidecarSuffix, []byte("{}"))

	fx := &fakeExtractor{text: "Обычный текст без рисков для проверки сканера"}
	svc := NewService(fx, risk.NewService(nil), nil)

	results, stats, err := svc.ScanDirectory(context.Background(), dir, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Matched)
	assert.EqualValues(t, 2, stats.Succeeded)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, fx.calls)
	assert.FileExists(t, filepath.Join(dir, "nested", "b.md"+SidecarSuffix))
	assert.NoFileExists(t, done+SidecarSuffix+".tmp")

	_, _, err = svc.ScanDirectory(context.Background(), " ", true)
	assert.Error(t, err)
}

func TestWatcher_EmitsNewFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, Debounce: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	writeFile(t, dir, "note.txt", []byte("hello"))
	writeFile(t, dir, "note.txt"+SidecarSuffix, []byte("{}"))
	writeFile(t, dir, "photo.png", []byte("png"))

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(dir, "note.txt"), p)
	case <-time.After(3 * time.Second):
		t.Fatal("no event")
	}

	cancel()
	for range events {
	}
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible("/in/a.PDF"))
	assert.True(t, Eligible("/in/call.webm"))
	assert.False(t, Eligible("/in/a.pdf"+SidecarSuffix))
	assert.False(t, Eligible("/in/.a.pdf"))
	assert.False(t, Eligible("/in/a.png"))
}
