package service

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-projects/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Course{}, &models.ProjectSubmission{}))
	return db
}

type memoryUploader struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (u *memoryUploader) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.files == nil {
		u.files = map[string][]byte{}
	}
	u.files[name] = data
	return "/uploads/" + name, nil
}

func (u *memoryUploader) stored(name string) []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.files[name]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []EvaluationEvent
}

func (p *recordingPublisher) PublishEvaluation(_ context.Context, event EvaluationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []EvaluationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]EvaluationEvent(nil), p.events...)
}

// fileHeader round-trips content through a multipart form so the header
// behaves like one parsed from a request.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}

func zipArchive(t *testing.T) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	archive := zip.NewWriter(buf)
	entry, err := archive.Create("main.go")
	require.NoError(t, err)
	_, err = entry.Write([]byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	require.NoError(t, archive.Close())
	return buf.Bytes()
}
