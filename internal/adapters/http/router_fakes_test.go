package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/compliance-reviewer/internal/config"
	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/usecase"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/extractor"
)

type storageFake struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newStorageFake() *storageFake {
	return &storageFake{files: map[string][]byte{}}
}

func (s *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[s.Path(key)] = raw
	return nil
}

func (s *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.files[s.Path(key)]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *storageFake) Path(key string) string {
	return "mem/" + key
}

// Extract reads stored bytes back as text, so intake sees the uploaded body.
func (s *storageFake) Extract(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.files[path]
	if !ok {
		return "", errors.New("missing " + path)
	}
	return string(raw), nil
}

type documentsFake struct {
	mu   sync.Mutex
	docs map[string]domain.Document
	err  error
}

func newDocumentsFake(docs ...domain.Document) *documentsFake {
	f := &documentsFake{docs: map[string]domain.Document{}}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *documentsFake) Create(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = *doc
	return nil
}

func (f *documentsFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("id="+id))
	}
	return &doc, nil
}

type reviewsFake struct {
	mu      sync.Mutex
	reviews map[string]domain.ReviewResult
}

func newReviewsFake(results ...domain.ReviewResult) *reviewsFake {
	f := &reviewsFake{reviews: map[string]domain.ReviewResult{}}
	for _, r := range results {
		f.reviews[r.ID] = r
	}
	return f
}

func (f *reviewsFake) RecordReview(_ context.Context, result *domain.ReviewResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews[result.ID] = *result
	return nil
}

func (f *reviewsFake) GetByID(_ context.Context, id string) (*domain.ReviewResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.reviews[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrReviewNotFound, "get review", errors.New("id="+id))
	}
	return &result, nil
}

type jobsFake struct {
	mu        sync.Mutex
	jobs      []domain.ReviewJob
	recorder  *reviewsFake
	err       error
	recordErr error
}

func (f *jobsFake) Run(ctx context.Context, job domain.ReviewJob) (*domain.ReviewResult, error) {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()

	result := domain.EmptyReview(job.DocumentName)
	result.ID = job.ReviewID
	result.DocumentID = job.DocumentID
	result.CreatedAt = time.Now().UTC()
	if f.err != nil {
		result.Error = f.err.Error()
	} else {
		result.Issues = []domain.Issue{{Section: "Clause 3", Issue: "Wrong court", Severity: domain.SeverityHigh, MatchText: "UAE Federal Courts"}}
		result.IssueCount = 1
	}
	if f.recordErr != nil {
		return result, domain.WrapError(domain.ErrRecordReview, "record review", f.recordErr)
	}
	if f.recorder != nil {
		_ = f.recorder.RecordReview(ctx, result)
	}
	return result, f.err
}

type queueFake struct {
	mu        sync.Mutex
	published []domain.ReviewJob
	err       error
}

func (f *queueFake) PublishReviewRequested(_ context.Context, job domain.ReviewJob) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, job)
	return nil
}

func (f *queueFake) SubscribeReviewRequested(context.Context, func(context.Context, domain.ReviewJob) error) error {
	return nil
}

type reportsFake struct {
	process *domain.ProcessDetectionResult
	results []domain.ReviewResult
}

func (f *reportsFake) WriteReport(w io.Writer, process *domain.ProcessDetectionResult, results []domain.ReviewResult) error {
	f.process = process
	f.results = results
	_, err := io.WriteString(w, "PK-workbook")
	return err
}

type referenceFake struct {
	path   string
	chunks int
	err    error
}

func (f *referenceFake) Ingest(_ context.Context, path string) (int, error) {
	f.path = path
	return f.chunks, f.err
}

type qaFake struct {
	question string
	limit    int
	err      error
}

func (f *qaFake) Ask(_ context.Context, question string, limit int) (*domain.Answer, error) {
	f.question = question
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Answer{Text: "ADGM Courts", Sources: []domain.Passage{{Source: "regs.txt", Text: "ADGM Courts have jurisdiction"}}}, nil
}

// newTestDependencies wires fakes around the real classifier and checklist
// engine.
func newTestDependencies() Dependencies {
	storage := newStorageFake()
	classifier := usecase.NewKeywordClassifier(nil)
	checklists := usecase.NewChecklistEngine(nil)
	reviews := newReviewsFake()
	return Dependencies{
		Formats:    extractor.NewRegistry(),
		Uploads:    usecase.NewUploadUseCase(storage),
		Documents:  newDocumentsFake(),
		Reviews:    reviews,
		Intake:     usecase.NewIntakeUseCase(storage, classifier, checklists),
		Classifier: classifier,
		Checklists: checklists,
		Jobs:       &jobsFake{recorder: reviews},
		Queue:      &queueFake{},
		Reports:    &reportsFake{},
		Reference:  &referenceFake{chunks: 4},
		QA:         &qaFake{},
	}
}

func newTestHandler(cfg config.Config) http.Handler {
	return NewRouter(cfg, newTestDependencies()).Handler()
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := writer.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
