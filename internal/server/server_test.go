package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/config"
	"documind/internal/domain"
)

type fakeQA struct {
	ingested   []string
	ingestErr  map[string]error
	queryRes   domain.QueryResult
	queryErr   error
	lastTopK   int
	lastQuery  string
	chunkCount int
}

func (f *fakeQA) Ingest(_ context.Context, path, filename string) (domain.Document, error) {
	if err := f.ingestErr[filename]; err != nil {
		return domain.Document{}, err
	}
	f.ingested = append(f.ingested, filename)
	return domain.Document{ID: "doc-" + filename, Filename: filename, StoragePath: path, ChunkCount: f.chunkCount}, nil
}

func (f *fakeQA) Query(_ context.Context, question string, topK int) (domain.QueryResult, error) {
	f.lastQuery = question
	f.lastTopK = topK
	return f.queryRes, f.queryErr
}

func newTestServer(t *testing.T, qa QAPort) *Server {
	t.Helper()
	cfg := config.ServerConfig{UploadDir: t.TempDir(), MaxUploadMB: 10}
	return New(qa, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeQA{})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadOne(t *testing.T) {
	t.Run("Stores the file and reports chunk count", func(t *testing.T) {
		qa := &fakeQA{chunkCount: 4}
		srv := newTestServer(t, qa)

		body, contentType := multipartBody(t, "file", map[string]string{"report.txt": "document body"})
		req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp uploadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "report.txt", resp.Filename)
		assert.Equal(t, 4, resp.NumChunks)
		assert.Equal(t, []string{"report.txt"}, qa.ingested)
	})

	t.Run("Missing file field is a 400", func(t *testing.T) {
		srv := newTestServer(t, &fakeQA{})
		body, contentType := multipartBody(t, "wrong_field", map[string]string{"x.txt": "y"})
		req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		srv := newTestServer(t, &fakeQA{})
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload_pdf", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("Body over the configured limit is a 413", func(t *testing.T) {
		qa := &fakeQA{}
		cfg := config.ServerConfig{UploadDir: t.TempDir(), MaxUploadMB: 1}
		srv := New(qa, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

		huge := strings.Repeat("x", 2<<20)
		body, contentType := multipartBody(t, "file", map[string]string{"huge.txt": huge})
		req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Empty(t, qa.ingested, "oversized upload must not reach ingestion")
	})
}

func TestUploadMany(t *testing.T) {
	t.Run("Per-file failures do not abort the batch", func(t *testing.T) {
		qa := &fakeQA{
			chunkCount: 2,
			ingestErr:  map[string]error{"bad.txt": errors.New("unreadable")},
		}
		srv := newTestServer(t, qa)

		body, contentType := multipartBody(t, "files", map[string]string{
			"good.txt": "fine",
			"bad.txt":  "broken",
		})
		req := httptest.NewRequest(http.MethodPost, "/upload_pdfs", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Uploaded []uploadResponse `json:"uploaded"`
			Failed   []uploadFailure  `json:"failed"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Uploaded, 1)
		require.Len(t, resp.Failed, 1)
		assert.Equal(t, "good.txt", resp.Uploaded[0].Filename)
		assert.Equal(t, "bad.txt", resp.Failed[0].Filename)
	})
}

func TestQueryEndpoint(t *testing.T) {
	postForm := func(srv *Server, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		return rec
	}

	t.Run("Returns the service result", func(t *testing.T) {
		qa := &fakeQA{queryRes: domain.QueryResult{
			Outcome:   domain.OutcomeAnswered,
			Answer:    "the answer",
			Citations: []domain.Citation{{Rank: 1, Source: "a.pdf (ID: doc-1)", Page: 2, Score: 0.1}},
		}}
		srv := newTestServer(t, qa)

		rec := postForm(srv, url.Values{"query": {"what is it"}, "top_k": {"3"}})
		require.Equal(t, http.StatusOK, rec.Code)

		var res domain.QueryResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, domain.OutcomeAnswered, res.Outcome)
		assert.Equal(t, "the answer", res.Answer)
		assert.Equal(t, 3, qa.lastTopK)
		assert.Equal(t, "what is it", qa.lastQuery)
	})

	t.Run("No-context outcome is still a 200", func(t *testing.T) {
		qa := &fakeQA{queryRes: domain.QueryResult{Outcome: domain.OutcomeNoContext, Citations: []domain.Citation{}}}
		srv := newTestServer(t, qa)

		rec := postForm(srv, url.Values{"query": {"unknown topic"}})
		require.Equal(t, http.StatusOK, rec.Code)

		var res domain.QueryResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, domain.OutcomeNoContext, res.Outcome)
		assert.Empty(t, res.Citations)
	})

	t.Run("Missing query is a 400", func(t *testing.T) {
		srv := newTestServer(t, &fakeQA{})
		rec := postForm(srv, url.Values{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Non-positive top_k is a 400", func(t *testing.T) {
		srv := newTestServer(t, &fakeQA{})
		rec := postForm(srv, url.Values{"query": {"q"}, "top_k": {"0"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Service error is a 500", func(t *testing.T) {
		qa := &fakeQA{queryErr: errors.New("dimension mismatch")}
		srv := newTestServer(t, qa)
		rec := postForm(srv, url.Values{"query": {"q"}})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
