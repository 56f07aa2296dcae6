package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-advisor/internal/api/handler"
	"resume-advisor/internal/config"
	"resume-advisor/internal/parser"
	"resume-advisor/internal/processor"
)

const routerResume = `Jane Doe
jane.doe@example.com | (555) 123-4567

Skills
Python, Go, Docker, Kubernetes, SQL

Experience
Senior Software Engineer at Acme Corp, 2019 - 2023
- Improved API latency by 40%

Education
Bachelor of Science, Stanford University
`

func newTestEngine(t *testing.T, auth config.AuthConfig) *server.Hertz {
	t.Helper()
	dispatcher, err := parser.NewDispatcher(context.Background())
	require.NoError(t, err)

	svc := processor.NewAnalysisService(
		[]processor.ComponentOpt{
			processor.WithcompAnalyzer(processor.NewResumeAnalyzer()),
			processor.WithcompExtractor(dispatcher),
		},
		[]processor.SettingOpt{processor.WithsetMaxUploadBytes(64 << 10)},
		nil,
	)
	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	RegisterRoutes(h, handler.NewAnalysisHandler(svc, nil), auth)
	return h
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decode(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestEngine(t, config.AuthConfig{})

	w := ut.PerformRequest(h.Engine, "GET", "/health", nil)
	resp := w.Result()
	assert.Equal(t, 200, resp.StatusCode())
	assert.Equal(t, "ok", decode(t, resp.Body())["status"])
	assert.NotEmpty(t, string(resp.Header.Peek(RequestIDHeader)))

	w = ut.PerformRequest(h.Engine, "GET", "/health", nil, ut.Header{Key: RequestIDHeader, Value: "req-42"})
	assert.Equal(t, "req-42", string(w.Result().Header.Peek(RequestIDHeader)))
}

func TestJobCategories(t *testing.T) {
	h := newTestEngine(t, config.AuthConfig{})

	w := ut.PerformRequest(h.Engine, "GET", "/api/v1/job-categories", nil)
	require.Equal(t, 200, w.Result().StatusCode())
	cats, ok := decode(t, w.Result().Body())["job_categories"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, cats)
}

func TestAnalyzeText(t *testing.T) {
	h := newTestEngine(t, config.AuthConfig{})

	payload, err := json.Marshal(map[string]string{"resume_text": routerResume, "job_category": "Software Engineer"})
	require.NoError(t, err)
	w := ut.PerformRequest(h.Engine, "POST", "/api/v1/analyze/text",
		&ut.Body{Body: bytes.NewReader(payload), Len: len(payload)},
		ut.Header{Key: "Content-Type", Value: "application/json"})

	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode(), string(resp.Body()))
	out := decode(t, resp.Body())
	assert.Equal(t, "local", out["source"])
	assert.Equal(t, "Software Engineer", out["job_category"])
	assert.Equal(t, out["overall_score"], out["report_score"])
	assert.Contains(t, out, "score_components")
	assert.Contains(t, out["report"], "## QUICK SUMMARY (TL;DR)")
	sections, ok := out["sections"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, sections, "quick_summary")
	assert.Contains(t, out["text_preview"], "Jane Doe")
}

func TestAnalyzeText_Errors(t *testing.T) {
	h := newTestEngine(t, config.AuthConfig{})

	empty := []byte(`{"resume_text":"   ","job_category":"Software Engineer"}`)
	w := ut.PerformRequest(h.Engine, "POST", "/api/v1/analyze/text",
		&ut.Body{Body: bytes.NewReader(empty), Len: len(empty)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	assert.Equal(t, 422, w.Result().StatusCode())
	assert.Contains(t, decode(t, w.Result().Body()), "error")

	bad := []byte(`{not json`)
	w = ut.PerformRequest(h.Engine, "POST", "/api/v1/analyze/text",
		&ut.Body{Body: bytes.NewReader(bad), Len: len(bad)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	assert.Equal(t, 400, w.Result().StatusCode())
}

func TestAnalyzeUpload(t *testing.T) {
	h := newTestEngine(t, config.AuthConfig{})

	body, contentType := multipartBody(t, "resume.txt", []byte(routerResume), map[string]string{"job_category": "Data Scientist"})
	w := ut.PerformRequest(h.Engine, "POST", "/api/v1/analyze/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})

	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode(), string(resp.Body()))
	out := decode(t, resp.Body())
	assert.Equal(t, "Data Scientist", out["job_category"])
	assert.Contains(t, out["text_preview"], "Jane Doe")
}

func TestAnalyzeUpload_Rejected(t *testing.T) {
	h := newTestEngine(t, config.AuthConfig{})

	body, contentType := multipartBody(t, "blank.txt", []byte("   \n  "), nil)
	w := ut.PerformRequest(h.Engine, "POST", "/api/v1/analyze/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	assert.Equal(t, 422, w.Result().StatusCode())

	body, contentType = multipartBody(t, "archive.bin", []byte{0xff, 0xfe, 0x00, 0x81}, nil)
	w = ut.PerformRequest(h.Engine, "POST", "/api/v1/analyze/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	assert.Equal(t, 400, w.Result().StatusCode())

	big := bytes.Repeat([]byte("a"), 65<<10)
	body, contentType = multipartBody(t, "big.txt", big, nil)
	w = ut.PerformRequest(h.Engine, "POST", "/api/v1/analyze/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	assert.Equal(t, 400, w.Result().StatusCode())
}

func TestSubmissionsUnavailableWithoutStorage(t *testing.T) {
	h := newTestEngine(t, config.AuthConfig{})

	body, contentType := multipartBody(t, "resume.txt", []byte(routerResume), nil)
	w := ut.PerformRequest(h.Engine, "POST", "/api/v1/submissions",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	assert.Equal(t, 503, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "GET", "/api/v1/submissions/0190b1d2-0000-7000-8000-000000000000", nil)
	assert.Equal(t, 503, w.Result().StatusCode())
}

func TestAPIKeyAuth(t *testing.T) {
	h := newTestEngine(t, config.AuthConfig{APIKeys: []string{"secret-key"}, Header: "X-API-Key"})

	w := ut.PerformRequest(h.Engine, "GET", "/api/v1/job-categories", nil)
	assert.Equal(t, 401, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "GET", "/api/v1/job-categories", nil, ut.Header{Key: "X-API-Key", Value: "wrong"})
	assert.Equal(t, 401, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "GET", "/api/v1/job-categories", nil, ut.Header{Key: "X-API-Key", Value: "secret-key"})
	assert.Equal(t, 200, w.Result().StatusCode())

	// 健康检查不需要鉴权
	w = ut.PerformRequest(h.Engine, "GET", "/health", nil)
	assert.Equal(t, 200, w.Result().StatusCode())
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	assert.Nil(t, APIKeyAuth(config.AuthConfig{}))
	assert.Nil(t, APIKeyAuth(config.AuthConfig{APIKeys: []string{""}}))
	assert.NotNil(t, APIKeyAuth(config.AuthConfig{APIKeys: []string{"k"}}))
}
