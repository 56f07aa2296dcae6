package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor 返回固定结果并记录调用次数
type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) ExtractTextFromBytes(_ context.Context, _ []byte, _ string, extraMeta map[string]interface{}) (string, map[string]interface{}, error) {
	s.calls++
	return s.text, extraMeta, s.err
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		want        FileKind
	}{
		{"pdf扩展名", "cv.PDF", "", nil, KindPDF},
		{"docx扩展名", "cv.docx", "", nil, KindDOCX},
		{"htm扩展名", "profile.htm", "", nil, KindHTML},
		{"markdown扩展名", "cv.md", "", nil, KindText},
		{"按Content-Type", "upload", "application/pdf", nil, KindPDF},
		{"带参数的Content-Type", "upload", "text/plain; charset=utf-8", []byte("x"), KindText},
		{"PDF文件头", "blob", "application/octet-stream", []byte("%PDF-1.7\n..."), KindPDF},
		{"ZIP文件头", "blob", "", []byte("PK\x03\x04rest"), KindDOCX},
		{"HTML文件头", "blob", "", []byte("  <!DOCTYPE html><html></html>"), KindHTML},
		{"UTF-8文本", "blob", "", []byte("Jane Doe\nEngineer"), KindText},
		{"二进制", "blob", "", []byte{0xff, 0xfe, 0x00, 0x81}, KindUnknown},
		{"空内容", "blob", "", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.filename, tt.contentType, tt.data))
		})
	}
}

func TestDispatcher_PDFFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("主提取器成功时不调用兜底", func(t *testing.T) {
		primary := &stubExtractor{text: "Jane Doe"}
		fallback := &stubExtractor{text: "unused"}
		d, err := NewDispatcher(ctx, WithPDFExtractor(primary), WithPDFFallbackExtractor(fallback))
		require.NoError(t, err)

		text, meta, err := d.Extract(ctx, []byte("%PDF-1.4"), "cv.pdf", "")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", text)
		assert.Equal(t, "pdf", meta["file_kind"])
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("主提取器出错时使用兜底", func(t *testing.T) {
		primary := &stubExtractor{err: errors.New("boom")}
		fallback := &stubExtractor{text: "page one\n\npage two"}
		d, err := NewDispatcher(ctx, WithPDFExtractor(primary), WithPDFFallbackExtractor(fallback))
		require.NoError(t, err)

		text, _, err := d.Extract(ctx, []byte("%PDF-1.4"), "cv.pdf", "")
		require.NoError(t, err)
		assert.Equal(t, "page one\n\npage two", text)
		assert.Equal(t, 1, fallback.calls)
	})

	t.Run("主提取器文本为空时使用兜底", func(t *testing.T) {
		primary := &stubExtractor{text: "  \n "}
		fallback := &stubExtractor{text: "recovered"}
		d, err := NewDispatcher(ctx, WithPDFExtractor(primary), WithPDFFallbackExtractor(fallback))
		require.NoError(t, err)

		text, _, err := d.Extract(ctx, []byte("%PDF-1.4"), "cv.pdf", "")
		require.NoError(t, err)
		assert.Equal(t, "recovered", text)
	})

	t.Run("两者都失败时返回错误", func(t *testing.T) {
		primary := &stubExtractor{err: errors.New("primary failed")}
		fallback := &stubExtractor{err: errors.New("fallback failed")}
		d, err := NewDispatcher(ctx, WithPDFExtractor(primary), WithPDFFallbackExtractor(fallback))
		require.NoError(t, err)

		_, _, err = d.Extract(ctx, []byte("%PDF-1.4"), "cv.pdf", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "primary failed")
	})

	t.Run("都没有文本时返回空文本而不是错误", func(t *testing.T) {
		primary := &stubExtractor{text: ""}
		fallback := &stubExtractor{err: errors.New("no pages")}
		d, err := NewDispatcher(ctx, WithPDFExtractor(primary), WithPDFFallbackExtractor(fallback))
		require.NoError(t, err)

		text, _, err := d.Extract(ctx, []byte("%PDF-1.4"), "scan.pdf", "")
		require.NoError(t, err)
		assert.Empty(t, text)
	})
}

func TestDispatcher_TextAndUnsupported(t *testing.T) {
	ctx := context.Background()
	d, err := NewDispatcher(ctx, WithPDFExtractor(&stubExtractor{}))
	require.NoError(t, err)

	text, meta, err := d.Extract(ctx, []byte("\uFEFFJane Doe\r\nSkills:\tGo\r\n\r\n"), "cv.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSkills:\tGo", text)
	assert.Equal(t, "text", meta["extractor"])

	_, _, err = d.Extract(ctx, []byte{0xff, 0xfe, 0x00, 0x81}, "blob.bin", "application/octet-stream")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"空", "", ""},
		{"仅空白", " \n\t ", ""},
		{"BOM和CRLF", "\uFEFFa\r\nb\rc", "a\nb\nc"},
		{"NUL", "a\x00b", "ab"},
		{"非法UTF-8", "a\xffb", "ab"},
		{"保留空行和制表符", "Education\n\nBSc\tMIT", "Education\n\nBSc\tMIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Skills:</w:t><w:tab/><w:t>Go &amp; Python</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	assert.Equal(t, "Jane Doe\nSkills:\tGo & Python\nLine one\nLine two", docxXMLToText(xml))
}

func TestDocxExtractor_InvalidBytes(t *testing.T) {
	_, _, err := NewDocxExtractor().ExtractTextFromBytes(context.Background(), []byte("PK\x03\x04garbage"), "cv.docx", nil)
	assert.Error(t, err)
}

func TestHTMLExtractor(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Jane Doe - Resume</title><style>.hidden{display:none}</style><script>trackVisitor()</script></head>
<body>
<nav>Home | Blog | Contact</nav>
<main>
<h1>Jane Doe</h1>
<h2>Experience</h2>
<ul><li>Worked on the billing platform</li><li>Improved latency by 40%</li></ul>
</main>
<footer>Copyright footer text</footer>
</body>
</html>`

	text, meta, err := NewHTMLExtractor().ExtractTextFromBytes(context.Background(), []byte(page), "cv.html", nil)
	require.NoError(t, err)

	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Experience")
	assert.Contains(t, text, "- Worked on the billing platform")
	assert.Contains(t, text, "Improved latency by 40%")
	assert.NotContains(t, text, "trackVisitor")
	assert.NotContains(t, text, "Home | Blog")
	assert.NotContains(t, text, "Copyright footer text")
	assert.Equal(t, "Jane Doe - Resume", meta["title"])
	assert.Equal(t, "html", meta["extractor"])
}
