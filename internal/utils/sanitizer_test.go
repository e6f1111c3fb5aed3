package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePlainText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  hello  ", "hello"},
		{"<b>bold</b> text", "bold text"},
		{"<script>alert(1)</script>ok", "ok"},
		{"a < b && c > d", "a < b && c > d"},
		{"<p></p>", ""},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, SanitizePlainText(test.input), "input %q", test.input)
	}
}

func TestSanitizeHTML(t *testing.T) {
	out := SanitizeHTML(`<a href="https://example.com" onclick="x()">link</a><script>bad()</script>`)
	assert.Contains(t, out, `href="https://example.com"`)
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "script")
	assert.Equal(t, "", SanitizeHTML(""))
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Title\n\nSolve **x** for <script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<strong>x</strong>")
	assert.False(t, strings.Contains(out, "<script>"))

	empty, err := RenderMarkdown("   ")
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}
