package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSourceURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=tAP1eZYEuKA",
		"http://example.com/video.mp4",
		"  https://youtu.be/tAP1eZYEuKA  ",
	}
	for _, url := range valid {
		assert.NoError(t, ValidateSourceURL(url), "url: %q", url)
	}

	invalid := []string{
		"",
		"tAP1eZYEuKA",
		"ftp://example.com/video",
		"file:///etc/passwd",
		"https://",
	}
	for _, url := range invalid {
		assert.Error(t, ValidateSourceURL(url), "url: %q", url)
	}
}

func TestURLCacheKey(t *testing.T) {
	key := URLCacheKey("https://example.com/watch?v=abc")
	assert.Len(t, key, 12)

	// Stable for the same URL, including surrounding whitespace.
	assert.Equal(t, key, URLCacheKey(" https://example.com/watch?v=abc "))
	assert.NotEqual(t, key, URLCacheKey("https://example.com/watch?v=xyz"))
}

func TestPreviewText(t *testing.T) {
	assert.Equal(t, "short", PreviewText("short", 200))

	long := strings.Repeat("a", 250)
	preview := PreviewText(long, 200)
	assert.Len(t, preview, 203)
	assert.True(t, strings.HasSuffix(preview, "..."))

	exact := strings.Repeat("b", 200)
	assert.Equal(t, exact, PreviewText(exact, 200))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", TruncateRunes("short", 100))
	assert.Equal(t, "abc", TruncateRunes("abcdef", 3))

	// Multibyte runes are not split.
	truncated := TruncateRunes(strings.Repeat("ü", 10), 4)
	assert.Equal(t, "üüüü", truncated)
}

func TestMetadataCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	meta := &VideoMetadata{
		Title:       "Demo Video",
		Uploader:    "demo",
		Channel:     "Demo Channel",
		Duration:    321.5,
		Description: "a description",
	}

	require.NoError(t, SaveMetadata("abc123def456", meta, dir))

	loaded, err := LoadCachedMetadata("abc123def456", dir)
	require.NoError(t, err)
	assert.Equal(t, meta, loaded)
}

func TestLoadCachedMetadataMissing(t *testing.T) {
	_, err := LoadCachedMetadata("missing", t.TempDir())
	require.Error(t, err)
}
