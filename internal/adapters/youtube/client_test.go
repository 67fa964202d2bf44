package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t,
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		NormalizeURL("dQw4w9WgXcQ"))
	assert.Equal(t,
		"https://youtu.be/dQw4w9WgXcQ",
		NormalizeURL(" https://youtu.be/dQw4w9WgXcQ "))
}

func TestFormatUploadDate(t *testing.T) {
	assert.Equal(t, "2024-03-01", formatUploadDate("20240301"))
	assert.Equal(t, "2024-03-01", formatUploadDate("2024-03-01"), "already formatted dates pass through")
	assert.Equal(t, "", formatUploadDate(""))
	assert.Equal(t, "notadate", formatUploadDate("notadate"))
}

func TestDedupe(t *testing.T) {
	in := []string{"a", "b", "a", "c", "b"}
	assert.Equal(t, []string{"a", "b", "c"}, dedupe(in))
	assert.Empty(t, dedupe(nil))
}
