package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidFilename(t *testing.T) {
	valid := []string{"photo.jpg", "ответ-урок1.png", "IMG_0123.HEIC", "скрин 2.webp"}
	for _, name := range valid {
		assert.True(t, IsValidFilename(name), name)
	}

	invalid := []string{"", "../etc/passwd", "dir/photo.jpg", ".hidden", "trailing.", "run.sh", "note.exe", "bad\x00name.jpg"}
	for _, name := range invalid {
		assert.False(t, IsValidFilename(name), name)
	}
}

func TestValidateFilename(t *testing.T) {
	err := ValidateFilename("../x", "fileName")
	assert.EqualError(t, err, "fileName is not a valid filename")
	assert.NoError(t, ValidateFilename("photo.jpg", "fileName"))
}

func TestIsImageContentType(t *testing.T) {
	assert.True(t, IsImageContentType("image/jpeg"))
	assert.True(t, IsImageContentType(" IMAGE/PNG "))
	assert.True(t, IsImageContentType("image/webp; charset=binary"))
	assert.False(t, IsImageContentType("application/pdf"))
	assert.False(t, IsImageContentType("video/mp4"))
	assert.False(t, IsImageContentType(""))
}

func TestHasImageExtension(t *testing.T) {
	assert.True(t, HasImageExtension("photo.JPG"))
	assert.True(t, HasImageExtension("ответ.webp"))
	assert.False(t, HasImageExtension("doc.pdf"))
}
