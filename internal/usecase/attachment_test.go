package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorakhq/dorak/internal/model"
)

func TestEncodeAttachmentImage(t *testing.T) {
	att, err := EncodeAttachment("photo.png", "image/png", strings.NewReader("\x89PNG"))
	require.NoError(t, err)
	assert.Equal(t, model.AttachmentImage, att.Kind)
	assert.Equal(t, "image/png", att.MIMEType)
	assert.Equal(t, []byte("\x89PNG"), att.Data)
}

func TestEncodeAttachmentVideo(t *testing.T) {
	att, err := EncodeAttachment("clip.mp4", "video/mp4", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, model.AttachmentVideo, att.Kind)
}

func TestEncodeAttachmentTextByMIME(t *testing.T) {
	att, err := EncodeAttachment("readme", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, model.AttachmentText, att.Kind)
	assert.Equal(t, "hello", att.Content)
	assert.Equal(t, "readme", att.FileName)
}

func TestEncodeAttachmentTextByExtension(t *testing.T) {
	for _, name := range []string{"a.md", "a.js", "a.py", "a.html", "a.css", "a.json", "a.txt"} {
		att, err := EncodeAttachment(name, "application/octet-stream", strings.NewReader("x"))
		require.NoError(t, err, name)
		assert.Equal(t, model.AttachmentText, att.Kind, name)
	}
}

func TestEncodeAttachmentUnsupported(t *testing.T) {
	_, err := EncodeAttachment("archive.zip", "application/zip", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrUnsupportedFileType)
	assert.Contains(t, err.Error(), "application/zip")

	_, err = EncodeAttachment("mystery.bin", "", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrUnsupportedFileType)
	assert.Contains(t, err.Error(), "unknown")
}
