package usecase

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dorakhq/dorak/internal/model"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// Text-like files accepted without a text/* MIME type.
var textFileRe = regexp.MustCompile(`\.(md|js|py|html|css|json|txt)$`)

// EncodeAttachment turns an uploaded file into a transport payload.
// Image and video files keep their raw bytes plus the reported MIME type;
// text-like files are read as UTF-8 content. Anything else is refused.
func EncodeAttachment(filename, mimeType string, r io.Reader) (model.Attachment, error) {
	switch {
	case strings.HasPrefix(mimeType, "image/"), strings.HasPrefix(mimeType, "video/"):
		data, err := io.ReadAll(r)
		if err != nil {
			return model.Attachment{}, fmt.Errorf("failed to read attachment: %w", err)
		}
		kind := model.AttachmentImage
		if strings.HasPrefix(mimeType, "video/") {
			kind = model.AttachmentVideo
		}
		return model.Attachment{Kind: kind, MIMEType: mimeType, Data: data}, nil
	case strings.HasPrefix(mimeType, "text/"), textFileRe.MatchString(filename):
		content, err := io.ReadAll(r)
		if err != nil {
			return model.Attachment{}, fmt.Errorf("failed to read attachment: %w", err)
		}
		return model.Attachment{Kind: model.AttachmentText, FileName: filename, Content: string(content)}, nil
	default:
		if mimeType == "" {
			mimeType = "unknown"
		}
		return model.Attachment{}, fmt.Errorf("%w: %s", ErrUnsupportedFileType, mimeType)
	}
}
