package model

type Role string

const (
	RoleUser  = Role("user")
	RoleModel = Role("model")
)

// InlineData is a binary message part. Data marshals as base64 in JSON.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// ChatMessagePart is a tagged union: exactly one of Text or InlineData is set.
type ChatMessagePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// Source is a web citation attached to a grounded response.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type ChatMessage struct {
	Role    Role              `json:"role"`
	Parts   []ChatMessagePart `json:"parts"`
	Sources []Source          `json:"sources,omitempty"`
}

// Text joins the text parts of the message, skipping binary parts.
func (m ChatMessage) Text() string {
	var text string
	for _, part := range m.Parts {
		text += part.Text
	}
	return text
}
