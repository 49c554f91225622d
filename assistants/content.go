package assistants

import (
	"encoding/json"
	"errors"
)

const (
	contentFamily    = "message content"
	annotationFamily = "annotation"
)

type MessageContentType string

const (
	ContentTypeText      MessageContentType = "text"
	ContentTypeImageFile MessageContentType = "image_file"
	ContentTypeImageURL  MessageContentType = "image_url"
)

// MessageContent is implemented by TextContent, ImageFileContent and
// ImageURLContent.
type MessageContent interface {
	ContentType() MessageContentType
	isMessageContent()
}

type TextContent struct {
	Value       string
	Annotations []Annotation
}

func (TextContent) ContentType() MessageContentType { return ContentTypeText }
func (TextContent) isMessageContent()               {}

type ImageFileContent struct {
	FileID string  `json:"file_id"`
	Detail *string `json:"detail,omitempty"`
}

func (ImageFileContent) ContentType() MessageContentType { return ContentTypeImageFile }
func (ImageFileContent) isMessageContent()               {}

type ImageURLContent struct {
	URL    string  `json:"url"`
	Detail *string `json:"detail,omitempty"`
}

func (ImageURLContent) ContentType() MessageContentType { return ContentTypeImageURL }
func (ImageURLContent) isMessageContent()               {}

// ContentPart is one element of a message's content list. Index is only sent
// in streamed deltas.
type ContentPart struct {
	Index   *int
	Content MessageContent
}

var contents = NewFamily(contentFamily, "type",
	func(c MessageContent) string { return string(c.ContentType()) },
	Case[MessageContent]{
		Tag:    string(ContentTypeText),
		Key:    "text",
		Decode: decodeTextContent,
		Encode: encodeTextContent,
	},
	Case[MessageContent]{
		Tag: string(ContentTypeImageFile),
		Key: "image_file",
		Decode: func(payload json.RawMessage) (MessageContent, error) {
			var c ImageFileContent
			if err := decodeRecord(contentFamily, payload, &c, "file_id"); err != nil {
				return nil, err
			}
			return c, nil
		},
		Encode: func(c MessageContent) (json.RawMessage, error) {
			v, err := variant[ImageFileContent](c)
			if err != nil {
				return nil, err
			}
			return json.Marshal(v)
		},
	},
	Case[MessageContent]{
		Tag: string(ContentTypeImageURL),
		Key: "image_url",
		Decode: func(payload json.RawMessage) (MessageContent, error) {
			var c ImageURLContent
			if err := decodeRecord(contentFamily, payload, &c, "url"); err != nil {
				return nil, err
			}
			return c, nil
		},
		Encode: func(c MessageContent) (json.RawMessage, error) {
			v, err := variant[ImageURLContent](c)
			if err != nil {
				return nil, err
			}
			return json.Marshal(v)
		},
	},
)

func MessageContents() *Family[MessageContent] {
	return contents
}

func DecodeContentPart(data []byte) (ContentPart, error) {
	var p ContentPart
	err := p.UnmarshalJSON(data)
	return p, err
}

func (p ContentPart) MarshalJSON() ([]byte, error) {
	if p.Content == nil {
		return nil, errors.New("encoding message content: no content")
	}
	var fields orderedObject
	if p.Index != nil {
		raw, err := json.Marshal(*p.Index)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field{key: "index", value: raw})
	}
	content, err := contents.encodeFields(p.Content)
	if err != nil {
		return nil, err
	}
	return append(fields, content...).MarshalJSON()
}

func (p *ContentPart) UnmarshalJSON(data []byte) error {
	obj, err := decodeObject(data)
	if err != nil {
		return wrapDecodeErr(contentFamily, "", err)
	}
	var part ContentPart
	if raw, ok := obj["index"]; ok {
		if err := json.Unmarshal(raw, &part.Index); err != nil {
			return wrapDecodeErr(contentFamily, "index", err)
		}
	}
	part.Content, err = contents.decodeObject(obj, data)
	if err != nil {
		return err
	}
	*p = part
	return nil
}

func decodeTextContent(payload json.RawMessage) (MessageContent, error) {
	var wire struct {
		Value       string            `json:"value"`
		Annotations []json.RawMessage `json:"annotations"`
	}
	if err := decodeRecord(contentFamily, payload, &wire, "value"); err != nil {
		return nil, err
	}
	annotations, err := decodeList(contentFamily, "annotations", wire.Annotations, DecodeAnnotation)
	if err != nil {
		return nil, err
	}
	return TextContent{Value: wire.Value, Annotations: annotations}, nil
}

func encodeTextContent(c MessageContent) (json.RawMessage, error) {
	text, err := variant[TextContent](c)
	if err != nil {
		return nil, err
	}
	annotations, err := encodeList(text.Annotations, EncodeAnnotation)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Value       string          `json:"value"`
		Annotations json.RawMessage `json:"annotations"`
	}{text.Value, annotations})
}

type AnnotationType string

const (
	AnnotationTypeFileCitation AnnotationType = "file_citation"
	AnnotationTypeFilePath     AnnotationType = "file_path"
)

// Annotation is implemented by FileCitation and FilePath.
type Annotation interface {
	AnnotationType() AnnotationType
	isAnnotation()
}

type FileCitation struct {
	Text         string          `json:"text"`
	FileCitation FileCitationRef `json:"file_citation"`
	StartIndex   int             `json:"start_index"`
	EndIndex     int             `json:"end_index"`
}

type FileCitationRef struct {
	FileID string  `json:"file_id"`
	Quote  *string `json:"quote,omitempty"`
}

func (FileCitation) AnnotationType() AnnotationType { return AnnotationTypeFileCitation }
func (FileCitation) isAnnotation()                  {}

type FilePath struct {
	Text       string      `json:"text"`
	FilePath   FilePathRef `json:"file_path"`
	StartIndex int         `json:"start_index"`
	EndIndex   int         `json:"end_index"`
}

type FilePathRef struct {
	FileID string `json:"file_id"`
}

func (FilePath) AnnotationType() AnnotationType { return AnnotationTypeFilePath }
func (FilePath) isAnnotation()                  {}

// annotations keep their payload inline next to the tag.
var annotations = NewFamily(annotationFamily, "type",
	func(a Annotation) string { return string(a.AnnotationType()) },
	Case[Annotation]{
		Tag: string(AnnotationTypeFileCitation),
		Decode: func(payload json.RawMessage) (Annotation, error) {
			var a FileCitation
			if err := decodeRecord(annotationFamily, payload, &a, "text", "file_citation"); err != nil {
				return nil, err
			}
			return a, nil
		},
		Encode: func(a Annotation) (json.RawMessage, error) {
			v, err := variant[FileCitation](a)
			if err != nil {
				return nil, err
			}
			return json.Marshal(v)
		},
	},
	Case[Annotation]{
		Tag: string(AnnotationTypeFilePath),
		Decode: func(payload json.RawMessage) (Annotation, error) {
			var a FilePath
			if err := decodeRecord(annotationFamily, payload, &a, "text", "file_path"); err != nil {
				return nil, err
			}
			return a, nil
		},
		Encode: func(a Annotation) (json.RawMessage, error) {
			v, err := variant[FilePath](a)
			if err != nil {
				return nil, err
			}
			return json.Marshal(v)
		},
	},
)

func Annotations() *Family[Annotation] {
	return annotations
}

func DecodeAnnotation(data []byte) (Annotation, error) {
	return annotations.Decode(data)
}

func EncodeAnnotation(a Annotation) ([]byte, error) {
	return annotations.Encode(a)
}
