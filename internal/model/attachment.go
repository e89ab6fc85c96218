package model

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// AttachmentKind tags which variant of Attachment is populated.
type AttachmentKind string

const (
	AttachmentInline AttachmentKind = "inline"
	AttachmentLinked AttachmentKind = "linked"
)

// Accepted inline content types.
const (
	MimePDF  = "application/pdf"
	MimeJPEG = "image/jpeg"
)

var (
	ErrAttachmentBoth    = errors.New("attachment carries both inline content and a url")
	ErrAttachmentNeither = errors.New("attachment carries neither inline content nor a url")
)

// Attachment is either inline bytes with a MIME type or a link, never both.
type Attachment struct {
	ID          uint           `gorm:"primaryKey"`
	LeaveFormID uint           `gorm:"index;not null"`
	Name        string         `gorm:"type:varchar(255);not null"`
	Kind        AttachmentKind `gorm:"type:varchar(10);not null"`
	MimeType    string         `gorm:"type:varchar(100)"`
	Data        []byte
	URL         string `gorm:"type:varchar(1000)"`
}

// NewInlineAttachment builds the inline variant.
func NewInlineAttachment(name, mimeType string, data []byte) (Attachment, error) {
	a := Attachment{Name: name, Kind: AttachmentInline, MimeType: NormalizeMime(mimeType), Data: data}
	return a, a.Validate()
}

// NewLinkedAttachment builds the linked variant.
func NewLinkedAttachment(name, link string) (Attachment, error) {
	a := Attachment{Name: name, Kind: AttachmentLinked, URL: link}
	return a, a.Validate()
}

// NormalizeMime folds the image/jpg alias browsers still send.
func NormalizeMime(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "image/jpg" {
		return MimeJPEG
	}
	return m
}

// Validate enforces exactly one populated variant.
func (a Attachment) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("attachment name is required")
	}
	hasInline := len(a.Data) > 0
	hasLink := a.URL != ""
	switch {
	case hasInline && hasLink:
		return ErrAttachmentBoth
	case !hasInline && !hasLink:
		return ErrAttachmentNeither
	}
	switch a.Kind {
	case AttachmentInline:
		if !hasInline {
			return ErrAttachmentNeither
		}
		if a.MimeType != MimePDF && a.MimeType != MimeJPEG {
			return fmt.Errorf("attachment %s: type %q not accepted, only PDF or JPEG", a.Name, a.MimeType)
		}
	case AttachmentLinked:
		if !hasLink {
			return ErrAttachmentNeither
		}
		u, err := url.Parse(a.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("attachment %s: invalid url", a.Name)
		}
	default:
		return fmt.Errorf("attachment %s: unknown kind %q", a.Name, a.Kind)
	}
	return nil
}

type attachmentWire struct {
	Name   string  `json:"name"`
	Type   string  `json:"type,omitempty"`
	Base64 *string `json:"base64,omitempty"`
	URL    *string `json:"url,omitempty"`
}

// MarshalJSON writes the {name,type,base64} or {name,url} shape.
func (a Attachment) MarshalJSON() ([]byte, error) {
	w := attachmentWire{Name: a.Name}
	switch a.Kind {
	case AttachmentInline:
		enc := base64.StdEncoding.EncodeToString(a.Data)
		w.Type = a.MimeType
		w.Base64 = &enc
	case AttachmentLinked:
		link := a.URL
		w.URL = &link
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire shape into the tagged variant.
func (a *Attachment) UnmarshalJSON(b []byte) error {
	var w attachmentWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	hasInline := w.Base64 != nil && *w.Base64 != ""
	hasLink := w.URL != nil && *w.URL != ""
	switch {
	case hasInline && hasLink:
		return ErrAttachmentBoth
	case hasInline:
		mimeType, payload := splitDataURL(w.Type, *w.Base64)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return fmt.Errorf("attachment %s: invalid base64: %w", w.Name, err)
		}
		*a = Attachment{Name: w.Name, Kind: AttachmentInline, MimeType: NormalizeMime(mimeType), Data: data}
	case hasLink:
		*a = Attachment{Name: w.Name, Kind: AttachmentLinked, URL: *w.URL}
	default:
		return ErrAttachmentNeither
	}
	return a.Validate()
}

// splitDataURL accepts both bare base64 and "data:<mime>;base64,<payload>".
// The declared type wins over the data URL's when both are present.
func splitDataURL(declared, value string) (string, string) {
	if !strings.HasPrefix(value, "data:") {
		return declared, value
	}
	header, payload, ok := strings.Cut(value, ",")
	if !ok {
		return declared, value
	}
	if declared == "" {
		declared = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	}
	return declared, payload
}
