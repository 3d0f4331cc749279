package attachment

import "strconv"

// Attachment is the stored record. Data is empty when the payload lives in
// object storage under ObjectKey.
type Attachment struct {
	OrganizationID string         `json:"organizationId" bson:"organizationId"`
	AttachmentID   int64          `json:"attachmentId" bson:"attachmentId"`
	DocumentID     string         `json:"documentId,omitempty" bson:"documentId,omitempty"`
	AnnotationID   string         `json:"annotationId,omitempty" bson:"annotationId,omitempty"`
	Name           string         `json:"name" bson:"name"`
	MimeType       string         `json:"mimeType" bson:"mimeType"`
	Data           []byte         `json:"data,omitempty" bson:"data,omitempty"`
	Size           int64          `json:"size" bson:"size"`
	ObjectKey      string         `json:"objectKey,omitempty" bson:"objectKey,omitempty"`
	Checksum       string         `json:"checksum,omitempty" bson:"checksum,omitempty"`
	URL            string         `json:"url" bson:"url"`
	Metadata       map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// SaveInput is an attachment as sent by a client. File is base64, optionally
// as a data URL. Size, when given, must equal the decoded length.
type SaveInput struct {
	AttachmentID int64          `json:"attachmentId,omitempty"`
	Name         string         `json:"name"`
	MimeType     string         `json:"mimeType,omitempty"`
	File         string         `json:"file"`
	Size         *int64         `json:"size,omitempty"`
	AnnotationID string         `json:"annotationId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type SaveData struct {
	AttachmentID int64  `json:"attachmentId"`
	URL          string `json:"url"`
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}
