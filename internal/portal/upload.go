package portal

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/smarthealth/portal/pkg/config"
	"github.com/smarthealth/portal/pkg/types"
)

// UploadPolicy enforces the file-input boundary: MIME allow-list and size
// limits, checked before any state mutation. Chat attachments and report
// uploads carry different limits.
type UploadPolicy struct {
	ChatAttachmentMaxBytes int64
	ReportMaxBytes         int64
}

// NewUploadPolicy builds the policy from configuration
func NewUploadPolicy(cfg config.UploadConfig) UploadPolicy {
	return UploadPolicy{
		ChatAttachmentMaxBytes: cfg.ChatAttachmentMaxBytes,
		ReportMaxBytes:         cfg.ReportMaxBytes,
	}
}

// ValidateChatAttachment checks a chat attachment against the policy
func (p UploadPolicy) ValidateChatAttachment(mimeType, data string) error {
	return validateUpload(mimeType, data, p.ChatAttachmentMaxBytes)
}

// ValidateReport checks a report upload against the policy
func (p UploadPolicy) ValidateReport(mimeType, data string) error {
	return validateUpload(mimeType, data, p.ReportMaxBytes)
}

func validateUpload(mimeType, data string, maxBytes int64) error {
	if !allowedMimeType(mimeType) {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("unsupported file type %q: only images and PDF are accepted", mimeType))
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "file content is not valid base64")
	}

	if int64(len(decoded)) > maxBytes {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("file exceeds the %dMB limit", maxBytes/(1024*1024)))
	}

	return nil
}

func allowedMimeType(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") || mimeType == "application/pdf"
}

// ReportTypeFor maps a MIME type to the report format
func ReportTypeFor(mimeType string) types.ReportType {
	if mimeType == "application/pdf" {
		return types.ReportPDF
	}
	return types.ReportImage
}

// DataURI produces the base64 data URI stored on a report for preview and
// transmission
func DataURI(mimeType, data string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, data)
}
