package portal

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smarthealth/portal/pkg/config"
	"github.com/smarthealth/portal/pkg/types"
)

func testPolicy() UploadPolicy {
	return NewUploadPolicy(config.UploadConfig{
		ChatAttachmentMaxBytes: 64,
		ReportMaxBytes:         32,
	})
}

func TestValidateChatAttachment(t *testing.T) {
	policy := testPolicy()
	payload := base64.StdEncoding.EncodeToString([]byte("small image bytes"))

	t.Run("accepts image under limit", func(t *testing.T) {
		assert.NoError(t, policy.ValidateChatAttachment("image/png", payload))
	})

	t.Run("accepts pdf", func(t *testing.T) {
		assert.NoError(t, policy.ValidateChatAttachment("application/pdf", payload))
	})

	t.Run("rejects disallowed mime type", func(t *testing.T) {
		err := policy.ValidateChatAttachment("text/html", payload)
		assert.True(t, types.IsValidation(err))
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		err := policy.ValidateChatAttachment("image/png", "not/base64!!!")
		assert.True(t, types.IsValidation(err))
	})

	t.Run("rejects payload over limit", func(t *testing.T) {
		big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 65)))
		err := policy.ValidateChatAttachment("image/jpeg", big)
		assert.True(t, types.IsValidation(err))
	})
}

func TestValidateReport(t *testing.T) {
	policy := testPolicy()

	t.Run("report limit is tighter than chat limit", func(t *testing.T) {
		mid := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 40)))
		assert.NoError(t, policy.ValidateChatAttachment("image/png", mid))
		assert.True(t, types.IsValidation(policy.ValidateReport("image/png", mid)))
	})

	t.Run("accepts report under limit", func(t *testing.T) {
		small := base64.StdEncoding.EncodeToString([]byte("scan"))
		assert.NoError(t, policy.ValidateReport("application/pdf", small))
	})
}

func TestReportTypeFor(t *testing.T) {
	assert.Equal(t, types.ReportPDF, ReportTypeFor("application/pdf"))
	assert.Equal(t, types.ReportImage, ReportTypeFor("image/png"))
	assert.Equal(t, types.ReportImage, ReportTypeFor("image/jpeg"))
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", DataURI("image/png", "aGVsbG8="))
}
