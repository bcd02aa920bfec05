package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/config"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"png", "image/png", 1024, false},
		{"upper-case type", "IMAGE/JPEG", 1024, false},
		{"exactly the cap", "image/webp", MaxImageSize, false},
		{"too big", "image/png", MaxImageSize + 1, true},
		{"empty", "image/png", 0, true},
		{"not an image", "application/pdf", 1024, true},
		{"missing type", "", 1024, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.contentType, tt.size)
			if tt.wantErr {
				assert.True(t, apperror.Is(err, apperror.ErrValidation), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	a := ObjectName("Holiday Photo.JPG")
	b := ObjectName("Holiday Photo.JPG")

	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.NotEqual(t, a, b, "every upload gets its own name")
	assert.NotContains(t, a, "Holiday")

	assert.NotContains(t, ObjectName("../../etc/passwd"), "/")
	assert.Len(t, ObjectName("noext"), 20, "an xid is 20 characters")
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/postagram",
		publicBase(config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "postagram"}))
	assert.Equal(t, "https://s3.example.com/media",
		publicBase(config.MinIOConfig{Endpoint: "s3.example.com", Bucket: "media", UseSSL: true}))
	assert.Equal(t, "https://cdn.example.com/p",
		publicBase(config.MinIOConfig{Endpoint: "minio:9000", PublicURL: "https://cdn.example.com/p/"}))
}

func TestNewMinIO(t *testing.T) {
	store, err := NewMinIO(config.MinIOConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "postagram",
	})
	require.NoError(t, err)
	assert.Equal(t, "postagram", store.bucket)
	assert.Equal(t, "http://localhost:9000/postagram", store.publicURL)

	_, err = NewMinIO(config.MinIOConfig{Endpoint: "http://not-a-host-port/"})
	assert.Error(t, err, "minio rejects endpoints with a scheme or path")
}
