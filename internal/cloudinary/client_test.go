package cloudinary

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	c := NewClient("demo", "key", "secret", "ssnapify")

	got := c.sign(map[string]string{
		"timestamp": "1700000000",
		"public_id": "abc",
		"folder":    "ssnapify",
	})

	// Параметры сортируются по ключу перед подписью.
	sum := sha1.Sum([]byte("folder=ssnapify&public_id=abc&timestamp=1700000000secret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}

func TestTransformationURL(t *testing.T) {
	c := NewClient("demo", "key", "secret", "ssnapify")

	url := c.TransformationURL("ssnapify/abc", "e_background_removal")
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/e_background_removal/ssnapify/abc", url)
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.NotEmpty(t, r.FormValue("signature"))
		assert.Equal(t, "img-1", r.FormValue("public_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"ssnapify/img-1","secure_url":"https://res.example/img-1.png","format":"png"}`))
	}))
	defer srv.Close()

	c := NewClient("demo", "key", "secret", "ssnapify")
	c.apiURL = srv.URL

	resp, err := c.Upload([]byte("fake-image-bytes"), "img-1")
	require.NoError(t, err)
	assert.Equal(t, "ssnapify/img-1", resp.PublicID)
	assert.Equal(t, "https://res.example/img-1.png", resp.SecureURL)
}

func TestUpload_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Signature"}}`))
	}))
	defer srv.Close()

	c := NewClient("demo", "key", "secret", "ssnapify")
	c.apiURL = srv.URL

	_, err := c.Upload([]byte("bytes"), "img-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Signature")
}
