package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type urlResolver string

func (r urlResolver) GetFileDirectURL(fileID string) (string, error) {
	return string(r) + "/" + fileID, nil
}

func TestTelegramPhotoOpener(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photo-1" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	opener := NewTelegramPhotoOpener(urlResolver(srv.URL), srv.Client())

	rc, err := opener.Open(context.Background(), "photo-1")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(body))

	_, err = opener.Open(context.Background(), "missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
