package api

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// FileURLResolver turns a Telegram file id into a download URL
type FileURLResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// TelegramPhotoOpener downloads photos sent to the bot. Image references are Telegram file ids.
type TelegramPhotoOpener struct {
	resolver FileURLResolver
	client   *http.Client
}

func NewTelegramPhotoOpener(resolver FileURLResolver, client *http.Client) *TelegramPhotoOpener {
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramPhotoOpener{resolver: resolver, client: client}
}

// Open resolves fileID and streams the file body
func (o *TelegramPhotoOpener) Open(ctx context.Context, fileID string) (io.ReadCloser, error) {
	link, err := o.resolver.GetFileDirectURL(fileID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve telegram file %s", fileID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download telegram file %s", fileID)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("failed to download telegram file %s: unexpected status code: %s", fileID, resp.Status)
	}
	return resp.Body, nil
}
