package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strconv"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/pkg/errors"
)

// ImageContentType is the fixed label sent with every photo part
const ImageContentType = "image/jpg"

// Form field names of the create request, in the order they are written
var CreateFieldNames = []string{
	"name",
	"about",
	"latitude",
	"longitude",
	"instructions",
	"opening_hours",
	"open_on_weekends",
}

// PhotoOpener resolves a local image reference into its bytes
type PhotoOpener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// FileOpener treats image references as filesystem paths
type FileOpener struct{}

func (FileOpener) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	f, err := os.Open(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open photo %s", uri)
	}
	return f, nil
}

// FilePart describes one photo part of the payload
type FilePart struct {
	FileName string
	URI      string
}

// CreatePayload is a fully-buffered multipart body ready to POST
type CreatePayload struct {
	Body        *bytes.Buffer
	ContentType string
	Fields      map[string]string
	Files       []FilePart
}

// FormatCoordinate renders a float in its shortest decimal form
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ImageFileName names the index-th photo part
func ImageFileName(index int) string {
	return fmt.Sprintf("image_%d.jpg", index)
}

// BuildCreatePayload serializes a draft and its position into multipart form data
func BuildCreatePayload(ctx context.Context, position entities.Coordinate, draft entities.OrphanageDraft, opener PhotoOpener) (*CreatePayload, error) {
	fields := map[string]string{
		"name":             draft.Name,
		"about":            draft.About,
		"latitude":         FormatCoordinate(position.Latitude),
		"longitude":        FormatCoordinate(position.Longitude),
		"instructions":     draft.Instructions,
		"opening_hours":    draft.OpeningHours,
		"open_on_weekends": strconv.FormatBool(draft.OpenOnWeekends),
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, name := range CreateFieldNames {
		if err := w.WriteField(name, fields[name]); err != nil {
			return nil, errors.Wrapf(err, "failed to write field %s", name)
		}
	}

	files := make([]FilePart, 0, len(draft.ImageURIs))
	for i, uri := range draft.ImageURIs {
		part := FilePart{FileName: ImageFileName(i), URI: uri}
		if err := writeImagePart(ctx, w, part, opener); err != nil {
			return nil, err
		}
		files = append(files, part)
	}

	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close multipart writer")
	}

	return &CreatePayload{
		Body:        body,
		ContentType: w.FormDataContentType(),
		Fields:      fields,
		Files:       files,
	}, nil
}

func writeImagePart(ctx context.Context, w *multipart.Writer, part FilePart, opener PhotoOpener) error {
	if opener == nil {
		return errors.New("no photo opener configured")
	}
	src, err := opener.Open(ctx, part.URI)
	if err != nil {
		return err
	}
	defer src.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, part.FileName))
	h.Set("Content-Type", ImageContentType)
	dst, err := w.CreatePart(h)
	if err != nil {
		return errors.Wrapf(err, "failed to create part %s", part.FileName)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrapf(err, "failed to copy photo %s", part.URI)
	}
	return nil
}
