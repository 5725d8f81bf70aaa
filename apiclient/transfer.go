package apiclient

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"
)

// File is one file part of a multipart upload.
type File struct {
	Field       string // form field name, e.g. "file"
	Name        string // file name sent to the backend
	ContentType string // defaults to application/octet-stream
	Content     io.Reader
}

// Upload is a multipart form body.
type Upload struct {
	Fields map[string]string
	Files  []File
}

// Download is a binary response.
type Download struct {
	Body        []byte
	ContentType string
	Filename    string
}

// Upload sends a multipart form. The stored token is attached and failures are
// normalized like Do, but the request is attempted once: a 401 is reported as
// a *RequestFailedError instead of triggering a refresh.
func (c *Client) Upload(ctx context.Context, endpoint string, upload Upload) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range upload.Fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, errors.Wrap(err, "[Client.Upload] WriteField")
		}
	}
	for _, f := range upload.Files {
		if f.Content == nil {
			return nil, errors.Errorf("[Client.Upload] file %q has no content", f.Name)
		}
		part, err := writer.CreatePart(filePartHeader(f))
		if err != nil {
			return nil, errors.Wrap(err, "[Client.Upload] CreatePart")
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, errors.Wrap(err, "[Client.Upload] copy file")
		}
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "[Client.Upload] Close")
	}

	payload := buf.Bytes()
	contentType := writer.FormDataContentType()
	build := func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(endpoint, nil), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", contentType)
		return r, nil
	}

	res, err := c.execute(ctx, build, true, false)
	if err != nil {
		return nil, err
	}
	return res.result()
}

// Download fetches a binary payload of any content type. It follows the same
// refresh-and-retry rules as Do.
func (c *Client) Download(ctx context.Context, endpoint string) (Download, error) {
	build := func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(endpoint, nil), nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("Accept", "*/*")
		return r, nil
	}

	res, err := c.execute(ctx, build, true, true)
	if err != nil {
		return Download{}, err
	}
	if !res.ok() {
		_, err := res.result()
		return Download{}, err
	}

	d := Download{
		Body:        res.body,
		ContentType: res.header.Get("Content-Type"),
	}
	if _, params, err := mime.ParseMediaType(res.header.Get("Content-Disposition")); err == nil {
		d.Filename = params["filename"]
	}
	return d, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func filePartHeader(f File) textproto.MIMEHeader {
	field := f.Field
	if field == "" {
		field = "file"
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+quoteEscaper.Replace(field)+`"; filename="`+quoteEscaper.Replace(f.Name)+`"`)
	h.Set("Content-Type", contentType)
	return h
}
