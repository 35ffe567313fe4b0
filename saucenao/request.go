package saucenao

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultFileName = "image.jpg"

// isRemote reports whether the search target is a URL to hand to the
// API, as opposed to a local file to upload.
func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// buildURL assembles the full search.php URL with every query
// parameter for this call. The target is added as a url parameter only
// for remote targets; local files travel in the request body instead.
func (c *Client) buildURL(target string, numResults uint32) (string, error) {
	u, err := url.Parse(c.baseURL + searchPath)
	if err != nil {
		return "", fmt.Errorf("%w: base url: %v", ErrInvalidParse, err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	q.Set("output_type", strconv.Itoa(outputTypeJSON))

	if c.db != nil {
		q.Set("db", strconv.FormatUint(uint64(*c.db), 10))
	}
	if len(c.dbMask) > 0 {
		q.Set("dbmask", strconv.FormatUint(EncodeMask(c.dbMask), 10))
	}
	if len(c.dbMaskI) > 0 {
		q.Set("dbmaski", strconv.FormatUint(EncodeMask(c.dbMaskI), 10))
	}

	if c.testMode {
		q.Set("testmode", "1")
	} else {
		q.Set("testmode", "0")
	}
	q.Set("numres", strconv.FormatUint(uint64(numResults), 10))

	if isRemote(target) {
		q.Set("url", target)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fileForm reads a local image and wraps it in a multipart body with a
// single file part. Returns the body and its Content-Type.
func fileForm(path string) (*bytes.Buffer, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = defaultFileName
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("%w: create form file: %v", ErrInvalidFile, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("%w: write form file: %v", ErrInvalidFile, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("%w: close form: %v", ErrInvalidFile, err)
	}

	return &buf, w.FormDataContentType(), nil
}
