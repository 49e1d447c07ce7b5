// Package inference holds HTTP clients for the pose-landmarker and depth
// sidecar services. The detector itself is an external capability; this
// package only moves frames in and landmarks out.
package inference

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"
)

func newHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 3 * time.Minute,
		}).DialContext,
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     2 * time.Minute,
	}
	return &http.Client{
		Transport: tr,
		// Heavy models on CPU can take a long while per frame batch.
		Timeout: 5 * time.Minute,
	}
}

// frameForm builds a multipart body with the JPEG frame under "frame" plus
// any extra string fields.
func frameForm(jpeg []byte, fields map[string]string) (*bytes.Buffer, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("frame", "frame.jpg")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(jpeg); err != nil {
		return nil, "", fmt.Errorf("write frame: %w", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &b, w.FormDataContentType(), nil
}

func httpError(resp *http.Response) error {
	const maxErr = 4096
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErr))
	return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
}
