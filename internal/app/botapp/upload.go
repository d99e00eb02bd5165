package botapp

import (
	"bytes"
	"fmt"
	"io"

	mediasvc "github.com/babymaxMAX/lsj-love/internal/services/media"
)

// sizedBody returns body unchanged when its size is known. Otherwise the file
// is buffered up to the upload limit so the object store gets an exact length.
func sizedBody(body io.Reader, size int64) (io.Reader, int64, error) {
	if size > 0 {
		return body, size, nil
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(body, mediasvc.MaxUploadBytes+1))
	if err != nil {
		return nil, 0, fmt.Errorf("buffer photo: %w", err)
	}
	if n > mediasvc.MaxUploadBytes {
		return nil, 0, mediasvc.ErrObjectTooLarge
	}
	if n == 0 {
		return nil, 0, mediasvc.ErrValidation
	}
	return &buf, n, nil
}
