package asset

import (
	"context"
	"io"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// RemoteStore は go-remote-io の Reader/Writer を 1 つの保存先として束ねます。
// GCS_BUCKET を設定した場合に LocalStore の代わりに使います。
type RemoteStore struct {
	reader remoteio.InputReader
	writer remoteio.OutputWriter
}

func NewRemoteStore(r remoteio.InputReader, w remoteio.OutputWriter) *RemoteStore {
	return &RemoteStore{reader: r, writer: w}
}

func (s *RemoteStore) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	return s.writer.Write(ctx, path, r, contentType)
}

func (s *RemoteStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.reader.Open(ctx, path)
}
