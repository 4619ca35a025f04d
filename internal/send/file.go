// internal/send/file.go
package send

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Writer is the outbound byte sink, satisfied by the session manager.
type Writer interface {
	Write(payload []byte)
}

// Progress reports cumulative transfer state after each chunk.
type Progress struct {
	Sent  int64 `json:"sent"`
	Total int64 `json:"total"`
}

// FileSender streams a file's bytes through the session write path in
// fixed-size chunks with an optional inter-chunk delay. A read failure
// aborts the transfer; bytes already sent stay sent.
type FileSender struct {
	writer    Writer
	logger    *zap.Logger
	ChunkSize int
	Delay     time.Duration
}

// NewFileSender creates a sender with a 1 KiB chunk size and no delay.
func NewFileSender(writer Writer, logger *zap.Logger) *FileSender {
	return &FileSender{
		writer:    writer,
		logger:    logger,
		ChunkSize: 1024,
	}
}

// Send streams the file at path, invoking onProgress after every chunk.
// The context cancels between chunks so the caller is never blocked
// behind a long transfer.
func (fs *FileSender) Send(ctx context.Context, path string, onProgress func(Progress)) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	chunkSize := fs.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1024
	}

	fs.logger.Info("File transfer started",
		zap.String("path", path),
		zap.Int64("size", info.Size()),
		zap.Int("chunk_size", chunkSize),
	)

	buf := make([]byte, chunkSize)
	var sent int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := f.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			fs.writer.Write(chunk)
			sent += int64(n)

			if onProgress != nil {
				onProgress(Progress{Sent: sent, Total: info.Size()})
			}

			if fs.Delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(fs.Delay):
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fs.logger.Error("File transfer aborted",
				zap.Error(err),
				zap.Int64("sent", sent),
			)
			return fmt.Errorf("file read failed after %d bytes: %w", sent, err)
		}
	}

	fs.logger.Info("File transfer completed", zap.Int64("sent", sent))
	return nil
}
