package usecase

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/runoshun/issue-harvest/internal/domain"
	"golang.org/x/sync/errgroup"
)

// TransformLogsInput contains the input for the TransformLogs use case.
type TransformLogsInput struct {
	// Collections restricts the run to these raw logs. Empty means all.
	Collections []string
}

// TransformedFile reports one transformed raw log.
type TransformedFile struct {
	Collection string
	Path       string
	Stats      domain.TransformStats
}

// TransformLogsOutput contains the output of the TransformLogs use case.
type TransformLogsOutput struct {
	Files []TransformedFile // Sorted by collection
}

// TransformLogs converts every raw log into a transformed output file.
type TransformLogs struct {
	rawLog   domain.RawLog
	sink     domain.TransformedSink
	logger   domain.Logger
	progress domain.Progress
	workers  int
}

// NewTransformLogs creates a new TransformLogs use case.
func NewTransformLogs(
	rawLog domain.RawLog,
	sink domain.TransformedSink,
	logger domain.Logger,
	progress domain.Progress,
	workers int,
) *TransformLogs {
	if workers < 1 {
		workers = 1
	}
	return &TransformLogs{
		rawLog:   rawLog,
		sink:     sink,
		logger:   logger,
		progress: progress,
		workers:  workers,
	}
}

// Execute transforms the discovered raw logs, up to workers files at a time.
// Malformed lines are skipped. Any read or write failure stops the run and
// leaves the previous output of the failing file in place.
func (uc *TransformLogs) Execute(ctx context.Context, in TransformLogsInput) (*TransformLogsOutput, error) {
	ids, err := uc.rawLog.List()
	if err != nil {
		return nil, fmt.Errorf("list raw logs: %w", err)
	}
	if len(in.Collections) > 0 {
		ids = slices.DeleteFunc(ids, func(id string) bool {
			return !slices.Contains(in.Collections, id)
		})
	}
	if len(ids) == 0 {
		uc.logger.Warn("", "transform", "no raw logs found")
		return &TransformLogsOutput{}, nil
	}

	files := make([]TransformedFile, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, id := range ids {
		g.Go(func() error {
			f, err := uc.transformFile(gctx, id)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			files[i] = *f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &TransformLogsOutput{Files: files}, nil
}

func (uc *TransformLogs) transformFile(ctx context.Context, id string) (_ *TransformedFile, err error) {
	src, err := uc.rawLog.Open(id)
	if err != nil {
		return nil, fmt.Errorf("open raw log: %w", err)
	}
	defer func() { _ = src.Close() }()

	w, err := uc.sink.Create(id)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = w.Abort()
		}
	}()

	uc.logger.Debug(id, "transform", fmt.Sprintf("writing %s", w.Path()))

	var stats domain.TransformStats
	r := bufio.NewReaderSize(src, 64*1024)
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, readErr := r.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read raw log: %w", readErr)
		}
		if line = bytes.TrimSpace(line); len(line) > 0 {
			stats.Lines++
			if err := uc.writeRecord(w, line); err != nil {
				if !errors.Is(err, domain.ErrMalformedRecord) {
					return nil, err
				}
				stats.Skipped++
				uc.logger.Warn(id, "transform", fmt.Sprintf("skipping line %d: %v", lineNo, err))
			} else {
				stats.Written++
			}
		}
		if readErr != nil {
			break
		}
	}

	if err := w.Commit(); err != nil {
		return nil, fmt.Errorf("commit output: %w", err)
	}

	uc.progress.FileTransformed(id, stats)
	uc.logger.Info(id, "transform", fmt.Sprintf("transformed %d records to %s (%d skipped)", stats.Written, w.Path(), stats.Skipped))
	return &TransformedFile{Collection: id, Path: w.Path(), Stats: stats}, nil
}

// writeRecord transforms one raw line and writes it. Parse failures wrap
// domain.ErrMalformedRecord; anything else is an output failure.
func (uc *TransformLogs) writeRecord(w io.Writer, line []byte) error {
	raw, err := domain.ParseRawIssue(line)
	if err != nil {
		return err
	}
	out, err := domain.TransformIssue(raw).EncodeLine()
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
