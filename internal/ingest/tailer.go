package ingest

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nxadm/tail"
)

// LogLine is a raw line replayed from an external source
type LogLine struct {
	Source    string
	Timestamp int64 // wall clock arrival
	Content   string
}

// Ingester defines the interface for replay sources
type Ingester interface {
	Start() (<-chan LogLine, error)
	Stop() error
}

// FileTailer replays a file into the classifier, following appends and
// surviving rotation.
type FileTailer struct {
	path string
	t    *tail.Tail
}

func NewFileTailer(path string) *FileTailer {
	return &FileTailer{
		path: path,
	}
}

// Start begins tailing the file and returns a channel of lines
func (f *FileTailer) Start() (<-chan LogLine, error) {
	config := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      true, // Fallback for some filesystems/docker mounts
		Logger:    tail.DiscardingLogger,
	}

	log.Printf("[INGEST] Tailing %s (waiting if not present)", f.path)

	t, err := tail.TailFile(f.path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to tail file %s: %w", f.path, err)
	}
	f.t = t

	out := make(chan LogLine)

	go func() {
		defer close(out)
		for line := range t.Lines {
			if line.Err != nil {
				log.Printf("[INGEST] Tail error on %s: %v", f.path, line.Err)
				continue
			}
			text := strings.TrimRight(line.Text, "\r\n")
			if text == "" {
				continue
			}
			out <- LogLine{
				Source:    f.path,
				Timestamp: time.Now().Unix(),
				Content:   text,
			}
		}
	}()

	return out, nil
}

// Stop halts the tailer
func (f *FileTailer) Stop() error {
	if f.t == nil {
		return nil
	}
	return f.t.Stop()
}
