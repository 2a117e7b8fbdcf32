package bot

import (
	"io"

	"github.com/fikrfree/assistant/internal/llm"
)

// tailStream forwards an inner stream and then serves a fixed postlude
// before signalling end-of-stream.
type tailStream struct {
	inner    llm.Stream
	tail     string
	pos      int
	drained  bool
	finish   string
}

// withTail appends fixed text after a generated stream completes.
func withTail(inner llm.Stream, tail string) llm.Stream {
	if tail == "" {
		return inner
	}
	return &tailStream{inner: inner, tail: tail}
}

func (s *tailStream) Recv() (*llm.StreamChunk, error) {
	if !s.drained {
		chunk, err := s.inner.Recv()
		if err == nil {
			if chunk.FinishReason != "" {
				// Hold the finish reason until the tail is out.
				s.finish = chunk.FinishReason
				chunk.FinishReason = ""
			}
			return chunk, nil
		}
		if err != io.EOF {
			return nil, err
		}
		s.drained = true
	}

	if s.pos >= len(s.tail) {
		return nil, io.EOF
	}
	end := s.pos + simulatedChunkSize
	if end > len(s.tail) {
		end = len(s.tail)
	}
	chunk := &llm.StreamChunk{Delta: s.tail[s.pos:end]}
	s.pos = end
	if s.pos >= len(s.tail) {
		if s.finish == "" {
			s.finish = "stop"
		}
		chunk.FinishReason = s.finish
	}
	return chunk, nil
}

func (s *tailStream) Close() error {
	return s.inner.Close()
}
