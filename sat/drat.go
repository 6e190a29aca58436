package sat

import (
	"bufio"
	"io"
	"strconv"
)

// Sink is the DRAT certificate boundary contract of spec.md §4.8: a
// write-only appender of clause-addition and clause-deletion records. The
// solver guarantees every learnt clause is logged added before it can be
// used as a reason, and every removed clause is logged deleted after
// removal. Most records come from db.go's finishInsert/remove; search.go
// (unit learnt clauses), solver.go (the empty clause) and inprocess.go also
// write to the sink directly.
//
// Grounded on original_source/src/candy/core/Certificate.cc, which the
// spec's §12 supplement calls out by name; this interface leaves room for a
// binary-format writer alongside the TextSink without any spec change.
type Sink interface {
	AddClause(lits []Literal) error
	DeleteClause(lits []Literal) error
	Close() error
}

// NopSink discards every record; it is the default when no proof is
// requested.
type NopSink struct{}

func (NopSink) AddClause([]Literal) error    { return nil }
func (NopSink) DeleteClause([]Literal) error { return nil }
func (NopSink) Close() error                 { return nil }

// TextSink writes the textual DRAT format: "<lits> 0" for additions,
// "d <lits> 0" for deletions, and a final "0\n" end-of-proof marker emitted
// by Close.
type TextSink struct {
	w       *bufio.Writer
	closer  io.Closer
	scratch []byte
}

// NewTextSink wraps w (and, if it implements io.Closer, closes it too) in a
// buffered DRAT text writer.
func NewTextSink(w io.Writer) *TextSink {
	ts := &TextSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		ts.closer = c
	}
	return ts
}

func (s *TextSink) writeRecord(prefix string, lits []Literal) error {
	if prefix != "" {
		if _, err := s.w.WriteString(prefix); err != nil {
			return err
		}
	}
	for _, l := range lits {
		s.scratch = strconv.AppendInt(s.scratch[:0], int64(l.Dimacs()), 10)
		if _, err := s.w.Write(s.scratch); err != nil {
			return err
		}
		if err := s.w.WriteByte(' '); err != nil {
			return err
		}
	}
	_, err := s.w.WriteString("0\n")
	return err
}

func (s *TextSink) AddClause(lits []Literal) error { return s.writeRecord("", lits) }

func (s *TextSink) DeleteClause(lits []Literal) error { return s.writeRecord("d ", lits) }

// Close writes the end-of-proof marker, flushes, and closes the underlying
// writer if it supports it.
func (s *TextSink) Close() error {
	if _, err := s.w.WriteString("0\n"); err != nil {
		return err
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
