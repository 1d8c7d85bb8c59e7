package duotoneanim

import (
	"io"
	"log"
)

type logStream int

const (
	opsStream   logStream = iota // run failures and unanimatable inputs
	diagStream                   // one-off facts about a run
	traceStream                  // one line per emitted batch
	numStreams
)

// Nil entries are silent.
var streams [numStreams]*log.Logger

// SetLogWriters routes the package's ops, diag and trace output. A nil
// writer silences its stream. Not safe to call while a run is logging.
func SetLogWriters(ops, diag, trace io.Writer) {
	for s, w := range [numStreams]io.Writer{ops, diag, trace} {
		streams[s] = nil
		if w != nil {
			streams[s] = log.New(w, "[duotoneanim] ", log.LstdFlags|log.Lmicroseconds)
		}
	}
}

func logf(s logStream, format string, args ...any) {
	if l := streams[s]; l != nil {
		l.Printf(format, args...)
	}
}

func opsf(format string, args ...any)   { logf(opsStream, format, args...) }
func diagf(format string, args ...any)  { logf(diagStream, format, args...) }
func tracef(format string, args ...any) { logf(traceStream, format, args...) }
