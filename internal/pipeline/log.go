package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// mutationLog accumulates the processing log of one mutation, written to
// the workdir when the mutation finishes. The log is the durable record
// of why a mutation did or did not georeference; its presence also marks
// the mutation as processed on the next batch run.
type mutationLog struct {
	id   string
	date *time.Time
	buf  strings.Builder
	init bool
}

func (l *mutationLog) header() {
	if l.init {
		return
	}
	l.init = true
	fmt.Fprintf(&l.buf, "MutationID: %s\n", l.id)
	if l.date != nil {
		fmt.Fprintf(&l.buf, "MutationDate: %s\n", l.date.Format("2006-01-02"))
	} else {
		l.buf.WriteString("MutationDate: unknown\n")
	}
	fmt.Fprintf(&l.buf, "Started: t=%s\n", time.Now().UTC().Format(time.RFC3339))
}

func (l *mutationLog) printf(format string, args ...any) {
	l.header()
	fmt.Fprintf(&l.buf, format+"\n", args...)
}

func (l *mutationLog) status(s Status) {
	l.header()
	fmt.Fprintf(&l.buf, "Status: %s\n", s)
}

func (l *mutationLog) bytes() []byte {
	return []byte(l.buf.String())
}

// statusFromLog recovers the final status line from a previously
// written mutation log. A log without one does not count as a
// checkpoint and the mutation is processed again.
func statusFromLog(data []byte) (Status, bool) {
	var s Status
	for _, line := range strings.Split(string(data), "\n") {
		if rest, ok := strings.CutPrefix(line, "Status: "); ok {
			s = Status(rest)
		}
	}
	return s, s != ""
}
