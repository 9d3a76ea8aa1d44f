// Package commands implements the deskunit-log subcommands.
package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/consultease/deskunit/pkg/log"
)

// ParseSeverityFlag converts a severity flag value to a Severity.
func ParseSeverityFlag(s string) (log.Severity, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.SeverityDebug, nil
	case "info":
		return log.SeverityInfo, nil
	case "warn":
		return log.SeverityWarn, nil
	case "error":
		return log.SeverityError, nil
	default:
		return 0, fmt.Errorf("unknown severity %q (debug, info, warn, error)", s)
	}
}

// ParseComponentFlag converts a component flag value to a Component.
func ParseComponentFlag(s string) (log.Component, error) {
	switch strings.ToLower(s) {
	case "scan":
		return log.ComponentScan, nil
	case "presence":
		return log.ComponentPresence, nil
	case "queue":
		return log.ComponentQueue, nil
	case "publish":
		return log.ComponentPublish, nil
	case "transport":
		return log.ComponentTransport, nil
	case "unit":
		return log.ComponentUnit, nil
	default:
		return 0, fmt.Errorf("unknown component %q (scan, presence, queue, publish, transport, unit)", s)
	}
}

// RunView prints matching events in human-readable form.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}

		fmt.Fprintf(w, "%s [%-5s] %-9s %s\n",
			event.Timestamp.Format("15:04:05.000"),
			event.Severity, event.Component, Summarize(event))
		count++
	}

	fmt.Fprintf(w, "\n%d events\n", count)
	return nil
}

// RunExport writes matching events as JSONL or CSV.
func RunExport(path, format, output string, filter log.Filter) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format %q (jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(event); err != nil {
			return err
		}
	}
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"timestamp", "faculty_id", "severity", "component", "summary"}); err != nil {
		return err
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		record := []string{
			event.Timestamp.Format(time.RFC3339Nano),
			fmt.Sprintf("%d", event.FacultyID),
			event.Severity.String(),
			event.Component.String(),
			Summarize(event),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
}

// Stats aggregates a log file.
type Stats struct {
	Total       int
	ByComponent map[string]int
	BySeverity  map[string]int

	Scans   uint64
	Hits    uint64
	Misses  uint64
	QueueOp map[string]int

	First, Last time.Time
}

// RunStats prints aggregate statistics for a log file.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	stats := Stats{
		ByComponent: make(map[string]int),
		BySeverity:  make(map[string]int),
		QueueOp:     make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		stats.Total++
		stats.ByComponent[event.Component.String()]++
		stats.BySeverity[event.Severity.String()]++
		if stats.First.IsZero() || event.Timestamp.Before(stats.First) {
			stats.First = event.Timestamp
		}
		if event.Timestamp.After(stats.Last) {
			stats.Last = event.Timestamp
		}

		if event.Scan != nil {
			stats.Scans++
			if event.Scan.Matched {
				stats.Hits++
			} else {
				stats.Misses++
			}
		}
		if event.Queue != nil {
			stats.QueueOp[event.Queue.Op.String()]++
		}
	}

	fmt.Fprintf(w, "Events:   %d\n", stats.Total)
	if stats.Total > 0 {
		fmt.Fprintf(w, "Span:     %s to %s (%s)\n",
			stats.First.Format(time.RFC3339), stats.Last.Format(time.RFC3339),
			stats.Last.Sub(stats.First).Round(time.Second))
	}

	fmt.Fprintln(w, "\nBy component:")
	printCounts(w, stats.ByComponent)
	fmt.Fprintln(w, "\nBy severity:")
	printCounts(w, stats.BySeverity)

	if stats.Scans > 0 {
		fmt.Fprintf(w, "\nScans: %d (%d hits, %d misses)\n", stats.Scans, stats.Hits, stats.Misses)
	}
	if len(stats.QueueOp) > 0 {
		fmt.Fprintln(w, "\nQueue operations:")
		printCounts(w, stats.QueueOp)
	}
	return nil
}

func printCounts(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-17s %d\n", k, counts[k])
	}
}

// Summarize renders the payload of an event on one line.
func Summarize(event log.Event) string {
	switch {
	case event.Scan != nil:
		s := event.Scan
		result := "miss"
		if s.Matched {
			result = fmt.Sprintf("hit %d dBm", s.RSSI)
		}
		if s.Failed {
			result += " (radio failure)"
		}
		return fmt.Sprintf("scan %s in %s (%s)", result, s.Mode, s.Duration)

	case event.Mode != nil:
		m := event.Mode
		out := fmt.Sprintf("mode %s -> %s", m.OldMode, m.NewMode)
		if m.Reason != "" {
			out += ": " + m.Reason
		}
		return out

	case event.Presence != nil:
		p := event.Presence
		out := fmt.Sprintf("%s (present=%t)", p.Change, p.Present)
		if p.GraceRemaining != nil {
			out += fmt.Sprintf(", %s grace left", p.GraceRemaining.Round(time.Second))
		}
		return out

	case event.Queue != nil:
		q := event.Queue
		out := fmt.Sprintf("%s size=%d", q.Op, q.Size)
		if q.MessageID != "" {
			out += " id=" + q.MessageID
		}
		if q.RetryCount > 0 {
			out += fmt.Sprintf(" retries=%d", q.RetryCount)
		}
		return out

	case event.Publish != nil:
		p := event.Publish
		return fmt.Sprintf("%s %s (%d bytes, attempt %d)", p.Outcome, p.Topic, p.Bytes, p.Attempt)

	case event.Transport != nil:
		t := event.Transport
		if t.Connected {
			return "connected to " + t.Broker
		}
		out := "disconnected from " + t.Broker
		if t.Reason != "" {
			out += ": " + t.Reason
		}
		return out

	case event.Stats != nil:
		s := event.Stats
		return fmt.Sprintf("stats scans=%d hits=%d misses=%d mode=%s present=%t",
			s.Scans, s.Hits, s.Misses, s.Mode, s.Present)

	case event.Error != nil:
		e := event.Error
		if e.Context != "" {
			return fmt.Sprintf("%s (%s)", e.Message, e.Context)
		}
		return e.Message

	default:
		return "(empty event)"
	}
}
