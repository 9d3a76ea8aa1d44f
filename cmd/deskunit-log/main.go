// Command deskunit-log views and analyzes desk unit event log files.
//
// Log files are created by running deskunit with -log-dir. They hold one
// CBOR-encoded event per record.
//
// Usage:
//
//	deskunit-log <command> [flags] <file.dlog>
//
// Commands:
//
//	view     View a log file in human-readable format
//	export   Export a log file to JSONL or CSV
//	stats    Show statistics about a log file
//
// Examples:
//
//	# View all events
//	deskunit-log view unit.dlog
//
//	# View only presence transitions
//	deskunit-log view -component presence unit.dlog
//
//	# Export warnings and errors to JSONL
//	deskunit-log export -severity warn unit.dlog
//
//	# Show statistics
//	deskunit-log stats unit.dlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/consultease/deskunit/cmd/deskunit-log/commands"
	"github.com/consultease/deskunit/pkg/log"
)

const usage = `deskunit-log - Desk Unit Event Log Analyzer

Usage:
  deskunit-log <command> [flags] <file.dlog>

Commands:
  view     View a log file in human-readable format
  export   Export a log file to JSONL or CSV
  stats    Show statistics about a log file

Use "deskunit-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// filterFlags registers the shared filter flags on a flag set.
func filterFlags(fs *flag.FlagSet) (severity, component *string, facultyID *int) {
	severity = fs.String("severity", "", "Filter by severity (debug, info, warn, error)")
	component = fs.String("component", "", "Filter by component (scan, presence, queue, publish, transport, unit)")
	facultyID = fs.Int("faculty-id", 0, "Filter by faculty ID")
	return
}

// buildFilter converts the shared filter flags to a log.Filter.
func buildFilter(severity, component string, facultyID int) (log.Filter, error) {
	filter := log.Filter{FacultyID: facultyID}

	if severity != "" {
		s, err := commands.ParseSeverityFlag(severity)
		if err != nil {
			return filter, err
		}
		filter.Severity = &s
	}
	if component != "" {
		c, err := commands.ParseComponentFlag(component)
		if err != nil {
			return filter, err
		}
		filter.Component = &c
	}
	return filter, nil
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	severity, component, facultyID := filterFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		os.Exit(1)
	}

	filter, err := buildFilter(*severity, *component, *facultyID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := commands.RunView(fs.Arg(0), filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	severity, component, facultyID := filterFlags(fs)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		os.Exit(1)
	}

	filter, err := buildFilter(*severity, *component, *facultyID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := commands.RunExport(fs.Arg(0), *format, *output, filter); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
