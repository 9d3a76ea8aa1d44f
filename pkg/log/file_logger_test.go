package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	// File should exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerWritesCBOR(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	event := Event{
		Timestamp: time.Now(),
		FacultyID: 1,
		Severity:  SeverityDebug,
		Component: ComponentScan,
		Scan: &ScanEvent{
			Mode:     "SEARCHING",
			Matched:  true,
			RSSI:     -62,
			Duration: 3 * time.Second,
		},
	}

	logger.Log(event)
	logger.Close()

	// Read the file and decode
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	if len(data) == 0 {
		t.Fatal("log file is empty")
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}

	if decoded.FacultyID != event.FacultyID {
		t.Errorf("FacultyID: got %d, want %d", decoded.FacultyID, event.FacultyID)
	}
	if decoded.Scan == nil {
		t.Error("Scan is nil")
	} else if decoded.Scan.RSSI != event.Scan.RSSI {
		t.Errorf("Scan.RSSI: got %d, want %d", decoded.Scan.RSSI, event.Scan.RSSI)
	}
}

func TestFileLoggerConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	const writers = 4
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				logger.Log(Event{
					Timestamp: time.Now(),
					FacultyID: 1,
					Severity:  SeverityDebug,
					Component: ComponentQueue,
					Queue:     &QueueEvent{Op: QueueEnqueued, Size: i},
				})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed after %d events: %v", count, err)
		}
		count++
	}

	if count != writers*perWriter {
		t.Errorf("event count: got %d, want %d", count, writers*perWriter)
	}
}

func TestFileLoggerLogAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	// Must not panic or write
	logger.Log(Event{Timestamp: time.Now()})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) != 0 {
		t.Error("Log after Close wrote data")
	}
}

func TestReaderFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	components := []Component{ComponentScan, ComponentQueue, ComponentScan, ComponentPublish}
	for _, c := range components {
		logger.Log(Event{
			Timestamp: time.Now(),
			FacultyID: 1,
			Component: c,
		})
	}
	logger.Close()

	want := ComponentScan
	reader, err := NewFilteredReader(path, Filter{Component: &want})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if ev.Component != ComponentScan {
			t.Errorf("filtered event component: got %v, want %v", ev.Component, ComponentScan)
		}
		count++
	}

	if count != 2 {
		t.Errorf("filtered event count: got %d, want 2", count)
	}
}
