package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/giftwell/edgegate/internal/config"
	"github.com/giftwell/edgegate/internal/core"
)

func sampleEntry(id string) core.AuditEntry {
	return core.AuditEntry{
		ID:     id,
		Time:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Action: core.AuditActionDenied,
		UserID: "u1",
		Method: "POST",
		Path:   "/api/gifts",
		Reason: core.ReasonNoAppPermission,
		Status: 403,
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("session-token")
	if fp == "" || fp == "session-token" {
		t.Fatalf("fingerprint = %q", fp)
	}
	if Fingerprint("session-token") != fp {
		t.Error("fingerprint is not deterministic")
	}
	if Fingerprint("other-token") == fp {
		t.Error("different tokens share a fingerprint")
	}
	if Fingerprint("") != "" {
		t.Error("empty token should have no fingerprint")
	}
}

func TestInMemoryAuditorGetRecent(t *testing.T) {
	a := NewInMemoryAuditor()
	for _, id := range []string{"r1", "r2", "r3"} {
		if err := a.Log(sampleEntry(id)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := a.GetRecent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].ID != "r2" || entries[1].ID != "r3" {
		t.Errorf("entries = %+v, want the two newest oldest-first", entries)
	}

	// limit larger than the log
	entries, _ = a.GetRecent(100)
	if len(entries) != 3 {
		t.Errorf("len = %d, want all 3", len(entries))
	}
}

func TestFileAuditorWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	a, err := NewFileAuditor(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Log(sampleEntry("r1")); err != nil {
		t.Fatal(err)
	}
	if err := a.Log(sampleEntry("r2")); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry core.AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("lines = %d, want 2", lines)
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.AuditConfig
		wantType string
		wantErr  string
	}{
		{
			name:     "Disabled - Noop",
			cfg:      config.AuditConfig{Enabled: false, Type: "file"},
			wantType: "*audit.NoopAuditor",
		},
		{
			name:     "Memory",
			cfg:      config.AuditConfig{Enabled: true, Type: "memory"},
			wantType: "*audit.InMemoryAuditor",
		},
		{
			name:    "File Without Path",
			cfg:     config.AuditConfig{Enabled: true, Type: "file"},
			wantErr: "requires a path",
		},
		{
			name:    "Unknown Type",
			cfg:     config.AuditConfig{Enabled: true, Type: "kafka"},
			wantErr: "unknown audit sink",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Build(tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := typeName(a); got != tt.wantType {
				t.Errorf("type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestBuildFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	a, err := Build(config.AuditConfig{
		Enabled: true,
		Type:    "file",
		Options: map[string]any{"path": path},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if err := a.Log(sampleEntry("r1")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("audit file not created: %v", err)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *NoopAuditor:
		return "*audit.NoopAuditor"
	case *InMemoryAuditor:
		return "*audit.InMemoryAuditor"
	case *FileAuditor:
		return "*audit.FileAuditor"
	default:
		return "unknown"
	}
}
