package logsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSourceReadsToEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.csv")
	content := `"remotehost","rfc931","authuser","date","request","status","bytes"
"10.0.0.2","-","apache",1549573860,"GET /api/user HTTP/1.0",200,1234
"10.0.0.4","-","apache",1549573861,"POST /report HTTP/1.0",503,7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	src, err := NewFileSource(context.Background(), path, Config{BufferSize: 4})
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	defer src.Stop()

	if src.Name() != "file" || src.Path() != path {
		t.Fatalf("name/path = %q %q", src.Name(), src.Path())
	}

	got := collect(t, src)
	if len(got) != 3 {
		t.Fatalf("lines = %d, want 3", len(got))
	}
	if got[2].Source != "file" {
		t.Fatalf("source = %q, want file", got[2].Source)
	}
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewFileSource(context.Background(), filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := NewFileSource(context.Background(), dir); err == nil {
		t.Fatal("expected error for directory")
	}
}
