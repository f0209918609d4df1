package grf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTestArchive(t *testing.T, files []File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.grf")
	if err := Write(path, files); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return path
}

func TestOpenAndList(t *testing.T) {
	path := writeTestArchive(t, []File{
		{Name: `data\model\tree.rsm`, Data: []byte("GRSM")},
		{Name: "data/test.txt", Data: []byte("Hello, GRF!")},
	})

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer archive.Close()

	files := archive.List()
	want := []string{"data/model/tree.rsm", "data/test.txt"}
	if len(files) != len(want) {
		t.Fatalf("List() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestContains(t *testing.T) {
	path := writeTestArchive(t, []File{
		{Name: "data/model/Tree.rsm", Data: []byte("x")},
	})

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer archive.Close()

	tests := []struct {
		path string
		want bool
	}{
		{"data/model/tree.rsm", true},
		{`DATA\MODEL\TREE.RSM`, true},
		{"data/model/rock.rsm", false},
	}

	for _, tt := range tests {
		if got := archive.Contains(tt.path); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRead(t *testing.T) {
	payload := bytes.Repeat([]byte("paint template "), 200)
	path := writeTestArchive(t, []File{
		{Name: "data/big.txt", Data: payload},
		{Name: "data/나무.rsm", Data: []byte("korean name")},
	})

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer archive.Close()

	data, err := archive.Read("data/big.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Read returned %d bytes, want %d", len(data), len(payload))
	}

	data, err = archive.Read("data/나무.rsm")
	if err != nil {
		t.Fatalf("Read of EUC-KR name failed: %v", err)
	}
	if string(data) != "korean name" {
		t.Errorf("Read = %q", data)
	}

	if _, err := archive.Read("data/missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read missing = %v, want ErrNotFound", err)
	}
}

func TestOpenInvalid(t *testing.T) {
	dir := t.TempDir()

	badMagic := filepath.Join(dir, "bad.grf")
	if err := os.WriteFile(badMagic, make([]byte, 64), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(badMagic); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("Open bad magic = %v, want ErrInvalidMagic", err)
	}

	if _, err := Open(filepath.Join(dir, "missing.grf")); err == nil {
		t.Error("expected error opening missing archive")
	}
}
