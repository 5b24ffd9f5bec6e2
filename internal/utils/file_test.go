package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRefBaseName(t *testing.T) {
	tests := map[string]string{
		"sprites/25.png": "25.png",
		"https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/25.png?x=1": "25.png",
		"http://example.test/":        "sprite",
		"data:image/png;base64,AAAA":  "sprite",
		"/tmp/creatures/mr-mime.webp": "mr-mime.webp",
	}
	for in, want := range tests {
		if got := RefBaseName(in); got != want {
			t.Errorf("RefBaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	tests := []struct {
		ref, dir, prefix, suffix, format string
		want                             string
	}{
		{"in/25.png", "out", "", "_trimmed", "", filepath.Join("out", "25_trimmed.png")},
		{"https://example.test/s/4.png", ".", "", "_trimmed", "webp", "4_trimmed.webp"},
		{"data:image/png;base64,AAAA", "out", "x_", "", "", filepath.Join("out", "x_sprite.png")},
	}
	for _, tt := range tests {
		got := GenerateOutputFilename(tt.ref, tt.dir, tt.prefix, tt.suffix, tt.format)
		if got != tt.want {
			t.Errorf("GenerateOutputFilename(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" a:b*c?.png. "); got != "a_b_c_.png" {
		t.Errorf("SanitizeFilename = %q", got)
	}
}

func TestEnsureDirAndFileExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if FileExists(dir) {
		t.Error("directory reported as file")
	}

	file := filepath.Join(dir, "x.png")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(file) {
		t.Error("file not found")
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Error("missing file reported present")
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KB",
		5 << 20: "5.0 MB",
	}
	for in, want := range tests {
		if got := FormatFileSize(in); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestGetFileExtension(t *testing.T) {
	if GetFileExtension("A.PNG") != "png" || GetFileExtension("noext") != "" {
		t.Error("unexpected extension handling")
	}
}
