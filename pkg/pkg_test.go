package pkg

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "aql" {
		t.Errorf("Name = %q, want %q", Name, "aql")
	}

	if EnvPath != "AQL_PATH" {
		t.Errorf("EnvPath = %q, want %q", EnvPath, "AQL_PATH")
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("read VERSION: %v", err)
	}

	if Version != string(buf) {
		t.Errorf("Version = %q, want %q", Version, buf)
	}

	if strings.TrimSpace(Version) == "" {
		t.Error("Version is empty")
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Author = %v, lacks ardnew", Author)
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestBasePrefix(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/usr/bin/aql", "aql"},
		{"/tmp/__debug_bin3011", Name},
		{"./.aql", "aql"},
		{"/usr/local/bin/query.exe", "query"},
		{"/opt/...", Name},
	}

	for _, tt := range tests {
		if got := basePrefix(filepath.FromSlash(tt.path)); got != tt.want {
			t.Errorf("basePrefix(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath("config.yaml")
	if filepath.Dir(got) != ConfigDir() {
		t.Errorf("ConfigPath dir = %q, want %q", filepath.Dir(got), ConfigDir())
	}

	if got := CachePath(); got != CacheDir() {
		t.Errorf("CachePath() = %q, want %q", got, CacheDir())
	}
}

func TestSearchPath(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	missing := filepath.Join(root, "missing")

	for _, dir := range []string{a, b} {
		if err := os.Mkdir(dir, 0o700); err != nil {
			t.Fatal(err)
		}
	}

	env := strings.Join([]string{b, missing}, string(os.PathListSeparator))

	got := SearchPath(env, a)
	if !slices.Equal(got, []string{a, b}) {
		t.Errorf("SearchPath = %q, want %q", got, []string{a, b})
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()

	file := filepath.Join(root, "users.aql")
	if err := os.WriteFile(file, []byte("return 1"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		dirs    []string
		want    string
		wantErr bool
	}{
		{file, nil, file, false},
		{"users.aql", []string{root}, file, false},
		{"users", []string{t.TempDir(), root}, file, false},
		{"other", []string{root}, "", true},
		{filepath.Join(root, "none.aql"), []string{root}, "", true},
	}

	for _, tt := range tests {
		got, err := Resolve(tt.name, tt.dirs)
		if tt.wantErr {
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Resolve(%q) error = %v, want ErrNotFound", tt.name, err)
			}

			continue
		}

		if err != nil || got != tt.want {
			t.Errorf("Resolve(%q) = %q, %v, want %q", tt.name, got, err, tt.want)
		}
	}
}
