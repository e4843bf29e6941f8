package wordlist

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "root\n\n  admin  \nsvc backup\nroot\n"
	if err := afero.WriteFile(fs, "/lists/users.txt", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(fs, "/lists/users.txt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"root", "admin", "svc", "backup", "root"}
	if !slices.Equal(got, want) {
		t.Fatalf("Load = %v, want %v", got, want)
	}
}

func TestLoadEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "users.txt", []byte("\n\n   \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(fs, "users.txt")
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("Load = %v, want ErrEmpty", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "missing.txt")
	if err == nil || errors.Is(err, ErrEmpty) {
		t.Fatalf("Load = %v, want a read error", err)
	}
	if !strings.Contains(err.Error(), "missing.txt") {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestLoadKeepsHashTokens(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "users.txt", []byte("#ops\nroot #1 svc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(fs, "users.txt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"#ops", "root", "#1", "svc"}
	if !slices.Equal(got, want) {
		t.Fatalf("Load = %v, want %v", got, want)
	}
}

func TestLoadCommentedSkipsComments(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "# lab hosts\n10.0.0.5\n  # retired\n10.0.0.6:2222 10.0.0.7\n"
	if err := afero.WriteFile(fs, "targets.txt", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadCommented(fs, "targets.txt")
	if err != nil {
		t.Fatalf("LoadCommented: %v", err)
	}
	want := []string{"10.0.0.5", "10.0.0.6:2222", "10.0.0.7"}
	if !slices.Equal(got, want) {
		t.Fatalf("LoadCommented = %v, want %v", got, want)
	}

	if err := afero.WriteFile(fs, "empty.txt", []byte("# nothing here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCommented(fs, "empty.txt"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("LoadCommented = %v, want ErrEmpty", err)
	}
}
