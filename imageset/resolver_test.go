package imageset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kucinghitam13/TF-FeatureExtraction/models"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveOrderingAndFiltering(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "c.png")
	touch(t, dir, "a.jpg")
	touch(t, dir, "b.PNG")
	touch(t, dir, "notes.txt")
	touch(t, dir, "noext")

	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "nested"), "d.png")

	got, err := Resolve(dir, []string{"jpg", "png"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "c.png"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}

	again, err := Resolve(dir, []string{"jpg", "png"})
	if err != nil {
		t.Fatalf("Resolve (repeat): %v", err)
	}
	if !reflect.DeepEqual(got, again) {
		t.Errorf("ordering not deterministic: %v then %v", got, again)
	}
}

func TestResolveDottedExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.jpeg")

	got, err := Resolve(dir, []string{".jpeg"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Resolve matched %d files, want 1", len(got))
	}
}

func TestResolveNoMatches(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "notes.txt")

	got, err := Resolve(dir, []string{"jpg", "png"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Resolve = %v, want empty", got)
	}
}

func TestResolveMissingDirectory(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "does-not-exist"), []string{"jpg"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Resolve error = %v, want ErrNotFound", err)
	}
}
