package locate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// setupRuns builds an output tree like the generator produces:
// root/run_01/N_list, root/run_02/N_list.txt, root/run_03 (empty).
func setupRuns(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dirs := map[string]string{
		"run_01": "N_list",
		"run_02": "N_list.txt",
		"run_03": "",
	}
	for dir, file := range dirs {
		path := filepath.Join(root, dir)
		if err := os.MkdirAll(path, 0755); err != nil {
			t.Fatal(err)
		}
		if file != "" {
			if err := os.WriteFile(filepath.Join(path, file), []byte("ITEM:\n"), 0644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return root
}

func TestLocate_GlobOverRunDirs(t *testing.T) {
	root := setupRuns(t)

	res, err := Locate([]string{filepath.Join(root, "run_*")}, nil)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	want := []string{
		filepath.Join(root, "run_01", "N_list"),
		filepath.Join(root, "run_02", "N_list.txt"),
	}
	if diff := cmp.Diff(want, res.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
	if len(res.Misses) != 0 {
		t.Errorf("Misses = %v, want none", res.Misses)
	}
}

func TestLocate_DirectoryProbesDefaultNames(t *testing.T) {
	root := setupRuns(t)

	res, err := Locate([]string{filepath.Join(root, "run_02")}, nil)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	want := []string{filepath.Join(root, "run_02", "N_list.txt")}
	if diff := cmp.Diff(want, res.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}

func TestLocate_EmptyDirectoryIsAMiss(t *testing.T) {
	root := setupRuns(t)

	res, err := Locate([]string{filepath.Join(root, "run_03")}, nil)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if len(res.Files) != 0 {
		t.Errorf("Files = %v, want none", res.Files)
	}
	if len(res.Misses) != 1 {
		t.Fatalf("Misses = %v, want 1", res.Misses)
	}
}

func TestLocate_MistypedPathReportedPerPattern(t *testing.T) {
	root := setupRuns(t)
	good := filepath.Join(root, "run_01")
	bad := filepath.Join(root, "runs_typo")

	res, err := Locate([]string{good, bad}, nil)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if len(res.Files) != 1 {
		t.Errorf("Files = %v, want the one good match", res.Files)
	}
	if len(res.Misses) != 1 || res.Misses[0].Pattern != bad {
		t.Errorf("Misses = %v, want miss for %q", res.Misses, bad)
	}
}

func TestLocate_WhitespaceInPath(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "10Ncluster_implantation to C_5keV")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "N_list")
	if err := os.WriteFile(file, []byte("x y z\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Locate([]string{dir}, nil)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if diff := cmp.Diff([]string{file}, res.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}

func TestLocate_Deduplicates(t *testing.T) {
	root := setupRuns(t)
	file := filepath.Join(root, "run_01", "N_list")

	res, err := Locate([]string{file, filepath.Join(root, "run_01"), filepath.Join(root, "run_*")}, nil)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	count := 0
	for _, f := range res.Files {
		abs1, _ := filepath.Abs(f)
		abs2, _ := filepath.Abs(file)
		if abs1 == abs2 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("run_01/N_list appears %d times, want 1 (files: %v)", count, res.Files)
	}
}

func TestLocate_RecursiveGlob(t *testing.T) {
	root := t.TempDir()
	files := []string{
		filepath.Join(root, "batch_a", "run_01", "N_list"),
		filepath.Join(root, "batch_b", "deep", "run_01", "N_list"),
	}
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(f, []byte("0 0 100\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// A decoy at a depth the pattern's trailing segment does not name.
	decoy := filepath.Join(root, "batch_a", "other.txt")
	if err := os.WriteFile(decoy, []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Locate([]string{filepath.Join(root, "**", "N_list")}, nil)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if diff := cmp.Diff(files, res.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
	if len(res.Misses) != 0 {
		t.Errorf("Misses = %v, want none", res.Misses)
	}
}

func TestLocate_RecursiveGlobMatchesDirectories(t *testing.T) {
	root := setupRuns(t)
	nested := filepath.Join(root, "sub", "run_04")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "N_list.xyz"), []byte("0 0 90\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// Matched directories are probed for the default result names, same as
	// single-level globs.
	res, err := Locate([]string{filepath.Join(root, "**", "run_*")}, nil)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	want := []string{
		filepath.Join(root, "run_01", "N_list"),
		filepath.Join(root, "run_02", "N_list.txt"),
		filepath.Join(nested, "N_list.xyz"),
	}
	if diff := cmp.Diff(want, res.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}

func TestLocate_CustomResultNames(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "vacancies.csv")
	if err := os.WriteFile(file, []byte("x,y,z\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Locate([]string{root}, []string{"vacancies.csv"})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if diff := cmp.Diff([]string{file}, res.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}
