package titlelist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "titles.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadSkipsCommentsBlanksAndDuplicates(t *testing.T) {
	path := writeFile(t, "# focus titles\n\nRead ten pages\n  Read   ten pages \nPlan tomorrow\n")
	got, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"Read ten pages", "Plan tomorrow"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
}

func TestLoadAppliesFilter(t *testing.T) {
	path := writeFile(t, "Short\nThis title is definitely far too long\n整理桌面\n")
	got, err := Load(path, MaxWidth(10))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"Short", "整理桌面"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
}

func TestLoadEmpty(t *testing.T) {
	path := writeFile(t, "# nothing here\n\n")
	if _, err := Load(path, nil); err == nil {
		t.Fatalf("expected error for empty list")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMerge(t *testing.T) {
	got := Merge([]string{"a", "b"}, []string{"b", "c", "c"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merge = %v, want %v", got, want)
	}
}

func TestMaxWidthCountsWideRunes(t *testing.T) {
	keep := MaxWidth(4)
	if !keep("喝水") {
		t.Fatalf("two wide runes should fit in four cells")
	}
	if keep("喝水了") {
		t.Fatalf("three wide runes should not fit in four cells")
	}
	if !MaxWidth(0)("anything at all") {
		t.Fatalf("zero width disables the filter")
	}
}
