package textnorm

import "testing"

func TestNormalize_CaseAndWhitespace(t *testing.T) {
	opts := DefaultOptions()

	a := Normalize("Lab Test", opts)
	b := Normalize("lab   test", opts)
	c := Normalize("LAB TEST", opts)

	if a != b || b != c {
		t.Errorf("expected equal normalized forms, got %q %q %q", a, b, c)
	}
	if a != "lab test" {
		t.Errorf("expected 'lab test', got %q", a)
	}
}

func TestNormalize_Diacritics(t *testing.T) {
	opts := DefaultOptions()
	if Normalize("café", opts) != Normalize("cafe", opts) {
		t.Error("expected 'café' and 'cafe' to normalize equally")
	}
}

func TestNormalize_Punctuation(t *testing.T) {
	opts := Options{RemovePunctuation: true, CollapseSpaces: true}
	if got := Normalize("X-Ray, Chest", opts); got != "xray chest" {
		t.Errorf("expected 'xray chest', got %q", got)
	}

	// Punctuation preserved by default.
	if got := Normalize("X-Ray", DefaultOptions()); got != "x-ray" {
		t.Errorf("expected 'x-ray', got %q", got)
	}
}

func TestNormalize_TrimAndCollapse(t *testing.T) {
	if got := Normalize("  Complete   Blood\tCount  ", DefaultOptions()); got != "complete blood count" {
		t.Errorf("unexpected result %q", got)
	}
}

func TestNormalize_RemoveSpaces(t *testing.T) {
	opts := Options{CollapseSpaces: false}
	if got := Normalize("Lab Test", opts); got != "labtest" {
		t.Errorf("expected 'labtest', got %q", got)
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize("", DefaultOptions()); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestEqual(t *testing.T) {
	if !Equal("Laboratory", "LABORATORY") {
		t.Error("expected case-insensitive equality")
	}
	if Equal("Laboratory", "Radiology") {
		t.Error("expected distinct names to differ")
	}
}
