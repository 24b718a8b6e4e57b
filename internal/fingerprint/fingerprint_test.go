package fingerprint

import "testing"

func TestContent_SameInputSameDigest(t *testing.T) {
	if Content("hello") != Content("hello") {
		t.Fatal("expected stable digest for identical input")
	}
}

func TestContent_DifferentInputDifferentDigest(t *testing.T) {
	if Content("hello") == Content("world") {
		t.Fatal("expected distinct digests for distinct input")
	}
}

func TestFileSet_OrderIndependent(t *testing.T) {
	a := map[string]string{"a.txt": "1", "b.txt": "2"}
	b := map[string]string{"b.txt": "2", "a.txt": "1"}
	if FileSet(a) != FileSet(b) {
		t.Fatal("expected map iteration order not to affect digest")
	}
}

func TestFileSet_ContentChangeChangesDigest(t *testing.T) {
	a := map[string]string{"a.txt": "1"}
	b := map[string]string{"a.txt": "2"}
	if FileSet(a) == FileSet(b) {
		t.Fatal("expected digest to change when content changes")
	}
}

func TestFileSet_EmptyMapIsStable(t *testing.T) {
	if FileSet(map[string]string{}) != FileSet(map[string]string{}) {
		t.Fatal("expected empty file set digest to be stable")
	}
}
