package project

import "testing"

func TestIsIgnored(t *testing.T) {
	cases := []struct {
		path   string
		ignore bool
	}{
		{"data.gpkg-wal", true},
		{"data.gpkg-shm", true},
		{"project.qgs~", true},
		{"project.qgz~", true},
		{"__pycache__/mod.pyc", true},
		{"notes.txt~", true},
		{".DS_Store", true},
		{"sub/.DS_Store", true},
		{".directory", true},
		{"a.txt", false},
		{"sub/dir/b.gpkg", false},
		{"README.md", false},
	}

	for _, c := range cases {
		if got := IsIgnored(c.path); got != c.ignore {
			t.Errorf("IsIgnored(%q) = %v, want %v", c.path, got, c.ignore)
		}
	}
}
