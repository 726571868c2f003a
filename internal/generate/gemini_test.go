package generate

import "testing"

func TestSafeManifestPath(t *testing.T) {
	ok := []struct{ in, want string }{
		{"index.html", "index.html"},
		{"css/main.css", "css/main.css"},
		{" about.html ", "about.html"},
		{"a/./b.js", "a/b.js"},
	}
	for _, c := range ok {
		got, err := safeManifestPath(c.in)
		if err != nil {
			t.Fatalf("safeManifestPath(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("safeManifestPath(%q)=%q want %q", c.in, got, c.want)
		}
	}

	bad := []string{"", "/etc/passwd", "../x.html", "a/../../b", `c:\win`, "."}
	for _, in := range bad {
		if _, err := safeManifestPath(in); err == nil {
			t.Fatalf("safeManifestPath(%q) accepted an unsafe path", in)
		}
	}
}
