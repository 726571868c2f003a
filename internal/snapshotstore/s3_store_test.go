package snapshotstore

import "testing"

func TestObjectKey(t *testing.T) {
	cases := []struct {
		runID, role, rel string
		want             string
	}{
		{"run-1", RoleCapture, "index.html", "run-1/capture/index.html"},
		{"run-1", RoleRedesign, "css/main.css", "run-1/redesign/css/main.css"},
		{"run-2", "", "report.json", "run-2/report.json"},
	}
	for _, c := range cases {
		if got := objectKey(c.runID, c.role, c.rel); got != c.want {
			t.Fatalf("objectKey(%q,%q,%q)=%q want %q", c.runID, c.role, c.rel, got, c.want)
		}
	}
}

func TestConfigEnabled(t *testing.T) {
	if (Config{}).Enabled() {
		t.Fatal("empty config should be disabled")
	}
	if !(Config{Endpoint: "127.0.0.1:9000", Bucket: "revamp"}).Enabled() {
		t.Fatal("endpoint+bucket should enable the store")
	}
}
