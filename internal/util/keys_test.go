package util

import "testing"

func TestValidKey(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"\t\n", false},
		{"item", true},
		{" item ", true},
	}
	for _, tc := range cases {
		if got := ValidKey(tc.key); got != tc.want {
			t.Fatalf("ValidKey(%q)=%v want %v", tc.key, got, tc.want)
		}
	}
}

func TestStorageKey(t *testing.T) {
	if got := StorageKey("", "item"); got != "item" {
		t.Fatalf("empty namespace should keep key, got %q", got)
	}
	if got := StorageKey("app:user", "42"); got != "app:user:42" {
		t.Fatalf("namespaced key: got %q", got)
	}
}
