package jobkey

import "testing"

func TestResolve(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "bare key", input: "2024-7", want: "2024-7", ok: true},
		{name: "key with suffix text", input: "2024-117 Smith Boundary Survey", want: "2024-117", ok: true},
		{name: "leading whitespace", input: "  2023-05 - Lot split", want: "2023-05", ok: true},
		{name: "tab and newline around key", input: "\t2024-7\n", want: "2024-7", ok: true},
		{name: "office project has no key", input: "Office Admin", ok: false},
		{name: "key not at start", input: "Job 2024-7", ok: false},
		{name: "short prefix", input: "202-7 Survey", ok: false},
		{name: "missing suffix", input: "2024- Survey", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := Resolve(tc.input)
			if ok != tc.ok {
				t.Fatalf("Resolve(%q) ok = %t, want %t", tc.input, ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestResolveFirst_FallsBackToLaterCandidates(t *testing.T) {
	t.Parallel()

	got, ok := ResolveFirst("", "not a key", "2025-3 Topo")
	if !ok || got != "2025-3" {
		t.Fatalf("expected 2025-3, got %q (ok=%t)", got, ok)
	}

	if _, ok := ResolveFirst("Office Admin", ""); ok {
		t.Fatalf("expected no key for unkeyed candidates")
	}
}
