package domain

import "testing"

func TestDeriveURLDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string // "" means nil expected
	}{
		{"https", "https://example.com/path?q=1", "example.com"},
		{"http with port", "http://example.com:8080/x", "example.com"},
		{"subdomain", "https://blog.example.co.uk", "blog.example.co.uk"},
		{"uppercase host", "https://EXAMPLE.com", "example.com"},
		{"surrounding space", "  https://example.com  ", "example.com"},
		{"no host", "not a url", ""},
		{"relative path", "/just/a/path", ""},
		{"empty", "", ""},
		{"scheme only", "https://", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DeriveURLDomain(tt.in)
			if tt.want == "" {
				if got != nil {
					t.Errorf("DeriveURLDomain(%q) = %q, want nil", tt.in, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("DeriveURLDomain(%q) = nil, want %q", tt.in, tt.want)
			}
			if *got != tt.want {
				t.Errorf("DeriveURLDomain(%q) = %q, want %q", tt.in, *got, tt.want)
			}
		})
	}
}
