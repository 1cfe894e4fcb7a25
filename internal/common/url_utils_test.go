package common

import "testing"

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"absolute unchanged", "https://www.iscc-system.org", "https://cdn.example.com/report.pdf", "https://cdn.example.com/report.pdf"},
		{"root relative", "https://www.iscc-system.org", "/uploads/cert.pdf", "https://www.iscc-system.org/uploads/cert.pdf"},
		{"path relative", "https://www.iscc-system.org/certs/", "audit.pdf", "https://www.iscc-system.org/certs/audit.pdf"},
		{"empty href", "https://www.iscc-system.org", "", ""},
		{"whitespace trimmed", "https://www.iscc-system.org", "  /a.pdf  ", "https://www.iscc-system.org/a.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveURL(tt.base, tt.href); got != tt.want {
				t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestURLHash(t *testing.T) {
	// md5("https://example.com/a.pdf")
	h1 := URLHash("https://example.com/a.pdf")
	h2 := URLHash("https://example.com/a.pdf")
	h3 := URLHash("https://example.com/b.pdf")

	if h1 != h2 {
		t.Error("hash should be stable for the same URL")
	}
	if h1 == h3 {
		t.Error("different URLs should hash differently")
	}
	if len(h1) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(h1))
	}
}

func TestIsPDFLink(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"/uploads/audit.pdf", true},
		{"/uploads/AUDIT.PDF", true},
		{"/uploads/audit.pdf?v=2", true},
		{"/uploads/audit.pdf#page=3", true},
		{"/uploads/audit.html", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsPDFLink(tt.href); got != tt.want {
			t.Errorf("IsPDFLink(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}
