package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{
			name: "relative path",
			base: "https://acme.example.com/en-US/External",
			href: "/job/Sydney/Engineer_JR-1",
			want: "https://acme.example.com/job/Sydney/Engineer_JR-1",
		},
		{
			name: "absolute href passes through",
			base: "https://acme.example.com",
			href: "https://other.example.com/job/1",
			want: "https://other.example.com/job/1",
		},
		{
			name: "unparseable base returns href",
			base: "://broken",
			href: "/job/1",
			want: "/job/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveURL(tt.base, tt.href))
		})
	}
}

func TestNormalizeSpace(t *testing.T) {
	assert.Equal(t, "Senior Engineer", normalizeSpace("  Senior \n\t Engineer  "))
	assert.Equal(t, "", normalizeSpace("   \n  "))
}

func TestControlDisabled(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"plain button", `<button class="next">n</button>`, false},
		{"disabled attribute", `<button disabled>n</button>`, true},
		{"aria-disabled true", `<button aria-disabled="true">n</button>`, true},
		{"aria-disabled false", `<button aria-disabled="false">n</button>`, false},
		{"disabled in class", `<button class="btn isDisabled">n</button>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, "<html><body>"+tt.html+"</body></html>")
			assert.Equal(t, tt.want, controlDisabled(doc.Find("button").First()))
		})
	}
}
