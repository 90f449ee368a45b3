package models

import "testing"

func TestSourceValidate(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		wantErr bool
	}{
		{
			name:   "valid structured source",
			source: Source{ID: "acme", Name: "Acme Careers", URL: "https://acme.example.com/jobs", Structured: true},
		},
		{
			name:    "missing id",
			source:  Source{Name: "Acme", URL: "https://acme.example.com"},
			wantErr: true,
		},
		{
			name:    "missing name",
			source:  Source{ID: "acme", URL: "https://acme.example.com"},
			wantErr: true,
		},
		{
			name:    "invalid url",
			source:  Source{ID: "acme", Name: "Acme", URL: "not a url"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPostingKey(t *testing.T) {
	posting := Posting{ExternalID: "JR-100123", SourceID: "acme"}
	if posting.Key() != "acme/JR-100123" {
		t.Errorf("Unexpected key: %q", posting.Key())
	}
}

func TestSubscriberValidate(t *testing.T) {
	valid := Subscriber{Name: "Jane", Email: "jane@example.com"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid subscriber, got %v", err)
	}

	invalid := Subscriber{Name: "Nope", Email: "not-an-email"}
	if err := invalid.Validate(); err == nil {
		t.Error("Expected invalid email to fail validation")
	}
}
