package model

import "testing"

func TestCategory_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category Category
		expected string
	}{
		{CategoryIrrelevant, "irrelevant"},
		{CategoryCrawlable, "crawlable"},
		{CategoryProduct, "product"},
		{Category(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			if got := tt.category.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDomainStatus_IsPartial(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   DomainStatus
		expected bool
	}{
		{StatusExhausted, false},
		{StatusCancelled, true},
		{StatusPageLimit, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()

			if got := tt.status.IsPartial(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
