package order_test

import (
	"testing"

	"github.com/MrWong99/orderbot/internal/order"
)

func TestSynonyms_Resolve(t *testing.T) {
	t.Parallel()

	s := order.DefaultSynonyms()
	tests := []struct{ in, want string }{
		{"soda", "coke"},
		{"french fries", "fries"},
		{"chicken", "chicken biryani"},
		{"lassi", "lassi"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := s.Resolve(tc.in); got != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSynonyms_Idempotent(t *testing.T) {
	t.Parallel()

	s := order.DefaultSynonyms()
	if err := s.Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	for k := range s {
		once := s.Resolve(k)
		if twice := s.Resolve(once); twice != once {
			t.Errorf("Resolve(Resolve(%q)) = %q, want %q", k, twice, once)
		}
	}
}

func TestNewSynonyms(t *testing.T) {
	t.Parallel()

	s, err := order.NewSynonyms(map[string]string{" Pop ": "COKE"})
	if err != nil {
		t.Fatalf("NewSynonyms: %v", err)
	}
	if got := s.Resolve("pop"); got != "coke" {
		t.Errorf("Resolve(pop) = %q, want coke", got)
	}

	tests := []struct {
		name string
		in   map[string]string
	}{
		{"chained", map[string]string{"pop": "soda", "soda": "coke"}},
		{"empty key", map[string]string{" ": "coke"}},
		{"empty value", map[string]string{"pop": ""}},
	}
	for _, tc := range tests {
		if _, err := order.NewSynonyms(tc.in); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
