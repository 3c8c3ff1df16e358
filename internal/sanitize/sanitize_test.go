package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  John  ", "John"},
		{"strips angle brackets", "<script>alert(1)</script>", "scriptalert(1)/script"},
		{"strips quotes", `O"Brien O'Brien`, "OBrien OBrien"},
		{"empty stays empty", "", ""},
		{"only stripped chars", `<>"'`, ""},
		{"interior whitespace kept", "New   York", "New   York"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestTextTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := Text(long)
	assert.Len(t, got, 255)
}

func TestEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "John.Doe@Example.COM", "john.doe@example.com"},
		{"trims", "  a@b.co  ", "a@b.co"},
		{"keeps odd characters for the validator", "a<b@c.co", "a<b@c.co"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Email(tt.in))
		})
	}
}

func TestEmailTruncates(t *testing.T) {
	long := strings.Repeat("x", 300) + "@example.com"
	assert.Len(t, Email(long), 254)
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips spaces from card number", "4111 1111 1111 1111", "4111111111111111"},
		{"keeps decimal point", "99.95", "99.95"},
		{"keeps dash for zip+4", "12345-6789", "12345-6789"},
		{"drops letters and symbols", "$1,299.00abc", "1299.00"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Numeric(tt.in))
		})
	}
}

func TestNumericTruncates(t *testing.T) {
	assert.Len(t, Numeric(strings.Repeat("9", 40)), 20)
}
