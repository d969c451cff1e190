package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeCSV(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`Jane "JJ" Doe, Realtor`, `"Jane ""JJ"" Doe, Realtor"`},
		{"plain", "plain"},
		{" leading space", " leading space"},
		{"two\nlines", "\"two\nlines\""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeCSV(tt.in), "input %q", tt.in)
	}
}

func TestRenderCSV(t *testing.T) {
	got := RenderCSV(ContactsHeader, [][]string{
		{"Jane Doe", "(904) 555-1234", "jane@x.com", "https://x.com/?a=1,2"},
	})
	assert.Equal(t, "name,phone,email,sourceUrl\n"+
		"Jane Doe,(904) 555-1234,jane@x.com,\"https://x.com/?a=1,2\"\n", got)

	assert.Equal(t, "EMAIL,SMS,FIRSTNAME,LASTNAME,SOURCEURL\n", RenderCSV(ImportHeader, nil))
}
