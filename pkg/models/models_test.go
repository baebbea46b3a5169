package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskWindow_Validate(t *testing.T) {
	start := MustParseDate("2024-01-01")

	cases := []struct {
		name    string
		window  TaskWindow
		wantErr string
	}{
		{"single day", TaskWindow{Start: start, End: start}, ""},
		{"longest allowed", TaskWindow{Start: start, End: start.AddDays(MaxWindowDays - 1)}, ""},
		{"one day too long", TaskWindow{Start: start, End: start.AddDays(MaxWindowDays)}, "longer than"},
		{"whole calendar", TaskWindow{Start: MustParseDate("0002-01-01"), End: MustParseDate("9999-12-31")}, "longer than"},
		{"reversed", TaskWindow{Start: start, End: start.AddDays(-1)}, "before start"},
		{"missing end", TaskWindow{Start: start}, "requires both"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.window.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
