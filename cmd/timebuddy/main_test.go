package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectDayLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"timebuddy"},
			want: []string{"timebuddy"},
		},
		{
			name: "date first token",
			in:   []string{"timebuddy", "2024-01-05"},
			want: []string{"timebuddy", "day", "show", "2024-01-05"},
		},
		{
			name: "date after value flag",
			in:   []string{"timebuddy", "--dir", "./tmp-test", "2024-01-05"},
			want: []string{"timebuddy", "--dir", "./tmp-test", "day", "show", "2024-01-05"},
		},
		{
			name: "date after equals flag",
			in:   []string{"timebuddy", "--format=text", "2024-01-05"},
			want: []string{"timebuddy", "--format=text", "day", "show", "2024-01-05"},
		},
		{
			name: "date after bool flag",
			in:   []string{"timebuddy", "--pretty", "2024-01-05"},
			want: []string{"timebuddy", "--pretty", "day", "show", "2024-01-05"},
		},
		{
			name: "date after double dash",
			in:   []string{"timebuddy", "--", "2024-01-05"},
			want: []string{"timebuddy", "--", "day", "show", "2024-01-05"},
		},
		{
			name: "date flag value is not a positional",
			in:   []string{"timebuddy", "--date", "2024-01-05", "day", "show"},
			want: []string{"timebuddy", "--date", "2024-01-05", "day", "show"},
		},
		{
			name: "invalid date not rewritten",
			in:   []string{"timebuddy", "2024-02-30"},
			want: []string{"timebuddy", "2024-02-30"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"timebuddy", "month", "--date", "2024-01-05"},
			want: []string{"timebuddy", "month", "--date", "2024-01-05"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectDayLookupArgs(append([]string(nil), tt.in...))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
