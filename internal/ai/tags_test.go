package ai

import "testing"

func TestStripMarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare json",
			in:   `{"tags": []}`,
			want: `{"tags": []}`,
		},
		{
			name: "fenced json",
			in:   "```json\n{\"tags\": []}\n```",
			want: `{"tags": []}`,
		},
		{
			name: "prose around json",
			in:   "Here are the tags:\n{\"tags\": [{\"name\": \"rag\"}]}\nHope that helps!",
			want: `{"tags": [{"name": "rag"}]}`,
		},
		{
			name: "no json at all",
			in:   "I cannot answer that.",
			want: "I cannot answer that.",
		},
		{
			name: "whitespace trimmed",
			in:   "   {\"tags\": []}   ",
			want: `{"tags": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripMarkdownCodeBlock(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
