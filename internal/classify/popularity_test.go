package classify

import "testing"

func TestPopularityScore(t *testing.T) {
	tests := []struct {
		name       string
		primary    int
		secondary  int
		engagement int
		want       int
	}{
		{"zero metrics", 0, 0, 0, 0},
		{"primary only", 1000, 0, 0, 60},
		{"blended", 100, 50, 10, 8},
		{"rounds up", 110, 0, 0, 7}, // 6.6 rounds to 7
		{"capped at 100", 50000, 10000, 5000, 100},
		{"negative primary floors to zero", -500, 0, 0, 0},
		{"negative mix floors to zero", -100, -50, -10, 0},
		{"secondary outweighs engagement", 0, 100, 100, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PopularityScore(tt.primary, tt.secondary, tt.engagement)
			if got != tt.want {
				t.Errorf("PopularityScore(%d, %d, %d) = %d, want %d",
					tt.primary, tt.secondary, tt.engagement, got, tt.want)
			}
		})
	}
}

func TestPopularityScoreBounds(t *testing.T) {
	for _, primary := range []int{-1000000, -1, 0, 1, 999, 1000000} {
		got := PopularityScore(primary, primary/2, primary/10)
		if got < 0 || got > 100 {
			t.Errorf("PopularityScore with primary=%d out of bounds: %d", primary, got)
		}
	}
}
