package domain

import "testing"

func TestFeeConfig_TotalPrice(t *testing.T) {
	tests := []struct {
		name    string
		percent int64
		price   int64
		want    int64
	}{
		{"one percent of 200", 1, 200, 202},
		{"one percent of 100", 1, 100, 101},
		{"fee truncates below one unit", 1, 99, 99},
		{"fee truncates on odd amounts", 1, 150, 151},
		{"single smallest unit", 1, 1, 1},
		{"zero percent", 0, 500, 500},
		{"two percent", 2, 1000, 1020},
		{"hundred percent doubles", 100, 77, 154},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FeeConfig{Account: "treasury", Percent: tt.percent}
			if got := c.TotalPrice(tt.price); got != tt.want {
				t.Errorf("TotalPrice(%d) with %d%% = %d, want %d", tt.price, tt.percent, got, tt.want)
			}
		})
	}
}

func TestFeeConfig_Fee_IsDifferenceFromTotal(t *testing.T) {
	c := FeeConfig{Account: "treasury", Percent: 3}
	price := int64(12345)
	if got, want := c.Fee(price), c.TotalPrice(price)-price; got != want {
		t.Errorf("Fee(%d) = %d, want %d", price, got, want)
	}
}
