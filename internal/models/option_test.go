package models

import "testing"

func TestParseSide(t *testing.T) {
	tests := []struct {
		in      string
		want    Side
		wantErr bool
	}{
		{"PUT", SidePut, false},
		{"put", SidePut, false},
		{" Call ", SideCall, false},
		{"straddle", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSide(tt.in)
			if tt.wantErr != (err != nil) {
				t.Fatalf("ParseSide(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseSide(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOptionRow_SideFields(t *testing.T) {
	row := OptionRow{
		StrikePrice:           100,
		PutLastTradedPrice:    2.5,
		CallLastTradedPrice:   7.5,
		PutVolume:             300,
		CallVolume:            30,
		PutImpliedVolatility:  41,
		CallImpliedVolatility: 38,
	}

	ltp, _ := row.LastTradedPrice(SidePut)
	vol, _ := row.Volume(SidePut)
	iv, _ := row.ImpliedVolatility(SidePut)
	if ltp != 2.5 || vol != 300 || iv != 41 {
		t.Fatalf("put side = (%v, %v, %v)", ltp, vol, iv)
	}

	ltp, _ = row.LastTradedPrice(SideCall)
	vol, _ = row.Volume(SideCall)
	iv, _ = row.ImpliedVolatility(SideCall)
	if ltp != 7.5 || vol != 30 || iv != 38 {
		t.Fatalf("call side = (%v, %v, %v)", ltp, vol, iv)
	}
}
