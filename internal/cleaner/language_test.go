package cleaner

import "testing"

func TestSpanishFilter_Match(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		genre  string
		want   bool
	}{
		{"known artist", "/bad-bunny/", "pop", true},
		{"known artist with guest", "/shakira-ft-bizarrap/", "pop", true},
		{"known artist is not a substring match", "/romanas/", "rock", false},
		{"spanish genre", "/legiao-urbana/", "salsa", true},
		{"genre case-insensitive", "/legiao-urbana/", " Reggaeton ", true},
		{"keyword", "/grupo-firme/", "pop", true},
		{"keyword is a whole word", "/blake-shelton/", "country", false},
		{"mc prefix", "/mc-kevinho/", "funk", true},
		{"junior suffix", "/chitaozinho-hijo/", "sertanejo", true},
		{"don prefix", "/don-omar/", "pop", true},
		{"portuguese artist", "/legiao-urbana/", "rock", false},
		{"empty path", "", "rock", false},
	}

	f := NewSpanishFilter(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Match(tt.artist, tt.genre); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.artist, tt.genre, got, tt.want)
			}
		})
	}
}

func TestSpanishFilter_Extra(t *testing.T) {
	f := NewSpanishFilter([]string{"/Legiao-Urbana/", ""}, []string{"MPB"})

	if !f.Match("/legiao-urbana/", "rock") {
		t.Error("extra artist not matched")
	}
	if !f.Match("/titas/", "mpb") {
		t.Error("extra genre not matched")
	}
	if f.Match("/titas/", "rock") {
		t.Error("unrelated artist matched")
	}
	if NewSpanishFilter(nil, nil).Match("/legiao-urbana/", "rock") {
		t.Error("extra lists leaked into another filter")
	}
}
