package slug

import (
	"sync"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Sicilian Defense", "sicilian-defense"},
		{"Queen's Gambit Declined", "queen-s-gambit-declined"},
		{"Réti Opening", "reti-opening"},
		{"Grünfeld Defense: Exchange Variation", "grunfeld-defense-exchange-variation"},
		{"  --Caro-Kann__Defense--  ", "caro-kann-defense"},
		{"King's Indian Attack, 2...d5", "king-s-indian-attack-2-d5"},
		{"", ""},
		{"   ", ""},
		{"!!!", ""},
		{"sicilian-defense", "sicilian-defense"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", " ", "\t\n", "Nimzo-Indian Defense", "Two Knights Défense", "ÀÉÎÕÜ ç ñ", "a--b", "Ελληνικά 123", "-x-"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestFromFileName(t *testing.T) {
	if got := FromFileName("openings/Ruy Lopez.mdx"); got != "ruy-lopez" {
		t.Fatalf("FromFileName: %q", got)
	}
}

func TestNormalizeConcurrent(t *testing.T) {
	names := map[string]string{
		"Réti Opening":              "reti-opening",
		"Grünfeld Defense":          "grunfeld-defense",
		"Two Knights Défense":       "two-knights-defense",
		"Bogo-Indian Défense":       "bogo-indian-defense",
		"Nimzowitsch–Larsen Attack": "nimzowitsch-larsen-attack",
	}
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				for in, want := range names {
					if got := Normalize(in); got != want {
						select {
						case errs <- in + " -> " + got:
						default:
						}
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatalf("concurrent Normalize: %s", e)
	}
}
