package narrow

import "testing"

func TestEncodeRoundTrip(t *testing.T) {
	names := []string{
		"general",
		"design review",
		"каналы/релизы",
		"c++ & rust",
		"dots.and.more.dots",
		"",
	}
	for _, name := range names {
		decoded, err := Decode(Encode(name))
		if err != nil {
			t.Fatalf("не ожидали ошибку для %q: %v", name, err)
		}
		if decoded != name {
			t.Fatalf("ожидали %q после round-trip, получили %q", name, decoded)
		}
	}
}

func TestEncodeEscapesDot(t *testing.T) {
	if got := Encode("a.b"); got != "a.2Eb" {
		t.Fatalf("ожидали a.2Eb, получили %q", got)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, bad := range []string{".", ".Z1", ".4"} {
		if _, err := Decode(bad); err == nil {
			t.Fatalf("ожидали ошибку для %q", bad)
		}
	}
}
