package rooms

import (
	"strings"
	"testing"
)

func TestGenerateRoomCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code := GenerateRoomCode()

		if len(code) != GeneratedCodeLength {
			t.Fatalf("GenerateRoomCode() length = %d, want %d", len(code), GeneratedCodeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("GenerateRoomCode() = %q contains %q outside alphabet", code, c)
			}
		}
		// Generated codes must pass the boundary validation unchanged.
		if err := ValidateRoomCode(code); err != nil {
			t.Fatalf("ValidateRoomCode(%q) = %v", code, err)
		}
		if code != NormalizeRoomCode(code) {
			t.Fatalf("GenerateRoomCode() = %q is not normalized", code)
		}
		seen[code] = struct{}{}
	}

	// 31^6 codes; 100 draws colliding would indicate a broken generator.
	if len(seen) < 95 {
		t.Errorf("GenerateRoomCode() produced %d distinct codes out of 100", len(seen))
	}
}

func TestCodeAlphabetExcludesAmbiguousGlyphs(t *testing.T) {
	for _, c := range "01IOL" {
		if strings.ContainsRune(codeAlphabet, c) {
			t.Errorf("alphabet contains ambiguous glyph %q", c)
		}
	}
}
