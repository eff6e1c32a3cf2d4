package sharecode

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate_LengthAndAlphabet(t *testing.T) {
	// Arrange
	gen := New(rand.NewSource(1))

	// Act & Assert: каждый сгенерированный код — 6 символов алфавита
	for i := 0; i < 1000; i++ {
		code := gen.Generate()
		require.Len(t, code, Length, "Код должен состоять из 6 символов")
		for _, r := range code {
			assert.True(t, strings.ContainsRune(Alphabet, r),
				"Код %q содержит символ вне алфавита: %q", code, r)
		}
	}
}

func TestGenerator_Generate_NoAmbiguousCharacters(t *testing.T) {
	// Алфавит не содержит визуально неоднозначных символов
	for _, forbidden := range []string{"I", "O", "0", "1"} {
		assert.NotContains(t, Alphabet, forbidden,
			"Алфавит не должен содержать %q", forbidden)
	}
	assert.Len(t, Alphabet, 32)
}

func TestGenerator_Generate_Deterministic(t *testing.T) {
	// Один и тот же seed даёт одну и ту же последовательность кодов
	a := New(rand.NewSource(42))
	b := New(rand.NewSource(42))

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Generate(), b.Generate())
	}
}

func TestIsValid(t *testing.T) {
	testCases := []struct {
		name  string
		code  string
		valid bool
	}{
		{"корректный код", "ABC234", true},
		{"слишком короткий", "ABC23", false},
		{"слишком длинный", "ABC2345", false},
		{"пустая строка", "", false},
		{"символ вне алфавита: O", "ABCO23", false},
		{"символ вне алфавита: 1", "ABC123", false},
		{"нижний регистр", "abc234", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, IsValid(tc.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABC234", Normalize("  abc234 "), "Ввод приводится к верхнему регистру без пробелов")
	assert.True(t, IsValid(Normalize("abc234")))
}
