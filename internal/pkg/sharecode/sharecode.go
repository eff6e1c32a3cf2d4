// Package sharecode генерирует короткие коды доступа к опубликованным викторинам.
package sharecode

import (
	"math/rand"
	"strings"
)

// Alphabet — 32 символа без визуально неоднозначных I, O, 0 и 1
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length — длина кода доступа
const Length = 6

// Generator генерирует коды доступа. Коллизии не отслеживаются:
// уникальность гарантирует unique-индекс в БД, вызывающая сторона
// повторяет генерацию при конфликте.
type Generator struct {
	rnd *rand.Rand
}

// New создаёт генератор с заданным источником случайности
func New(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Generate возвращает новый код из Length символов алфавита
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		b.WriteByte(Alphabet[g.rnd.Intn(len(Alphabet))])
	}
	return b.String()
}

// IsValid проверяет, что строка имеет форму кода доступа:
// ровно Length символов, каждый из алфавита.
func IsValid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(Alphabet, rune(code[i])) {
			return false
		}
	}
	return true
}

// Normalize приводит пользовательский ввод к канонической форме кода
// (верхний регистр, без окружающих пробелов)
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
