// Package kana holds the character tables shared by the tokenizer, the
// rule passes and the renderer: character classes, kana conversion and mora
// handling.
package kana

import (
	"strings"
	"unicode"
)

// Class is the character class used for unknown-word synthesis.
type Class int

const (
	Other Class = iota
	Space
	Hiragana
	Katakana
	Kanji
	Alpha
	Numeric
	Symbol
)

var classNames = [...]string{"OTHER", "SPACE", "HIRAGANA", "KATAKANA", "KANJI", "ALPHA", "NUMERIC", "SYMBOL"}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "OTHER"
}

// ParseClass is the inverse of Class.String. Unknown names map to Other.
func ParseClass(s string) Class {
	for i, n := range classNames {
		if n == s {
			return Class(i)
		}
	}
	return Other
}

// Grouped reports whether consecutive characters of the class form one
// unknown-word candidate.
func (c Class) Grouped() bool {
	return c == Katakana || c == Alpha || c == Numeric
}

// DevoiceMark follows a mora whose vowel is devoiced.
const DevoiceMark = '’'

// LongVowel is the katakana prolonged sound mark.
const LongVowel = 'ー'

// ClassOf classifies a single rune.
func ClassOf(r rune) Class {
	switch {
	case r == ' ' || r == '　' || unicode.IsSpace(r):
		return Space
	case r >= 0x3041 && r <= 0x309F:
		return Hiragana
	case (r >= 0x30A1 && r <= 0x30FA) || r == LongVowel || (r >= 0x31F0 && r <= 0x31FF):
		return Katakana
	case IsKanji(r):
		return Kanji
	case IsDigit(r):
		return Numeric
	case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= 'ａ' && r <= 'ｚ') || (r >= 'Ａ' && r <= 'Ｚ'):
		return Alpha
	case unicode.IsPunct(r) || unicode.IsSymbol(r):
		return Symbol
	}
	return Other
}

// IsKanji reports whether r is a CJK ideograph (or the 々 iteration mark).
func IsKanji(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3400 && r <= 0x4DBF) || r == '々' || r == '〆'
}

// IsKana reports whether r is hiragana or katakana.
func IsKana(r rune) bool {
	return (r >= 0x3040 && r <= 0x309F) || (r >= 0x30A0 && r <= 0x30FF)
}

// IsDigit reports whether r is an ASCII or full-width decimal digit.
func IsDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= '０' && r <= '９')
}

// DigitValue returns the value of an ASCII or full-width digit.
func DigitValue(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= '０' && r <= '９':
		return int(r - '０'), true
	}
	return 0, false
}

// ToKatakana converts hiragana in s to katakana and leaves the rest untouched.
func ToKatakana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x3041 && r <= 0x3096 {
			runes[i] = r + 0x60
		}
	}
	return string(runes)
}

// ToHiragana converts katakana in s to hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// AllKana reports whether s is non-empty and consists of kana only.
func AllKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsKana(r) {
			return false
		}
	}
	return true
}

// StripDevoice removes devoicing marks from a pronunciation.
func StripDevoice(s string) string {
	return strings.ReplaceAll(s, string(DevoiceMark), "")
}

// Defined reports whether a dictionary field carries a value; MeCab
// dictionaries use "*" for empty fields.
func Defined(s string) bool {
	return s != "" && s != "*"
}
