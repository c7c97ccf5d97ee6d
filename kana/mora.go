package kana

import "strings"

// Mora is one rhythmic unit of a katakana pronunciation.
type Mora struct {
	Text     string
	Devoiced bool
}

// Phonemes returns the phoneme symbols of the mora. Devoiced vowels are
// upper-cased. prevVowel is used by the long vowel mark.
func (m Mora) Phonemes(prevVowel string) []string {
	if m.Text == string(LongVowel) {
		if prevVowel == "" {
			return nil
		}
		return []string{prevVowel}
	}
	ph, ok := moraPhonemes[m.Text]
	if !ok {
		return nil
	}
	out := strings.Fields(ph)
	if m.Devoiced {
		last := out[len(out)-1]
		if last == "i" || last == "u" {
			out[len(out)-1] = strings.ToUpper(last)
		}
	}
	return out
}

// Vowel returns the vowel of the mora ("a", "i", "u", "e", "o") or "" for
// N, cl and symbols. prevVowel resolves the long vowel mark.
func (m Mora) Vowel(prevVowel string) string {
	if m.Text == string(LongVowel) {
		return prevVowel
	}
	ph, ok := moraPhonemes[m.Text]
	if !ok {
		return ""
	}
	fields := strings.Fields(ph)
	last := fields[len(fields)-1]
	switch last {
	case "a", "i", "u", "e", "o":
		return last
	}
	return ""
}

// Consonant returns the consonant phoneme of the mora, "" for vowel-only morae.
func (m Mora) Consonant() string {
	ph, ok := moraPhonemes[m.Text]
	if !ok {
		return ""
	}
	fields := strings.Fields(ph)
	if len(fields) < 2 {
		return ""
	}
	return fields[0]
}

// IsKana reports whether the mora is pronounceable.
func (m Mora) IsKana() bool {
	if m.Text == string(LongVowel) {
		return true
	}
	_, ok := moraPhonemes[m.Text]
	return ok
}

// Voiceless reports whether the mora starts with a voiceless consonant.
func (m Mora) Voiceless() bool {
	return voiceless[m.Consonant()]
}

var voiceless = map[string]bool{
	"k": true, "ky": true, "s": true, "sh": true, "t": true, "ty": true,
	"ch": true, "ts": true, "h": true, "hy": true, "f": true, "p": true, "py": true,
}

// Split cuts a katakana pronunciation into morae. Small kana combine with
// the preceding kana when the pair is a known mora; devoicing marks attach
// to the preceding mora. Characters outside the table become their own
// (unpronounceable) unit.
func Split(pron string) []Mora {
	runes := []rune(pron)
	out := make([]Mora, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == DevoiceMark {
			if len(out) > 0 {
				out[len(out)-1].Devoiced = true
			}
			continue
		}
		if i+1 < len(runes) && isSmall(runes[i+1]) {
			pair := string(runes[i : i+2])
			if _, ok := moraPhonemes[pair]; ok {
				out = append(out, Mora{Text: pair})
				i++
				continue
			}
		}
		out = append(out, Mora{Text: string(r)})
	}
	return out
}

// Join is the inverse of Split.
func Join(morae []Mora) string {
	var sb strings.Builder
	for _, m := range morae {
		sb.WriteString(m.Text)
		if m.Devoiced {
			sb.WriteRune(DevoiceMark)
		}
	}
	return sb.String()
}

// Count returns the number of pronounceable morae in pron.
func Count(pron string) int {
	n := 0
	for _, m := range Split(pron) {
		if m.IsKana() {
			n++
		}
	}
	return n
}

// Phonemes converts a katakana pronunciation to phoneme symbols.
func Phonemes(pron string) []string {
	var out []string
	prev := ""
	for _, m := range Split(pron) {
		out = append(out, m.Phonemes(prev)...)
		if v := m.Vowel(prev); v != "" {
			prev = v
		} else if m.IsKana() {
			prev = ""
		}
	}
	return out
}

func isSmall(r rune) bool {
	switch r {
	case 'ァ', 'ィ', 'ゥ', 'ェ', 'ォ', 'ャ', 'ュ', 'ョ', 'ヮ':
		return true
	}
	return false
}

var moraPhonemes = map[string]string{
	"ア": "a", "イ": "i", "ウ": "u", "エ": "e", "オ": "o",
	"カ": "k a", "キ": "k i", "ク": "k u", "ケ": "k e", "コ": "k o",
	"ガ": "g a", "ギ": "g i", "グ": "g u", "ゲ": "g e", "ゴ": "g o",
	"サ": "s a", "シ": "sh i", "ス": "s u", "セ": "s e", "ソ": "s o",
	"ザ": "z a", "ジ": "j i", "ズ": "z u", "ゼ": "z e", "ゾ": "z o",
	"タ": "t a", "チ": "ch i", "ツ": "ts u", "テ": "t e", "ト": "t o",
	"ダ": "d a", "ヂ": "j i", "ヅ": "z u", "デ": "d e", "ド": "d o",
	"ナ": "n a", "ニ": "n i", "ヌ": "n u", "ネ": "n e", "ノ": "n o",
	"ハ": "h a", "ヒ": "h i", "フ": "f u", "ヘ": "h e", "ホ": "h o",
	"バ": "b a", "ビ": "b i", "ブ": "b u", "ベ": "b e", "ボ": "b o",
	"パ": "p a", "ピ": "p i", "プ": "p u", "ペ": "p e", "ポ": "p o",
	"マ": "m a", "ミ": "m i", "ム": "m u", "メ": "m e", "モ": "m o",
	"ヤ": "y a", "ユ": "y u", "ヨ": "y o",
	"ラ": "r a", "リ": "r i", "ル": "r u", "レ": "r e", "ロ": "r o",
	"ワ": "w a", "ヰ": "i", "ヱ": "e", "ヲ": "o",
	"ン": "N", "ッ": "cl", "ヴ": "v u",
	"ァ": "a", "ィ": "i", "ゥ": "u", "ェ": "e", "ォ": "o",
	"ャ": "y a", "ュ": "y u", "ョ": "y o", "ヮ": "w a",

	"キャ": "ky a", "キュ": "ky u", "キョ": "ky o", "キェ": "ky e",
	"ギャ": "gy a", "ギュ": "gy u", "ギョ": "gy o", "ギェ": "gy e",
	"シャ": "sh a", "シュ": "sh u", "ショ": "sh o", "シェ": "sh e",
	"ジャ": "j a", "ジュ": "j u", "ジョ": "j o", "ジェ": "j e",
	"チャ": "ch a", "チュ": "ch u", "チョ": "ch o", "チェ": "ch e",
	"ヂャ": "j a", "ヂュ": "j u", "ヂョ": "j o", "ヂェ": "j e",
	"ニャ": "ny a", "ニュ": "ny u", "ニョ": "ny o", "ニェ": "ny e",
	"ヒャ": "hy a", "ヒュ": "hy u", "ヒョ": "hy o", "ヒェ": "hy e",
	"ビャ": "by a", "ビュ": "by u", "ビョ": "by o", "ビェ": "by e",
	"ピャ": "py a", "ピュ": "py u", "ピョ": "py o", "ピェ": "py e",
	"ミャ": "my a", "ミュ": "my u", "ミョ": "my o", "ミェ": "my e",
	"リャ": "ry a", "リュ": "ry u", "リョ": "ry o", "リェ": "ry e",
	"ティ": "t i", "トゥ": "t u", "テュ": "ty u",
	"ディ": "d i", "ドゥ": "d u", "デュ": "dy u",
	"ツァ": "ts a", "ツィ": "ts i", "ツェ": "ts e", "ツォ": "ts o",
	"ファ": "f a", "フィ": "f i", "フェ": "f e", "フォ": "f o", "フュ": "hy u",
	"ウィ": "w i", "ウェ": "w e", "ウォ": "w o", "イェ": "y e",
	"ヴァ": "v a", "ヴィ": "v i", "ヴェ": "v e", "ヴォ": "v o", "ヴュ": "by u",
	"スィ": "s i", "ズィ": "z i", "クヮ": "k w a", "グヮ": "g w a",
}
