package analyze

import (
	"strings"

	"jtalkfront/ingest"
	"jtalkfront/kana"
	"jtalkfront/model"
)

var digitRead = [10]string{"ゼロ", "イチ", "ニ", "サン", "ヨン", "ゴ", "ロク", "ナナ", "ハチ", "キュウ"}

// place readings of digits 1-9 in the tens, hundreds and thousands place.
var (
	tensRead      = [10]string{"", "ジュウ", "ニジュウ", "サンジュウ", "ヨンジュウ", "ゴジュウ", "ロクジュウ", "ナナジュウ", "ハチジュウ", "キュウジュウ"}
	hundredsRead  = [10]string{"", "ヒャク", "ニヒャク", "サンビャク", "ヨンヒャク", "ゴヒャク", "ロッピャク", "ナナヒャク", "ハッピャク", "キュウヒャク"}
	thousandsRead = [10]string{"", "セン", "ニセン", "サンゼン", "ヨンセン", "ゴセン", "ロクセン", "ナナセン", "ハッセン", "キュウセン"}
)

// unitRead names each group of four digits.
var unitRead = []string{"", "マン", "オク", "チョウ"}

const (
	decimalPoint = '．'
	digitComma   = '，'
)

// counter describes the sound changes of a counter after a number.
type counter struct {
	plain     string
	geminated string            // reading after イッ, ロッ, ハッ, ジュッ, ヒャッ
	geminate  map[string]bool   // number endings that geminate before the counter
	after     map[string]string // reading after other endings, e.g. サン
}

var hRowGeminate = map[string]bool{"1": true, "6": true, "8": true, "10": true, "100": true}
var kRowGeminate = map[string]bool{"1": true, "6": true, "8": true, "10": true, "100": true}
var stRowGeminate = map[string]bool{"1": true, "8": true, "10": true}

var counters = map[string]counter{
	"本": {plain: "ホン", geminated: "ポン", geminate: hRowGeminate, after: map[string]string{"3": "ボン"}},
	"匹": {plain: "ヒキ", geminated: "ピキ", geminate: hRowGeminate, after: map[string]string{"3": "ビキ"}},
	"杯": {plain: "ハイ", geminated: "パイ", geminate: hRowGeminate, after: map[string]string{"3": "バイ"}},
	"分": {plain: "フン", geminated: "プン", geminate: hRowGeminate, after: map[string]string{"3": "プン", "4": "プン"}},
	"発": {plain: "ハツ", geminated: "パツ", geminate: hRowGeminate, after: map[string]string{"3": "パツ"}},
	"回": {plain: "カイ", geminated: "カイ", geminate: kRowGeminate},
	"個": {plain: "コ", geminated: "コ", geminate: kRowGeminate},
	"階": {plain: "カイ", geminated: "カイ", geminate: kRowGeminate, after: map[string]string{"3": "ガイ"}},
	"歳": {plain: "サイ", geminated: "サイ", geminate: stRowGeminate},
	"冊": {plain: "サツ", geminated: "サツ", geminate: stRowGeminate},
	"頭": {plain: "トウ", geminated: "トウ", geminate: stRowGeminate},
	"足": {plain: "ソク", geminated: "ソク", geminate: stRowGeminate, after: map[string]string{"3": "ゾク"}},
}

// geminated forms of number endings.
var gemination = map[string][2]string{
	"1":   {"イチ", "イッ"},
	"6":   {"ロク", "ロッ"},
	"8":   {"ハチ", "ハッ"},
	"10":  {"ジュウ", "ジュッ"},
	"100": {"ヒャク", "ヒャッ"},
}

// Digit reads runs of Arabic numerals. Each digit gets the reading of its
// place (十, 百, 千 and the 万, 億, 兆 groups) and the node covering it
// receives the concatenated readings of its characters. Numbers with
// leading zeros or more than sixteen digits and fractions are read digit
// by digit. A counter right after an integer gets its sound change.
func Digit(nodes []model.FeatureNode) []model.FeatureNode {
	for i := 0; i < len(nodes); {
		end := digitRun(nodes, i)
		if end == i {
			i++
			continue
		}
		readDigitRun(nodes, i, end)
		i = end
	}
	return nodes
}

// digitRun returns the end of the numeral run starting at i (i when none).
// Separators belong to the run only between two digit nodes.
func digitRun(nodes []model.FeatureNode, i int) int {
	if !allDigits(nodes[i].String) {
		return i
	}
	end := i + 1
	point := false
	for end < len(nodes) {
		s := ingest.Normalize(nodes[end].String)
		switch {
		case allDigits(s):
			end++
			continue
		case (s == string(digitComma) || (s == string(decimalPoint) && !point)) &&
			end+1 < len(nodes) && allDigits(nodes[end+1].String):
			point = point || s == string(decimalPoint)
			end += 2
			continue
		}
		break
	}
	return end
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !kana.IsDigit(r) {
			return false
		}
	}
	return true
}

func readDigitRun(nodes []model.FeatureNode, start, end int) {
	var chars []rune
	var owner []int
	for i := start; i < end; i++ {
		for _, r := range ingest.Normalize(nodes[i].String) {
			chars = append(chars, r)
			owner = append(owner, i)
		}
	}
	frags := make([]string, len(chars))

	var intIdx, fracIdx []int
	seenPoint := false
	for k, r := range chars {
		switch {
		case r == decimalPoint:
			seenPoint = true
			frags[k] = "テン"
		case r == digitComma:
		case seenPoint:
			fracIdx = append(fracIdx, k)
		default:
			intIdx = append(intIdx, k)
		}
	}

	digits := make([]int, len(intIdx))
	for j, k := range intIdx {
		digits[j], _ = kana.DigitValue(chars[k])
	}
	ending := ""
	if (len(digits) > 1 && digits[0] == 0) || len(digits) > 16 {
		for j, k := range intIdx {
			frags[k] = digitRead[digits[j]]
		}
	} else {
		var last int
		ending, last = readInteger(digits, intIdx, frags)
		if len(fracIdx) == 0 && end < len(nodes) {
			applyCounter(&nodes[end], ending, frags, last)
		}
	}
	for _, k := range fracIdx {
		d, _ := kana.DigitValue(chars[k])
		frags[k] = digitRead[d]
	}

	for i := start; i < end; i++ {
		var sb strings.Builder
		for k := range chars {
			if owner[k] == i {
				sb.WriteString(frags[k])
			}
		}
		setReading(&nodes[i], sb.String())
	}
}

// setReading stores read and its lengthened pronunciation. A pronunciation
// that already realizes read keeps its devoice marks.
func setReading(n *model.FeatureNode, read string) {
	pron := lengthen(read)
	if n.Read != read || kana.StripDevoice(n.Pron) != pron {
		n.Pron = pron
	}
	n.Read = read
	n.MoraSize = kana.Count(n.Pron)
}

// readInteger writes place readings into frags and returns the kind of
// the last element read ("1".."9", "10", "100", "1000" or a unit) and the
// index of the fragment holding it.
func readInteger(digits, idx []int, frags []string) (string, int) {
	if len(digits) == 0 {
		return "", -1
	}
	if allZero(digits) {
		frags[idx[0]] = digitRead[0]
		return "0", idx[0]
	}
	ending, last := "", -1
	n := len(digits)
	for j, d := range digits {
		place := n - 1 - j
		group, within := place/4, place%4
		k := idx[j]
		if d != 0 {
			switch within {
			case 3:
				frags[k] = thousandsRead[d]
				ending = "1000"
			case 2:
				frags[k] = hundredsRead[d]
				ending = "100"
			case 1:
				frags[k] = tensRead[d]
				ending = "10"
			default:
				frags[k] = digitRead[d]
				if d == 1 && group == 3 {
					frags[k] = "イッ"
				}
				ending = digitKind(d)
			}
			last = k
		}
		if within == 0 && group > 0 && groupNonZero(digits, j) {
			frags[k] += unitRead[group]
			ending, last = unitRead[group], k
		}
	}
	return ending, last
}

func digitKind(d int) string {
	return string(rune('0' + d))
}

func allZero(digits []int) bool {
	for _, d := range digits {
		if d != 0 {
			return false
		}
	}
	return true
}

// groupNonZero reports whether the four-digit group ending at index j has
// a non-zero digit.
func groupNonZero(digits []int, j int) bool {
	for k := j; k >= 0 && k > j-4; k-- {
		if digits[k] != 0 {
			return true
		}
	}
	return false
}

// applyCounter rewrites the counter node and the number ending it follows.
func applyCounter(next *model.FeatureNode, ending string, frags []string, last int) {
	c, ok := counters[ingest.Normalize(next.String)]
	if !ok || last < 0 {
		return
	}
	reading := c.plain
	if g, ok := gemination[ending]; ok && c.geminate[ending] && strings.HasSuffix(frags[last], g[0]) {
		frags[last] = strings.TrimSuffix(frags[last], g[0]) + g[1]
		reading = c.geminated
	} else if r, ok := c.after[ending]; ok {
		reading = r
	}
	setReading(next, reading)
}
