// Package language applies deterministic script-specific text transforms
// prior to chunking and decides the chunk overlap policy per language.
package language

import "regexp"

// Rare languages get a wider overlap to compensate for weaker tokenization.
var rareLanguages = map[string]bool{
	"km": true,
	"mn": true,
}

// ChunkOverlapFor returns the overlap for a language and chunk size:
// 10% (min 50 words) normally, 20% (min 100 words) for rare scripts.
func ChunkOverlapFor(lang string, chunkSize int) int {
	if rareLanguages[lang] {
		return maxInt((chunkSize+4)/5, 100)
	}
	return maxInt((chunkSize+9)/10, 50)
}

var (
	// Khmer script has no inter-word spacing. A consonant following a
	// vowel or sign cluster usually starts a new syllable.
	khmerBoundary = regexp.MustCompile(`([\x{17B6}-\x{17DD}])([\x{1780}-\x{17A2}])`)

	// Mongolian text often arrives with NNBSP/NBSP instead of spaces and
	// stray vowel separators.
	mongolianNNBSP = regexp.MustCompile("[\u202F\u00A0]") // NNBSP, NBSP
	mongolianMVS   = regexp.MustCompile("\u180E") // Mongolian vowel separator

	multiSpace = regexp.MustCompile(` {2,}`)
)

// PreprocessKhmer inserts soft word boundaries at likely syllable breaks.
func PreprocessKhmer(text string) string {
	text = khmerBoundary.ReplaceAllString(text, "$1 $2")
	return multiSpace.ReplaceAllString(text, " ")
}

// PreprocessMongolian normalizes unusual Unicode spacing characters.
func PreprocessMongolian(text string) string {
	text = mongolianNNBSP.ReplaceAllString(text, " ")
	text = mongolianMVS.ReplaceAllString(text, "")
	return multiSpace.ReplaceAllString(text, " ")
}

// Preprocess applies the transform registered for lang. Unknown languages
// pass through unchanged.
func Preprocess(text, lang string) string {
	switch lang {
	case "km":
		return PreprocessKhmer(text)
	case "mn":
		return PreprocessMongolian(text)
	default:
		return text
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
