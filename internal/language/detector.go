package language

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/encoding/japanese"
)

// Detector identifies the language of a text. Implementations return
// Undetermined when the text carries no usable signal.
type Detector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, text string) (string, error)

// Detect implements Detector.
func (f DetectorFunc) Detect(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Kana share of CJK characters above which text is treated as Japanese.
const kanaThreshold = 0.05

// Fraction of Han runes covered by multi-character dictionary words at or
// above which JIS-encodable kanji-only text is treated as Japanese.
const kanjiWordCoverage = 0.8

// ScriptDetector runs lingua's statistical models over the configured
// languages. Text made only of Han characters is decided locally: runes
// outside JIS X 0208 mark it as Chinese, and otherwise the IPA dictionary
// must segment most of it into known Japanese words.
type ScriptDetector struct {
	// HanClassifier overrides the kanji-only classifier; used by tests.
	HanClassifier func(text string) (string, error)

	lingua   lingua.LanguageDetector
	japanese bool
	chinese  bool

	once sync.Once
	tok  *tokenizer.Tokenizer
	err  error
}

// NewScriptDetector returns a detector restricted to languages, given as
// codes in any form ToISO2 accepts. Fewer than two recognised languages
// leaves every language lingua knows in play.
func NewScriptDetector(languages ...string) *ScriptDetector {
	selected := linguaLanguages(languages)
	var builder lingua.LanguageDetectorBuilder
	if len(selected) >= 2 {
		builder = lingua.NewLanguageDetectorBuilder().FromLanguages(selected...)
	} else {
		builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
		selected = lingua.AllLanguages()
	}
	d := &ScriptDetector{lingua: builder.Build()}
	for _, lang := range selected {
		switch lang {
		case lingua.Japanese:
			d.japanese = true
		case lingua.Chinese:
			d.chinese = true
		}
	}
	return d
}

func linguaLanguages(codes []string) []lingua.Language {
	var out []lingua.Language
	for _, code := range codes {
		iso := ToISO2(code)
		if iso == "" {
			continue
		}
		for _, lang := range lingua.AllLanguages() {
			if strings.EqualFold(lang.IsoCode639_1().String(), iso) {
				out = append(out, lang)
				break
			}
		}
	}
	return out
}

type scriptCounts struct {
	letters, kana, han int
}

func countScripts(text string) scriptCounts {
	var c scriptCounts
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		c.letters++
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			c.kana++
		case unicode.Is(unicode.Han, r):
			c.han++
		}
	}
	return c
}

// Detect implements Detector.
func (d *ScriptDetector) Detect(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := countScripts(text)
	if c.letters == 0 {
		return Undetermined, nil
	}
	cjk := c.kana + c.han
	if c.kana > 0 && float64(c.kana)/float64(cjk) >= kanaThreshold && cjk*2 >= c.letters {
		return "ja", nil
	}
	if c.han == c.letters {
		return d.classifyHan(text)
	}

	lang, ok := d.lingua.DetectLanguageOf(text)
	if !ok || lang == lingua.Unknown {
		return Undetermined, nil
	}
	return strings.ToLower(lang.IsoCode639_1().String()), nil
}

func (d *ScriptDetector) classifyHan(text string) (string, error) {
	if d.HanClassifier != nil {
		return d.HanClassifier(text)
	}
	switch {
	case d.chinese && !d.japanese:
		return "zh", nil
	case d.japanese && !d.chinese:
		return "ja", nil
	}
	if !jisEncodable(text) {
		return "zh", nil
	}

	d.once.Do(func() {
		d.tok, d.err = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	if d.err != nil {
		return "", d.err
	}
	var han, covered int
	for _, token := range d.tok.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		runes := 0
		for _, r := range token.Surface {
			if unicode.Is(unicode.Han, r) {
				runes++
			}
		}
		han += runes
		if token.Class == tokenizer.KNOWN && runes >= 2 {
			covered += runes
		}
	}
	if han == 0 {
		return Undetermined, nil
	}
	if float64(covered)/float64(han) >= kanjiWordCoverage {
		return "ja", nil
	}
	return "zh", nil
}

// jisEncodable reports whether every Han rune in text exists in Shift_JIS.
// Simplified Chinese forms such as 这 and 银 do not.
func jisEncodable(text string) bool {
	enc := japanese.ShiftJIS.NewEncoder()
	for _, r := range text {
		if !unicode.Is(unicode.Han, r) {
			continue
		}
		if _, err := enc.String(string(r)); err != nil {
			return false
		}
	}
	return true
}
