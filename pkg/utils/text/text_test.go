package text_test

import (
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
)

func TestNormalizeWhitespace(t *testing.T) {
	gt.Value(t, text.NormalizeWhitespace("  a \n\t b   c ")).Equal("a b c")
	gt.Value(t, text.NormalizeWhitespace("")).Equal("")

	once := text.NormalizeWhitespace(" x  y\n")
	gt.Value(t, text.NormalizeWhitespace(once)).Equal(once)
}

func TestStripMarkup(t *testing.T) {
	t.Run("drops style and script content", func(t *testing.T) {
		in := `<style>.a{color:red}</style><p>שלום <b>עולם</b></p><script>alert(1)</script>`
		gt.Value(t, text.StripMarkup(in)).Equal("שלום עולם")
	})

	t.Run("handles multi-line blocks", func(t *testing.T) {
		in := "<SCRIPT type=\"x\">\nvar a = 1;\n</SCRIPT>\n<div>\ntext\n</div>"
		gt.Value(t, text.StripMarkup(in)).Equal("text")
	})
}

func TestHebrewRestrict(t *testing.T) {
	t.Run("removes foreign runs", func(t *testing.T) {
		gt.Value(t, text.Hebrew.Restrict("שלום hello עולם 42!")).Equal("שלום עולם 42!")
	})

	t.Run("is idempotent", func(t *testing.T) {
		inputs := []string{
			"",
			"plain latin text",
			"Привет שלום 你好 مرحبا",
			"מספר 3.5, (בערך) \"ציטוט\" - סוף\nשורה",
			"<b>תג</b> & סימן %",
		}
		for _, in := range inputs {
			once := text.Hebrew.Restrict(in)
			gt.Value(t, text.Hebrew.Restrict(once)).Equal(once)
		}
	})

	t.Run("detects script letters", func(t *testing.T) {
		gt.Bool(t, text.Hebrew.Contains("abc ש")).True()
		gt.Bool(t, text.Hebrew.Contains("abc 123")).False()
	})
}

func TestIsNumeric(t *testing.T) {
	gt.Bool(t, text.IsNumeric("95")).True()
	gt.Bool(t, text.IsNumeric("1,200.5")).True()
	gt.Bool(t, text.IsNumeric("")).False()
	gt.Bool(t, text.IsNumeric(". ,")).False()
	gt.Bool(t, text.IsNumeric("95 נקודות")).False()
}

func TestChunk(t *testing.T) {
	t.Run("empty input yields nothing", func(t *testing.T) {
		gt.Array(t, slices.Collect(text.Chunk("   ", 10, 2))).Length(0)
	})

	t.Run("short input yields one chunk", func(t *testing.T) {
		chunks := slices.Collect(text.Chunk("short  text", 700, 80))
		gt.Array(t, chunks).Length(1)
		gt.Value(t, chunks[0]).Equal("short text")
	})

	t.Run("chunks respect size and overlap", func(t *testing.T) {
		src := strings.Repeat("אבגדהוזחטי", 25)
		chunks := slices.Collect(text.Chunk(src, 40, 10))

		gt.Number(t, len(chunks)).GreaterOrEqual(2)
		for _, c := range chunks {
			gt.Bool(t, utf8.RuneCountInString(c) <= 40).True()
		}

		// reassemble by dropping the overlap from every chunk after the first
		var b strings.Builder
		for i, c := range chunks {
			if i == 0 {
				b.WriteString(c)
				continue
			}
			b.WriteString(string([]rune(c)[10:]))
		}
		gt.Value(t, b.String()).Equal(src)
	})

	t.Run("sequence is restartable", func(t *testing.T) {
		seq := text.Chunk(strings.Repeat("a", 100), 30, 5)
		first := slices.Collect(seq)
		second := slices.Collect(seq)
		gt.Value(t, second).Equal(first)
	})
}

func TestTruncate(t *testing.T) {
	gt.Value(t, text.Truncate("שלום עולם", 4)).Equal("שלום")
	gt.Value(t, text.Truncate("abc", 10)).Equal("abc")
	gt.Value(t, text.Truncate("abc", 0)).Equal("")
}
