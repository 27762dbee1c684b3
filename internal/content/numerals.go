package content

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"quiz-studio/internal/domain"
)

var (
	toEastern = strings.NewReplacer(
		"0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤",
		"5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
	)
	toWestern = strings.NewReplacer(
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
		"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	)
	grouping = message.NewPrinter(language.English)
)

// ConvertDigits rewrites every digit of text into the given numeral system.
func ConvertDigits(text string, sys domain.NumeralSystem) string {
	if sys == domain.NumeralsEastern {
		return toEastern.Replace(text)
	}
	return toWestern.Replace(text)
}

// FormatNumber renders n with thousands grouping in the given system.
func FormatNumber(n int, sys domain.NumeralSystem) string {
	s := grouping.Sprintf("%d", n)
	if sys == domain.NumeralsEastern {
		return ConvertDigits(strings.ReplaceAll(s, ",", "٬"), sys)
	}
	return s
}

// LocalizeDigits converts digits in the text nodes of an HTML fragment,
// leaving tags, attributes and script/style/textarea bodies alone.
func LocalizeDigits(fragment string, sys domain.NumeralSystem) string {
	if fragment == "" || !hasForeignDigits(fragment, sys) {
		return fragment
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return fragment
	}
	var b strings.Builder
	for _, n := range nodes {
		walkText(n, sys)
		if err := html.Render(&b, n); err != nil {
			return fragment
		}
	}
	return b.String()
}

func walkText(n *html.Node, sys domain.NumeralSystem) {
	switch n.Type {
	case html.TextNode:
		n.Data = ConvertDigits(n.Data, sys)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Textarea:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, sys)
	}
}

func hasForeignDigits(s string, sys domain.NumeralSystem) bool {
	if sys == domain.NumeralsEastern {
		return strings.ContainsAny(s, "0123456789")
	}
	return strings.ContainsAny(s, "٠١٢٣٤٥٦٧٨٩")
}
