package orchestration

import "testing"

func rawStatements(statements []Statement) []string {
	raw := make([]string, 0, len(statements))
	for _, statement := range statements {
		raw = append(raw, statement.Raw)
	}
	return raw
}

func assertStrings(t *testing.T, expected, got []string) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected %d entries %q, got %d %q", len(expected), expected, len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected entry %d to be %q, got %q", i, expected[i], got[i])
		}
	}
}

func TestSplitStatements(t *testing.T) {
	testCases := []struct {
		name       string
		text       string
		statements []string
		tail       string
	}{
		{name: "sentences", text: "Hello world. How are you?", statements: []string{"Hello world.", " How are you?"}, tail: ""},
		{name: "unterminated tail", text: "Wait... what", statements: []string{"Wait..."}, tail: " what"},
		{name: "mixed terminators stay together", text: "Really?! Yes.", statements: []string{"Really?!", " Yes."}, tail: ""},
		{name: "line break", text: "Line one\nLine two", statements: []string{"Line one\n"}, tail: "Line two"},
		{name: "blank lines absorbed", text: "Title\n\nBody.", statements: []string{"Title\n\n", "Body."}, tail: ""},
		{name: "ideographic full stop", text: "你好。世界", statements: []string{"你好。"}, tail: "世界"},
		{name: "full-width marks", text: "はい！本当？", statements: []string{"はい！", "本当？"}, tail: ""},
		{name: "punctuation merges forward", text: ". Hello.", statements: []string{". Hello."}, tail: ""},
		{name: "decimal point splits", text: "Pi is 3.14 today.", statements: []string{"Pi is 3.", "14 today."}, tail: ""},
		{name: "list ordinals stay with their item", text: "Steps:\n1. Open the file.\n2. Save it.", statements: []string{"Steps:\n", "1. Open the file.\n", "2. Save it."}, tail: ""},
		{name: "list ordinal waits for its item", text: "Steps:\n3.", statements: []string{"Steps:\n"}, tail: "3."},
		{name: "no terminator", text: "Just words", statements: nil, tail: "Just words"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			statements, consumed := splitStatements(testCase.text, 0)
			assertStrings(t, testCase.statements, rawStatements(statements))
			if got := testCase.text[consumed:]; got != testCase.tail {
				t.Fatalf("expected tail %q, got %q", testCase.tail, got)
			}
		})
	}
}

func TestIsTerminator(t *testing.T) {
	for _, r := range []rune{'.', '?', '!', '\n', '。', '｡', '．', '？', '！'} {
		if !isTerminator(r) {
			t.Fatalf("expected %q to be a terminator", r)
		}
	}
	for _, r := range []rune{',', ';', ' ', 'a', '、', '…'} {
		if isTerminator(r) {
			t.Fatalf("expected %q not to be a terminator", r)
		}
	}
}

func TestStatementProjections(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		display string
		speech  string
	}{
		{name: "plain", raw: " How are you?", display: "How are you?", speech: "How are you?"},
		{name: "emphasis", raw: "**Bold** and _italic_ text.", display: "**Bold** and _italic_ text.", speech: "Bold and italic text."},
		{name: "header", raw: "## Getting started\n", display: "## Getting started", speech: "Getting started"},
		{name: "bullet", raw: "\n- first item\n", display: "- first item", speech: "first item"},
		{name: "link", raw: "See [the docs](https://example.com).", display: "See [the docs](https://example.com).", speech: "See the docs."},
		{name: "image", raw: "![a cat](cat.png)\n", display: "![a cat](cat.png)", speech: "a cat"},
		{name: "inline code", raw: "Run `go test` now.", display: "Run `go test` now.", speech: "Run go test now."},
		{name: "blockquote", raw: "> quoted words\n", display: "> quoted words", speech: "quoted words"},
		{name: "strikethrough", raw: "~~old~~ new.", display: "~~old~~ new.", speech: "old new."},
		{name: "identifiers kept", raw: "Call my_func_name now.", display: "Call my_func_name now.", speech: "Call my_func_name now."},
		{name: "leading punctuation", raw: "! Yes.", display: "! Yes.", speech: "Yes."},
		{name: "numbered item", raw: "1. Open the file.\n", display: "1. Open the file.", speech: "Open the file."},
		{name: "code fence", raw: "```go\n", display: "```go", speech: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			statement := Statement{Raw: testCase.raw}
			if got := statement.String(); got != testCase.display {
				t.Fatalf("expected display text %q, got %q", testCase.display, got)
			}
			if got := statement.Speech(); got != testCase.speech {
				t.Fatalf("expected speech text %q, got %q", testCase.speech, got)
			}
		})
	}
}
