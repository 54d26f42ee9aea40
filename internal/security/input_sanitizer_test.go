package security

import "testing"

// プレーンテキストがそのまま通過することを検証
func TestSanitize_PlainTextUnchanged(t *testing.T) {
	s := NewInputSanitizer()

	if got := s.Sanitize("alice"); got != "alice" {
		t.Errorf("Sanitize(alice) = %q, want %q", got, "alice")
	}
	if got := s.Sanitize("a@x.com"); got != "a@x.com" {
		t.Errorf("Sanitize(a@x.com) = %q, want %q", got, "a@x.com")
	}
}

// HTMLタグが除去されることを検証
func TestSanitize_StripsMarkup(t *testing.T) {
	s := NewInputSanitizer()

	cases := []struct {
		input string
		want  string
	}{
		{`<script>alert(1)</script>alice`, "alice"},
		{`<b>alice</b>`, "alice"},
		{`<img src="x" onerror="alert(1)">bob`, "bob"},
	}

	for _, tc := range cases {
		if got := s.Sanitize(tc.input); got != tc.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// HTML特殊文字を含むプレーンテキストがエスケープされずに保持されることを検証
func TestSanitize_PreservesSpecialCharacters(t *testing.T) {
	s := NewInputSanitizer()

	cases := []string{
		"Tom & Jerry",
		"O'Brien",
		`a "quoted" name`,
		"a < b",
	}

	for _, input := range cases {
		if got := s.Sanitize(input); got != input {
			t.Errorf("Sanitize(%q) = %q, want input unchanged", input, got)
		}
	}
}

// 前後の空白がトリムされることを検証
func TestSanitize_TrimsWhitespace(t *testing.T) {
	s := NewInputSanitizer()

	if got := s.Sanitize("  alice  "); got != "alice" {
		t.Errorf("Sanitize = %q, want %q", got, "alice")
	}
}

// 冪等性: 同一入力に対して常に同一出力を返すことを検証
func TestSanitize_Idempotent(t *testing.T) {
	s := NewInputSanitizer()

	input := `<p>alice</p>`
	first := s.Sanitize(input)
	second := s.Sanitize(first)
	if first != second {
		t.Errorf("sanitize not idempotent: %q -> %q", first, second)
	}
}

// InputSanitizerServiceインターフェースを満たすことを検証
func TestInputSanitizer_ImplementsInterface(t *testing.T) {
	var _ InputSanitizerService = NewInputSanitizer()
}
