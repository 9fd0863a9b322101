package response

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_FencedBlock(t *testing.T) {
	reply := "Here is the updated method:\n\n```typescript\n// @rename total\nsum() {\n  return 1;\n}\n```\n\nLet me know if you need more."

	got, err := Extract(reply, "ts")
	require.NoError(t, err)
	assert.Equal(t, "// @rename total\nsum() {\n  return 1;\n}\n", got)
}

func TestExtract_PrefersTaggedLanguage(t *testing.T) {
	reply := "```bash\nnpm install --save-dev a-very-long-package-name another-long-package\n```\n\n```rust\nfn main() {}\n```\n"

	got, err := Extract(reply, "rust")
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}\n", got)

	got, err = Extract(reply, "")
	require.NoError(t, err)
	assert.Contains(t, got, "npm install", "without a language the longest block wins")
}

func TestExtract_LongestTaggedBlock(t *testing.T) {
	reply := "```js\nfoo() {}\n```\n\n```js\nfoo() {\n  return bar();\n}\n```\n"

	got, err := Extract(reply, "javascript")
	require.NoError(t, err)
	assert.Equal(t, "foo() {\n  return bar();\n}\n", got)
}

func TestExtract_UnterminatedFence(t *testing.T) {
	reply := "Sure:\n```css\n.a { color: red; }\n"

	got, err := Extract(reply, "css")
	require.NoError(t, err)
	assert.Equal(t, ".a { color: red; }\n", got)
}

func TestExtract_StripsProseWithoutFences(t *testing.T) {
	reply := `Here's the improved version.

    // @access private
    helper(x) {
        return x * 2;
    }

Hope this helps.`

	got, err := Extract(reply, "js")
	require.NoError(t, err)
	assert.Equal(t, "// @access private\nhelper(x) {\n    return x * 2;\n}\n", got)
}

func TestExtract_NoCode(t *testing.T) {
	for _, reply := range []string{"", "I cannot help with that.", "```\n\n```"} {
		_, err := Extract(reply, "ts")
		assert.True(t, errors.Is(err, ErrNoCode), "reply %q", reply)
	}
}

func TestBlocks(t *testing.T) {
	blocks := Blocks("text\n\n```TS\na\n```\n\n~~~\nb\n~~~\n")
	require.Len(t, blocks, 2)
	assert.Equal(t, Block{Info: "ts", Code: "a\n"}, blocks[0])
	assert.Equal(t, Block{Info: "", Code: "b\n"}, blocks[1])
}

func TestDedent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces", "  a\n    b\n  c", "a\n  b\nc"},
		{"blank lines ignored", "\t\ta\n\n\t\tb", "a\n\nb"},
		{"mixed prefix", "  \ta\n  b", "\ta\nb"},
		{"nothing shared", "a\n  b", "a\n  b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dedent(tt.in))
		})
	}
}

func TestIsCodeLine(t *testing.T) {
	code := []string{
		"export default class Foo {",
		"pub(crate) async fn run() {",
		"// @delete",
		"#[derive(Debug)]",
		"calculate(a, b) {",
		"render(): string {",
		".card > h1, .title {",
		"<div class=\"x\">",
		"}",
		"@media (max-width: 600px) {",
	}
	for _, l := range code {
		assert.True(t, isCodeLine(l), l)
	}

	prose := []string{
		"Here is the updated code:",
		"This method now returns the sum.",
		"Hope this helps!",
		"",
	}
	for _, l := range prose {
		assert.False(t, isCodeLine(l), l)
	}
}
