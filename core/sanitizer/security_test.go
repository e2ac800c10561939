package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/core/sanitizer"
)

func TestPreventXSS(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		`<p>ok</p>`:                           `<p>ok</p>`,
		`<p onclick="x()">a</p>`:              `<p>a</p>`,
		`<script>alert(1)</script><b>b</b>`:   `<b>b</b>`,
		`<a href="javascript:alert(1)">x</a>`: `<a href="">x</a>`,
		`<iframe src="//evil"></iframe>text`:  `text`,
		`<img src=x onerror=alert(1)>`:        `<img src=x>`,
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizer.PreventXSS(in), in)
	}
}

func TestSanitizeUserInput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "line1\nline2", sanitizer.SanitizeUserInput("  line1\x00\x07\nline2  "))
}

func TestNormalizers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+4915112345", sanitizer.NormalizePhone(" +49 (151) 123-45 "))
	assert.Equal(t, "https://example.com/a", sanitizer.NormalizeURL("EXAMPLE.com/a"))
	assert.Empty(t, sanitizer.NormalizeURL("javascript://alert"))
	assert.Equal(t, "datasheet_v2.pdf", sanitizer.SanitizeFilename("../../etc/datasheet v2.pdf"))
	assert.Equal(t, "a b", sanitizer.NormalizeWhitespace(" a \t\n b "))
}

func TestJSON(t *testing.T) {
	t.Parallel()

	out, err := sanitizer.JSON([]byte(`{"name":"  Bob<script>x</script> ","qty":3,"price":12.50,"tags":[" a\u0000 ",null,true],"nested":{"html":"<p onclick=\"x\">hi</p>"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Bob","qty":3,"price":12.50,"tags":["a",null,true],"nested":{"html":"<p>hi</p>"}}`, string(out))

	empty, err := sanitizer.JSON(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = sanitizer.JSON([]byte(`{"a":`))
	assert.ErrorIs(t, err, sanitizer.ErrInvalidJSON)
}

func TestJSONExcept(t *testing.T) {
	t.Parallel()

	out, err := sanitizer.JSONExcept([]byte(`{"username":" admin ","password":" p<script>x</script> ","items":[{"password":" x "}]}`),
		sanitizer.SanitizeUserInput, "password")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"admin","password":" p<script>x</script> ","items":[{"password":" x "}]}`, string(out))
}
