package eyaml

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wwkimball/yamlpath"
	"github.com/wwkimball/yamlpath/ir"
	"github.com/wwkimball/yamlpath/parse"
)

const cipherText = "ENC[PKCS7,MIIBiQYJKoZIhvcNAQcDoIIBejCCAXYCAQA=]"

func mustDoc(t *testing.T, src string) *ir.Node {
	t.Helper()
	doc, err := parse.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return doc
}

// fakeHelper writes an executable stand-in for the eyaml binary which
// ignores its input and prints output.
func fakeHelper(t *testing.T, output string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake helper script requires a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "eyaml")
	body := "#!/bin/sh\ncat >/dev/null\nprintf '%s\\n' '" + output + "'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write fake helper: %v", err)
	}
	return script
}

func TestIsEncryptedValue(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{cipherText, true},
		{"ENC[PKCS7,\n  MIIBiQYJ\n  KoZIhvcN]", true},
		{"  ENC[PKCS7,abc]", true},
		{"plain text", false},
		{"", false},
		{"NOT ENC[...]", false},
	}
	for _, tt := range tests {
		if got := IsEncryptedValue(tt.value); got != tt.want {
			t.Errorf("IsEncryptedValue(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestFindEncryptedPaths(t *testing.T) {
	doc := mustDoc(t, `
secrets:
  token: `+cipherText+`
  plain: hello
list:
  - `+cipherText+`
  - nested:
      key: `+cipherText+`
`)
	var got []string
	for _, p := range FindEncryptedPaths(doc) {
		got = append(got, p.String())
	}
	want := []string{"/secrets/token", "/list[0]", "/list[1]/nested/key"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("unexpected paths (-want +got):\n%s", d)
	}
}

func TestDecryptPassesPlaintextThrough(t *testing.T) {
	p := NewProcessor(nil, WithBinary("/nonexistent/eyaml"))
	got, err := p.Decrypt("not encrypted")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != "not encrypted" {
		t.Errorf("got %q", got)
	}
}

func TestEncryptPassesCiphertextThrough(t *testing.T) {
	p := NewProcessor(nil, WithBinary("/nonexistent/eyaml"))
	got, err := p.Encrypt(cipherText, OutputString)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if got != cipherText {
		t.Errorf("got %q", got)
	}
}

func TestMissingBinaryIsHelperError(t *testing.T) {
	p := NewProcessor(nil, WithBinary("/nonexistent/eyaml"))
	if _, err := p.Decrypt(cipherText); !errors.Is(err, ErrHelper) {
		t.Errorf("decrypt err = %v, want ErrHelper", err)
	}
	if _, err := p.Encrypt("secret", OutputString); !errors.Is(err, ErrHelper) {
		t.Errorf("encrypt err = %v, want ErrHelper", err)
	}
}

func TestDecryptViaHelper(t *testing.T) {
	p := NewProcessor(nil, WithBinary(fakeHelper(t, "plaintext")))
	got, err := p.Decrypt(cipherText)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != "plaintext" {
		t.Errorf("got %q, want %q", got, "plaintext")
	}
}

func TestDecryptRejectsEchoedInput(t *testing.T) {
	// A helper that hands the ciphertext back failed to decrypt.
	p := NewProcessor(nil, WithBinary(fakeHelper(t, cipherText)))
	if _, err := p.Decrypt(cipherText); !errors.Is(err, ErrHelper) {
		t.Errorf("err = %v, want ErrHelper", err)
	}
}

func TestGetValues(t *testing.T) {
	doc := mustDoc(t, "token: "+cipherText+"\nplain: hello\n")
	p := NewProcessor(doc, WithBinary(fakeHelper(t, "plaintext")))

	got, err := p.GetValues(yamlpath.MustParse("/token"))
	if err != nil {
		t.Fatalf("get values: %v", err)
	}
	if d := cmp.Diff([]string{"plaintext"}, got); d != "" {
		t.Errorf("unexpected values (-want +got):\n%s", d)
	}

	got, err = p.GetValues(yamlpath.MustParse("/plain"))
	if err != nil {
		t.Fatalf("get values: %v", err)
	}
	if d := cmp.Diff([]string{"hello"}, got); d != "" {
		t.Errorf("unexpected values (-want +got):\n%s", d)
	}
}

func TestSetValue(t *testing.T) {
	doc := mustDoc(t, "token: old\n")
	p := NewProcessor(doc, WithBinary(fakeHelper(t, cipherText)))

	if err := p.SetValue(yamlpath.MustParse("/token"), "secret", OutputString); err != nil {
		t.Fatalf("set value: %v", err)
	}
	node := ir.Get(doc, "token")
	if node == nil || node.String != cipherText {
		t.Errorf("token = %v, want ciphertext", node)
	}
}
