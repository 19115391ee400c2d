// Package eyaml layers hiera-eyaml awareness over the path processor.
// Encrypted scalars are ENC[...] strings; encryption and decryption run
// through an external eyaml binary found on PATH or named explicitly.
package eyaml

import (
	"os/exec"
	"strings"

	"github.com/wwkimball/yamlpath"
	"github.com/wwkimball/yamlpath/debug"
	"github.com/wwkimball/yamlpath/ir"
)

// OutputFormat selects how the eyaml binary renders ciphertext.
type OutputFormat string

const (
	// OutputString yields a single-line ENC[...] value.
	OutputString OutputFormat = "string"
	// OutputBlock yields a folded multi-line ENC[...] value.
	OutputBlock OutputFormat = "block"
)

// Processor wraps a path processor with encrypt and decrypt operations.
type Processor struct {
	proc       *yamlpath.Processor
	binary     string
	publicKey  string
	privateKey string
}

type Option func(*Processor)

// WithBinary names the eyaml command to run. Without it "eyaml" is
// sought on PATH.
func WithBinary(path string) Option {
	return func(p *Processor) { p.binary = path }
}

// WithKeys supplies the PKCS7 key pair paths. Either may be empty.
func WithKeys(publicKey, privateKey string) Option {
	return func(p *Processor) {
		p.publicKey = publicKey
		p.privateKey = privateKey
	}
}

func NewProcessor(data *ir.Node, opts ...Option) *Processor {
	p := &Processor{proc: yamlpath.NewProcessor(data), binary: "eyaml"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsEncryptedValue reports whether s is an ENC[...] ciphertext, ignoring
// the whitespace block emission introduces.
func IsEncryptedValue(s string) bool {
	clean := strings.ReplaceAll(strings.ReplaceAll(s, "\n", ""), " ", "")
	return strings.HasPrefix(clean, "ENC[")
}

// IsEncrypted reports whether node holds an ENC[...] string.
func IsEncrypted(node *ir.Node) bool {
	return node != nil && node.Kind == ir.StringKind && IsEncryptedValue(node.String)
}

// FindEncryptedPaths walks doc and returns a path to every encrypted
// value, in document order.
func FindEncryptedPaths(doc *ir.Node) []*yamlpath.Path {
	var found []*yamlpath.Path
	findEncrypted(yamlpath.MustParse("/"), doc, &found)
	return found
}

func findEncrypted(path *yamlpath.Path, node *ir.Node, found *[]*yamlpath.Path) {
	if node == nil {
		return
	}
	switch node.Kind {
	case ir.MappingKind:
		for i, keyNode := range node.Fields {
			next := path.AppendKey(keyNode.String)
			if IsEncrypted(node.Values[i]) {
				*found = append(*found, next)
			} else {
				findEncrypted(next, node.Values[i], found)
			}
		}
	case ir.SequenceKind:
		for i, ele := range node.Values {
			next := path.AppendIndex(i)
			if IsEncrypted(ele) {
				*found = append(*found, next)
			} else {
				findEncrypted(next, ele, found)
			}
		}
	}
}

// Decrypt returns the plaintext for an encrypted value. Values that are
// not encrypted come back unchanged without running the helper.
func (p *Processor) Decrypt(value string) (string, error) {
	if !IsEncryptedValue(value) {
		return value, nil
	}
	bin, err := p.resolveBinary()
	if err != nil {
		return "", err
	}

	clean := strings.TrimSpace(
		strings.ReplaceAll(strings.ReplaceAll(value, "\n", ""), " ", ""))
	out, err := p.run(bin, clean, "decrypt", "--quiet", "--stdin")
	if err != nil {
		return "", err
	}
	if out == "" || out == clean {
		return "", helperErrf(nil,
			"unable to decrypt value; verify the private key matches the ciphertext")
	}
	return out, nil
}

// Encrypt returns the ciphertext for value in the requested format.
// Already-encrypted values come back unchanged.
func (p *Processor) Encrypt(value string, format OutputFormat) (string, error) {
	if IsEncryptedValue(value) {
		return value, nil
	}
	bin, err := p.resolveBinary()
	if err != nil {
		return "", err
	}

	out, err := p.run(bin, value,
		"encrypt", "--quiet", "--stdin", "--output="+string(format))
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", helperErrf(nil, "the %s command produced no ciphertext", bin)
	}
	if format == OutputBlock {
		out = strings.ReplaceAll(strings.TrimSpace(out), " ", "")
		out = strings.ReplaceAll(out, "\r\n", " ") + "\n"
	}
	return out, nil
}

// GetValues retrieves every node at path and decrypts the encrypted
// ones. Non-string matches pass through as their scalar rendering.
func (p *Processor) GetValues(path *yamlpath.Path, opts ...yamlpath.GetOption) ([]string, error) {
	if debug.Eyaml() {
		debug.Logf("eyaml: decrypting values at %s\n", path)
	}
	refs, err := p.proc.GetNodes(path, opts...)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.Node.Kind != ir.StringKind {
			values = append(values, ref.Node.ScalarString())
			continue
		}
		plain, err := p.Decrypt(ref.Node.String)
		if err != nil {
			return nil, err
		}
		values = append(values, plain)
	}
	return values, nil
}

// SetValue encrypts value and stores the ciphertext at every node path
// matches.
func (p *Processor) SetValue(path *yamlpath.Path, value string, format OutputFormat, opts ...yamlpath.GetOption) error {
	if debug.Eyaml() {
		debug.Logf("eyaml: encrypting value for %s\n", path)
	}
	ciphertext, err := p.Encrypt(value, format)
	if err != nil {
		return err
	}
	return p.proc.SetValue(path, ir.FromString(ciphertext), opts...)
}

func (p *Processor) resolveBinary() (string, error) {
	bin, err := exec.LookPath(p.binary)
	if err != nil {
		return "", helperErrf(err, "no accessible eyaml command %q", p.binary)
	}
	return bin, nil
}

// run feeds input to the helper on stdin and returns trimmed stdout.
func (p *Processor) run(bin, input string, args ...string) (string, error) {
	if p.publicKey != "" {
		args = append(args, "--pkcs7-public-key="+p.publicKey)
	}
	if p.privateKey != "" {
		args = append(args, "--pkcs7-private-key="+p.privateKey)
	}
	if debug.Eyaml() {
		debug.Logf("eyaml: running %s %s\n", bin, strings.Join(args, " "))
	}

	cmd := exec.Command(bin, args...)
	cmd.Stdin = strings.NewReader(input)
	out, err := cmd.Output()
	if err != nil {
		return "", helperErrf(err, "the %s command failed", bin)
	}
	return strings.TrimSpace(string(out)), nil
}
