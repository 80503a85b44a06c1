// Package passgen builds memorable passwords from a word list.
package passgen

import (
	"bufio"
	"bytes"
	"crypto/rand"
	_ "embed"
	"errors"
	"io"
	"math/big"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxWords bounds a single password.
const MaxWords = 32

//go:embed dictionary.txt
var defaultDictionary []byte

var (
	ErrEmptyDictionary = errors.New("dictionary has no words")
	ErrWordCount       = errors.New("word count must be between 1 and 32")
)

// Generator picks random dictionary words.
type Generator struct {
	words []string
	raw   []byte
}

// Default returns a generator over the embedded dictionary.
func Default() *Generator {
	g, err := Parse(bytes.NewReader(defaultDictionary))
	if err != nil {
		panic(err)
	}
	return g
}

// Load reads a newline separated dictionary file.
func Load(path string) (*Generator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads one word per line, ignoring blank lines.
func Parse(r io.Reader) (*Generator, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var words []string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrEmptyDictionary
	}
	return &Generator{words: words, raw: raw}, nil
}

// Words reports the dictionary size.
func (g *Generator) Words() int { return len(g.words) }

// Dictionary returns the dictionary as it was read.
func (g *Generator) Dictionary() []byte { return g.raw }

// Generate concatenates n random words, each with an upper-case initial.
func (g *Generator) Generate(n int) (string, error) {
	if n < 1 || n > MaxWords {
		return "", ErrWordCount
	}
	var b strings.Builder
	size := big.NewInt(int64(len(g.words)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b.WriteString(capitalize(g.words[idx.Int64()]))
	}
	return b.String(), nil
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + w[size:]
}
