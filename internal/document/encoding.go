package document

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding applies when the document declares none.
const DefaultEncoding = "utf-8"

// EncodingError reports content that does not match the declared or implicit
// encoding of a file.
type EncodingError struct {
	File     string
	Encoding string
	Offset   int
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("content of file %s does not match declared or implicit encoding %s "+
		"(byte offset %d: %v); files are assumed to be encoded as UTF-8 unless declared "+
		`otherwise using \usepackage[CODEC]{inputenc} in the main LaTeX file`,
		e.File, e.Encoding, e.Offset, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// inputenc option names that differ from IANA names.
var inputencCharmaps = map[string]*charmap.Charmap{
	"latin1":   charmap.ISO8859_1,
	"latin2":   charmap.ISO8859_2,
	"latin3":   charmap.ISO8859_3,
	"latin4":   charmap.ISO8859_4,
	"latin5":   charmap.ISO8859_9,
	"latin9":   charmap.ISO8859_15,
	"latin10":  charmap.ISO8859_16,
	"cp1250":   charmap.Windows1250,
	"cp1251":   charmap.Windows1251,
	"cp1252":   charmap.Windows1252,
	"cp1257":   charmap.Windows1257,
	"ansinew":  charmap.Windows1252,
	"cp437":    charmap.CodePage437,
	"cp850":    charmap.CodePage850,
	"cp852":    charmap.CodePage852,
	"cp858":    charmap.CodePage858,
	"cp865":    charmap.CodePage865,
	"cp866":    charmap.CodePage866,
	"koi8-r":   charmap.KOI8R,
	"koi8-u":   charmap.KOI8U,
	"applemac": charmap.Macintosh,
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// decoder turns raw file bytes into text for one encoding.
type decoder struct {
	name   string
	decode func([]byte) (string, error)
}

// errInvalidByte carries the offset of the first undecodable byte.
type errInvalidByte struct {
	offset int
	value  byte
}

func (e *errInvalidByte) Error() string {
	return fmt.Sprintf("invalid byte 0x%02x at offset %d", e.value, e.offset)
}

// newDecoder resolves an inputenc option or IANA name.
func newDecoder(name string) (*decoder, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf8", "utf-8":
		return &decoder{name: DefaultEncoding, decode: decodeUTF8}, nil
	}
	if cm, ok := inputencCharmaps[key]; ok {
		return &decoder{name: key, decode: charmapDecoder(cm)}, nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	if cm, ok := enc.(*charmap.Charmap); ok {
		return &decoder{name: key, decode: charmapDecoder(cm)}, nil
	}
	return &decoder{name: key, decode: transformDecoder(enc)}, nil
}

func decodeUTF8(b []byte) (string, error) {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return "", &errInvalidByte{offset: i, value: b[i]}
		}
		i += size
	}
	return newlines.Replace(string(b)), nil
}

func charmapDecoder(cm *charmap.Charmap) func([]byte) (string, error) {
	return func(b []byte) (string, error) {
		var sb strings.Builder
		sb.Grow(len(b))
		for i, c := range b {
			r := cm.DecodeByte(c)
			if r == utf8.RuneError {
				return "", &errInvalidByte{offset: i, value: c}
			}
			sb.WriteRune(r)
		}
		return newlines.Replace(sb.String()), nil
	}
}

func transformDecoder(enc encoding.Encoding) func([]byte) (string, error) {
	return func(b []byte) (string, error) {
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		return newlines.Replace(string(out)), nil
	}
}

// lenientUTF8 decodes b replacing invalid sequences, for sniffing the
// declared encoding and for reading logs.
func lenientUTF8(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return newlines.Replace(strings.ToValidUTF8(string(b), "\uFFFD"))
	}
	return newlines.Replace(string(out))
}

func encodingError(file string, d *decoder, err error) *EncodingError {
	e := &EncodingError{File: file, Encoding: d.name, Err: err}
	var ib *errInvalidByte
	if errors.As(err, &ib) {
		e.Offset = ib.offset
	}
	return e
}
