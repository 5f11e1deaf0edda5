// Package textenc resolves text-encoding names and decodes raw file bytes strictly,
// so that a wrong candidate encoding is reported as a failure instead of producing garbage.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrInvalidBytes is returned when the input is not a valid byte sequence for the encoding.
var ErrInvalidBytes = errors.New("invalid byte sequence")

// ErrUnknownEncoding is returned for names that resolve to no known encoding.
var ErrUnknownEncoding = errors.New("unknown encoding")

// DefaultEncodings is the built-in candidate list, most likely first.
var DefaultEncodings = []string{
	"utf-8",
	"utf-8-sig",
	"cp1252",
	"latin1",
	"iso-8859-1",
	"utf-16",
	"utf-16-le",
	"utf-16-be",
	"utf-32",
	"utf-32-le",
	"utf-32-be",
	"cp1250",
	"cp1251",
	"cp1253",
	"cp1254",
	"cp932",
	"shift_jis",
	"euc-jp",
	"euc-kr",
	"big5",
	"gb2312",
	"mac_roman",
	"ascii",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// named encodings that x/text does not expose under these spellings.
var registry = map[string]encoding.Encoding{
	"cp1250":      charmap.Windows1250,
	"cp1251":      charmap.Windows1251,
	"cp1252":      charmap.Windows1252,
	"cp1253":      charmap.Windows1253,
	"cp1254":      charmap.Windows1254,
	"latin1":      charmap.ISO8859_1,
	"iso-8859-1":  charmap.ISO8859_1,
	"iso-8859-15": charmap.ISO8859_15,
	"mac_roman":   charmap.Macintosh,
	"cp932":       japanese.ShiftJIS,
	"shift_jis":   japanese.ShiftJIS,
	"euc-jp":      japanese.EUCJP,
	"euc-kr":      korean.EUCKR,
	"big5":        traditionalchinese.Big5,
	"gb2312":      simplifiedchinese.GBK,
	"gbk":         simplifiedchinese.GBK,
	"gb18030":     simplifiedchinese.GB18030,
	"utf-16":      unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM),
	"utf-16-le":   unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16-be":   unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"utf-32":      utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM),
	"utf-32-le":   utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	"utf-32-be":   utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
}

// canonical lowercases a name and folds the common spelling variants
// ("UTF8", "utf_8", "Windows-1252") onto the registry keys.
func canonical(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "utf8":
		return "utf-8"
	case "utf8-sig", "utf-8-bom":
		return "utf-8-sig"
	case "latin-1", "l1":
		return "latin1"
	case "mac-roman", "macroman", "macintosh":
		return "mac_roman"
	case "shift-jis", "sjis":
		return "shift_jis"
	case "us-ascii":
		return "ascii"
	case "utf-16le":
		return "utf-16-le"
	case "utf-16be":
		return "utf-16-be"
	case "utf-32le":
		return "utf-32-le"
	case "utf-32be":
		return "utf-32-be"
	}
	if strings.HasPrefix(n, "windows-") {
		return "cp" + strings.TrimPrefix(n, "windows-")
	}
	return n
}

// Known reports whether name resolves to an encoding.
func Known(name string) bool {
	switch canonical(name) {
	case "utf-8", "utf-8-sig", "ascii":
		return true
	}
	_, err := lookup(name)
	return err == nil
}

func lookup(name string) (encoding.Encoding, error) {
	if enc, ok := registry[canonical(name)]; ok {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Decode converts raw bytes in the named encoding to a UTF-8 string.
// It fails with ErrInvalidBytes when the bytes are not valid for the encoding.
// Decoders that would substitute U+FFFD for bad input, and decodes that yield
// NUL characters, are treated as invalid: text tables never contain either.
func Decode(raw []byte, name string) (string, error) {
	switch canonical(name) {
	case "utf-8":
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w for utf-8", ErrInvalidBytes)
		}
		return checkText(string(raw), name)
	case "utf-8-sig":
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w for utf-8-sig", ErrInvalidBytes)
		}
		return checkText(string(raw), name)
	case "ascii":
		for i, b := range raw {
			if b >= utf8.RuneSelf {
				return "", fmt.Errorf("%w for ascii at offset %d", ErrInvalidBytes, i)
			}
		}
		return checkText(string(raw), name)
	}

	enc, err := lookup(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w for %s: %v", ErrInvalidBytes, name, err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) && !bytes.Contains(raw, []byte("\xef\xbf\xbd")) {
		return "", fmt.Errorf("%w for %s", ErrInvalidBytes, name)
	}
	return checkText(string(out), name)
}

func checkText(s, name string) (string, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return "", fmt.Errorf("%w for %s: NUL character", ErrInvalidBytes, name)
	}
	return s, nil
}
