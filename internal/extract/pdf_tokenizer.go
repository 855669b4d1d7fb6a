package extract

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"encoding/hex"
	"io"
	"regexp"
	"strings"
	"unicode/utf16"
)

const minTokenizedRunes = 20

var (
	reTextBlock = regexp.MustCompile(`(?s)BT.*?ET`)
	reHexString = regexp.MustCompile(`<([0-9A-Fa-f\s]{4,})>`)
	reSpaces    = regexp.MustCompile(`\s+`)
)

// ExtractPDFText pulls text-showing operands out of a PDF without a PDF library.
// Every stream is decoded (Flate when declared) and scanned for BT..ET blocks;
// if that yields too little, the raw file is scanned instead.
func ExtractPDFText(data []byte) string {
	var pieces []string
	cursor := 0
	for cursor < len(data) {
		rel := bytes.Index(data[cursor:], []byte("stream"))
		if rel < 0 {
			break
		}
		streamIdx := cursor + rel

		dict := ""
		if ds := bytes.LastIndex(data[:streamIdx], []byte("<<")); ds >= 0 {
			if de := bytes.Index(data[ds:], []byte(">>")); de >= 0 && ds+de < streamIdx {
				dict = string(data[ds : ds+de+2])
			}
		}

		start := streamIdx + len("stream")
		switch {
		case start+1 < len(data) && data[start] == '\r' && data[start+1] == '\n':
			start += 2
		case start < len(data) && (data[start] == '\n' || data[start] == '\r'):
			start++
		}

		endRel := bytes.Index(data[min(start, len(data)):], []byte("endstream"))
		if endRel < 0 {
			break
		}
		end := start + endRel

		decoded := decodeStream(data[start:end], dict)
		if text := operatorsText(decoded); runeLen(text) >= minTokenizedRunes {
			pieces = append(pieces, text)
		}
		cursor = end + len("endstream")
	}

	if joined := strings.Join(pieces, "\n"); runeLen(joined) >= minTokenizedRunes {
		return joined
	}
	if direct := operatorsText(data); runeLen(direct) >= minTokenizedRunes {
		return direct
	}
	return ""
}

// decodeStream inflates Flate streams (zlib, then raw deflate) and
// returns the raw bytes when neither works.
func decodeStream(raw []byte, dict string) []byte {
	if !strings.Contains(dict, "/FlateDecode") {
		return raw
	}
	if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
		out, err := io.ReadAll(zr)
		_ = zr.Close()
		if err == nil {
			return out
		}
	}
	fr := flate.NewReader(bytes.NewReader(raw))
	out, err := io.ReadAll(fr)
	_ = fr.Close()
	if err == nil {
		return out
	}
	return raw
}

func operatorsText(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	var out []string
	for _, block := range reTextBlock.FindAll(content, -1) {
		for _, lit := range literalStrings(block) {
			if s := decodeLiteral(lit); s != "" {
				out = append(out, s)
			}
		}
		for _, m := range reHexString.FindAllSubmatch(block, -1) {
			if s := decodeHexString(string(m[1])); s != "" {
				out = append(out, s)
			}
		}
	}
	return strings.TrimSpace(strings.Join(out, " "))
}

// literalStrings returns the bodies of (...) strings, honoring nesting and escapes.
// Escape sequences are kept verbatim for decodeLiteral.
func literalStrings(block []byte) [][]byte {
	var values [][]byte
	i := 0
	for i < len(block) {
		if block[i] != '(' {
			i++
			continue
		}
		depth := 1
		j := i + 1
		var value []byte
		for j < len(block) && depth > 0 {
			c := block[j]
			switch {
			case c == '\\' && j+1 < len(block):
				value = append(value, block[j], block[j+1])
				j += 2
				continue
			case c == '(':
				depth++
				value = append(value, c)
			case c == ')':
				depth--
				if depth > 0 {
					value = append(value, c)
				}
			default:
				value = append(value, c)
			}
			j++
		}
		if len(bytes.TrimSpace(value)) > 0 {
			values = append(values, value)
		}
		i = j
	}
	return values
}

// decodeLiteral resolves PDF escapes; plain bytes map to Latin-1 code points.
func decodeLiteral(lit []byte) string {
	var b strings.Builder
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		if c != '\\' || i+1 >= len(lit) {
			b.WriteRune(rune(c))
			continue
		}
		next := lit[i+1]
		if next >= '0' && next <= '7' {
			n, j := 0, i+1
			for j < len(lit) && j < i+4 && lit[j] >= '0' && lit[j] <= '7' {
				n = n*8 + int(lit[j]-'0')
				j++
			}
			b.WriteRune(rune(n))
			i = j - 1
			continue
		}
		i++
		switch next {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '(', ')', '\\':
			b.WriteByte(next)
		default:
			b.WriteByte('\\')
			b.WriteRune(rune(next))
		}
	}
	return strings.TrimSpace(b.String())
}

// decodeHexString decodes <...> operands; a FEFF prefix marks UTF-16BE.
func decodeHexString(h string) string {
	cleaned := reSpaces.ReplaceAllString(h, "")
	if cleaned == "" {
		return ""
	}
	if len(cleaned)%2 == 1 {
		cleaned += "0"
	}
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return ""
	}

	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		units := make([]uint16, 0, (len(raw)-2)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		return strings.TrimSpace(string(utf16.Decode(units)))
	}

	var b strings.Builder
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return strings.TrimSpace(b.String())
}

func runeLen(s string) int {
	return len([]rune(s))
}
