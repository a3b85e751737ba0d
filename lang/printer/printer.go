// Package printer renders a Value back to the textual syntax the reader
// accepts, so that Print(Read(s)) == s for any atom and any list built from
// freshly-read atoms (spec.md §4.6, §8 "Print/read round trip"). Grounded on
// original_source/zap/src/printer.rs.
package printer

import (
	"strconv"
	"strings"

	"github.com/mna/zap/lang/symtab"
	"github.com/mna/zap/lang/values"
)

// Print renders v using env to resolve symbol names.
func Print(env *symtab.Env, v values.Value) string {
	var b strings.Builder
	write(&b, env, v)
	return b.String()
}

func write(b *strings.Builder, env *symtab.Env, v values.Value) {
	switch v.Kind() {
	case values.KindNil:
		b.WriteString("nil")

	case values.KindBool:
		if v.AsBool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}

	case values.KindNumber:
		b.WriteString(formatNumber(v.AsNumber()))

	case values.KindString:
		writeString(b, v.AsString())

	case values.KindSymbol:
		name, err := env.Name(v.AsSymbol())
		if err != nil {
			b.WriteString("<unknown symbol>")
			return
		}
		b.WriteString(name)

	case values.KindList:
		b.WriteByte('(')
		for i, item := range v.AsList().Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			write(b, env, item)
		}
		b.WriteByte(')')

	case values.KindNative:
		b.WriteString(v.AsNative().String())

	case values.KindFunc:
		b.WriteString(v.AsFunc().String())

	case values.KindClosure:
		b.WriteString(v.AsClosure().String())
	}
}

// formatNumber renders an integral float without a decimal point (so "2"
// round-trips to "2", not "2.0"), and any other float with strconv's
// shortest round-tripping representation.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// writeString renders s as a quoted string literal, escaping the same
// characters the reader's string tokenizer unescapes.
func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
