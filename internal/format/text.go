package format

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// TextRenderer is implemented by payloads that know how to print
// themselves for people. Other values fall back to an indented
// key/value listing.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// WriteText writes a human-readable rendering of v. A {"data": x} envelope
// is unwrapped first; its "message", if any, is printed on the first line.
func WriteText(w io.Writer, v any) error {
	if env, ok := v.(map[string]any); ok {
		if data, ok := env["data"]; ok {
			if msg, _ := env["message"].(string); msg != "" {
				if _, err := io.WriteString(w, msg+"\n"); err != nil {
					return err
				}
			}
			if data == nil {
				return nil
			}
			v = data
		}
	}
	if r, ok := v.(TextRenderer); ok {
		return r.RenderText(w)
	}

	// Structs go through JSON so field names follow json tags.
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}

	var buf bytes.Buffer
	writeTextAny(&buf, x, 0)
	if buf.Len() == 0 || buf.Bytes()[buf.Len()-1] != '\n' {
		buf.WriteByte('\n')
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func writeTextAny(buf *bytes.Buffer, v any, level int) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pad(buf, level)
			buf.WriteString(k)
			buf.WriteByte(':')
			if isScalar(t[k]) {
				buf.WriteByte(' ')
				writeScalar(buf, t[k])
				buf.WriteByte('\n')
				continue
			}
			buf.WriteByte('\n')
			writeTextAny(buf, t[k], level+1)
		}
	case []any:
		for _, it := range t {
			pad(buf, level)
			buf.WriteByte('-')
			if isScalar(it) {
				buf.WriteByte(' ')
				writeScalar(buf, it)
				buf.WriteByte('\n')
				continue
			}
			buf.WriteByte('\n')
			writeTextAny(buf, it, level+1)
		}
	default:
		pad(buf, level)
		writeScalar(buf, t)
		buf.WriteByte('\n')
	}
}

func isScalar(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return true
	}
}

func writeScalar(buf *bytes.Buffer, v any) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("-")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case string:
		// Multi-line text stays readable but keeps one value per line.
		buf.WriteString(strings.ReplaceAll(t, "\n", `\n`))
	case float64:
		// JSON numbers become float64 in interface{}.
		if float64(int64(t)) == t {
			buf.WriteString(strconv.FormatInt(int64(t), 10))
			return
		}
		buf.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case map[string]any:
		buf.WriteString("{}")
	case []any:
		buf.WriteString("[]")
	default:
		b, _ := json.Marshal(t)
		buf.Write(b)
	}
}

func pad(buf *bytes.Buffer, level int) {
	buf.WriteString(strings.Repeat("  ", level))
}
