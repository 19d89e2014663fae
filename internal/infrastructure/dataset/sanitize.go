package dataset

import "bytes"

// nonFiniteTokens 部分数据导出工具写出的非标准 JSON 数值
var nonFiniteTokens = [][]byte{
	[]byte("-Infinity"),
	[]byte("Infinity"),
	[]byte("NaN"),
}

// sanitizeJSON 将字符串之外的 NaN / Infinity / -Infinity 替换为 null
func sanitizeJSON(data []byte) []byte {
	if !containsNonFinite(data) {
		return data
	}

	var out bytes.Buffer
	out.Grow(len(data))
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out.WriteByte(c)
			continue
		}
		if n := matchNonFinite(data[i:]); n > 0 {
			out.WriteString("null")
			i += n - 1
			continue
		}
		out.WriteByte(c)
	}
	return out.Bytes()
}

func containsNonFinite(data []byte) bool {
	return bytes.Contains(data, []byte("NaN")) || bytes.Contains(data, []byte("Infinity"))
}

func matchNonFinite(data []byte) int {
	for _, tok := range nonFiniteTokens {
		if bytes.HasPrefix(data, tok) {
			return len(tok)
		}
	}
	return 0
}
