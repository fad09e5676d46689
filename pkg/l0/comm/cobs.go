package comm

// maxBlock is the longest run of non-zero bytes in one COBS block.
const maxBlock = 0xfe

// stuff COBS encodes src and appends the result to dst.
// The output contains no Delimiter and is not terminated.
func stuff(dst, src []byte) []byte {
	codeAt := len(dst)
	dst = append(dst, 0)
	code := byte(1)
	for _, b := range src {
		if b == Delimiter {
			dst[codeAt] = code
			codeAt, code = len(dst), 1
			dst = append(dst, 0)
			continue
		}
		dst = append(dst, b)
		if code++; code == maxBlock+1 {
			dst[codeAt] = code
			codeAt, code = len(dst), 1
			dst = append(dst, 0)
		}
	}
	dst[codeAt] = code
	return dst
}

// unstuff reverses stuff. It accepts both encodings of a run which ends
// exactly at a full block.
func unstuff(src []byte) ([]byte, bool) {
	dst := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		code := src[i]
		if code == Delimiter {
			return nil, false
		}
		i++
		end := i + int(code) - 1
		if end > len(src) {
			return nil, false
		}
		for ; i < end; i++ {
			if src[i] == Delimiter {
				return nil, false
			}
			dst = append(dst, src[i])
		}
		if code != maxBlock+1 && i < len(src) {
			dst = append(dst, Delimiter)
		}
	}
	return dst, true
}
