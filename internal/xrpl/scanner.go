// Package xrpl reads the parts of a signed XRPL SignIn blob that signature
// verification needs: the signing key, the signature, the challenge memo,
// and the unsigned signing payload.
package xrpl

const (
	tagSigningPubKey = 0x73
	tagTxnSignature  = 0x74
	// XRPL field names. Some wallet docs label 0x7C and 0x7D the other way
	// round; selection in ExtractFieldsBytes is by byte value.
	tagMemoType   = 0x7C
	tagMemoData   = 0x7D
	tagMemoFormat = 0x7E

	markerMemos     = 0xF9
	markerMemo      = 0xEA
	markerObjectEnd = 0xE1
	markerArrayEnd  = 0xF1

	// Largest length a single VL prefix byte can express.
	maxShortVL = 192
)

// SigningPrefix is prepended to the unsigned blob before hashing ("STX\0").
var SigningPrefix = []byte{0x53, 0x54, 0x58, 0x00}

type tokenKind uint8

const (
	tokenByte tokenKind = iota
	tokenSkip
	tokenSigningPubKey
	tokenTxnSignature
	tokenMemosStart
	tokenMemoType
	tokenMemoData
	tokenMemosEnd
)

type scanState uint8

const (
	stateOuter scanState = iota
	stateMemos
)

// token is one step of the scan. buf[start:end] are the raw bytes it covers,
// payload is the field content for captured fields.
type token struct {
	kind    tokenKind
	tag     byte
	start   int
	end     int
	payload []byte
}

// scanner walks a decoded blob as a two-state machine. Tags are only
// recognised at positions the machine reaches, never inside the payload of a
// field it has already stepped over.
type scanner struct {
	buf   []byte
	pos   int
	state scanState
}

func newScanner(buf []byte) *scanner {
	return &scanner{buf: buf}
}

// next returns the next token, or false at the end of the buffer.
func (s *scanner) next() (token, bool) {
	if s.pos >= len(s.buf) {
		return token{}, false
	}

	var tok token
	switch s.state {
	case stateMemos:
		tok = s.memoToken()
	default:
		tok = s.outerToken()
	}

	s.pos = tok.end
	switch tok.kind {
	case tokenMemosStart:
		s.state = stateMemos
	case tokenMemosEnd:
		s.state = stateOuter
	}
	return tok, true
}

func (s *scanner) outerToken() token {
	i := s.pos
	b := s.buf[i]

	switch b {
	case tagSigningPubKey:
		return s.lengthPrefixed(tokenSigningPubKey)
	case tagTxnSignature:
		return s.lengthPrefixed(tokenTxnSignature)
	case markerMemos:
		if i+1 < len(s.buf) && s.buf[i+1] == markerMemo {
			return token{kind: tokenMemosStart, tag: b, start: i, end: i + 2}
		}
	}

	typeCode, size, ok := s.header()
	if !ok {
		return s.single()
	}

	switch typeCode {
	case typeObject, typeArray:
		return token{kind: tokenSkip, tag: b, start: i, end: i + size}
	case typeAmount:
		return s.amount(size)
	case typeBlob, typeAccountID, typeVector256:
		return s.variable(size)
	}
	if width, known := fixedWidths[typeCode]; known {
		return s.fixed(size, width)
	}
	return s.single()
}

func (s *scanner) memoToken() token {
	b := s.buf[s.pos]
	switch b {
	case markerObjectEnd, markerArrayEnd:
		return token{kind: tokenMemosEnd, tag: b, start: s.pos, end: s.pos + 1}
	case tagMemoType:
		return s.lengthPrefixed(tokenMemoType)
	case tagMemoData:
		return s.lengthPrefixed(tokenMemoData)
	case tagMemoFormat:
		return s.lengthPrefixed(tokenSkip)
	}
	return s.single()
}

// Serialized type codes whose payload length the scanner can work out.
const (
	typeAmount    = 6
	typeBlob      = 7
	typeAccountID = 8
	typeObject    = 14
	typeArray     = 15
	typeVector256 = 19
)

// fixedWidths maps a serialized type code to its payload width.
var fixedWidths = map[byte]int{
	1:  2,  // UInt16
	2:  4,  // UInt32
	3:  8,  // UInt64
	4:  16, // Hash128
	5:  32, // Hash256
	16: 1,  // UInt8
	17: 20, // Hash160
	21: 24, // Hash192
}

// header decodes the field header at the current position and returns its
// type code and size in bytes. A zero type nibble puts the type code in the
// next byte; a zero field nibble puts the field code in the byte after that.
// Non-canonical or cut-off headers report false.
func (s *scanner) header() (byte, int, bool) {
	i := s.pos
	b := s.buf[i]
	typeCode, fieldCode := b>>4, b&0x0F
	size := 1

	if typeCode == 0 {
		if i+size >= len(s.buf) {
			return 0, 0, false
		}
		typeCode = s.buf[i+size]
		size++
		if typeCode < 16 {
			return 0, 0, false
		}
	}
	if fieldCode == 0 {
		if i+size >= len(s.buf) {
			return 0, 0, false
		}
		if s.buf[i+size] < 16 {
			return 0, 0, false
		}
		size++
	}
	return typeCode, size, true
}

func (s *scanner) single() token {
	return token{kind: tokenByte, tag: s.buf[s.pos], start: s.pos, end: s.pos + 1}
}

// lengthPrefixed reads tag, one length byte, then that many payload bytes.
// A tag in the final byte is treated as an ordinary byte. When the payload
// runs past the end of the buffer the field is abandoned: the tag and length
// byte are stepped over and scanning resumes after them.
func (s *scanner) lengthPrefixed(kind tokenKind) token {
	i := s.pos
	if i+1 >= len(s.buf) {
		return s.single()
	}
	n := int(s.buf[i+1])
	end := i + 2 + n
	if end > len(s.buf) {
		return token{kind: tokenByte, tag: s.buf[i], start: i, end: i + 2}
	}
	return token{kind: kind, tag: s.buf[i], start: i, end: end, payload: s.buf[i+2 : end]}
}

// fixed skips a header of hdr bytes and a payload of width bytes. A payload
// cut off by the end of the buffer is stepped over one byte at a time.
func (s *scanner) fixed(hdr, width int) token {
	end := s.pos + hdr + width
	if end > len(s.buf) {
		return s.single()
	}
	return token{kind: tokenSkip, tag: s.buf[s.pos], start: s.pos, end: end}
}

// variable skips a VL-encoded field: a one, two or three byte length prefix
// followed by the payload.
func (s *scanner) variable(hdr int) token {
	i := s.pos + hdr
	if i >= len(s.buf) {
		return s.single()
	}

	b1 := int(s.buf[i])
	var n, prefix int
	switch {
	case b1 <= maxShortVL:
		n, prefix = b1, 1
	case b1 <= 240:
		if i+1 >= len(s.buf) {
			return s.single()
		}
		n, prefix = 193+(b1-193)*256+int(s.buf[i+1]), 2
	case b1 <= 254:
		if i+2 >= len(s.buf) {
			return s.single()
		}
		n, prefix = 12481+(b1-241)*65536+int(s.buf[i+1])*256+int(s.buf[i+2]), 3
	default:
		return s.single()
	}
	return s.fixed(hdr, prefix+n)
}

// amount skips an Amount field: 8 bytes for XRP, 33 for an MPT amount and
// 48 for an issued currency.
func (s *scanner) amount(hdr int) token {
	if s.pos+hdr >= len(s.buf) {
		return s.single()
	}
	lead := s.buf[s.pos+hdr]
	switch {
	case lead&0x80 != 0:
		return s.fixed(hdr, 48)
	case lead&0x20 != 0:
		return s.fixed(hdr, 33)
	default:
		return s.fixed(hdr, 8)
	}
}
