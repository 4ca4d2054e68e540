package wire

import (
	"encoding/binary"
)

// headerLen is the fixed prefix shared by every frame: 4 bytes of total
// length (inclusive of itself), 1 byte of message type, 2 bytes of tag.
const headerLen = 4 + 1 + 2

// Codec is a stateless namespace for the encode/decode operations. It
// carries no fields; its methods exist so callers can depend on an
// interface-shaped value the way internal/vnc's protocol.go groups its
// free functions by protocol role.
type Codec struct{}

func putString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s)))
	buf = append(buf, s...)
	return buf
}

func getString(buf []byte) (string, []byte, error) {
	if len(buf) < 2 {
		return "", nil, ErrShortRead
	}
	n := binary.LittleEndian.Uint16(buf)
	buf = buf[2:]
	if len(buf) < int(n) {
		return "", nil, ErrMalformedField
	}
	return string(buf[:n]), buf[n:], nil
}

func encodeBody(req *Request) (MsgType, []byte, error) {
	var buf []byte

	switch {
	case req.Version != nil:
		buf = binary.LittleEndian.AppendUint32(buf, req.Version.Msize)
		buf = putString(buf, req.Version.Version)
		return MsgTversion, buf, nil
	case req.Attach != nil:
		a := req.Attach
		buf = binary.LittleEndian.AppendUint32(buf, a.Fid)
		buf = binary.LittleEndian.AppendUint32(buf, a.Afid)
		buf = putString(buf, a.Uname)
		buf = putString(buf, a.Aname)
		buf = binary.LittleEndian.AppendUint32(buf, a.NUname)
		return MsgTattach, buf, nil
	case req.Read != nil:
		r := req.Read
		buf = binary.LittleEndian.AppendUint32(buf, r.Fid)
		buf = binary.LittleEndian.AppendUint64(buf, r.Offset)
		buf = binary.LittleEndian.AppendUint32(buf, r.Count)
		return MsgTread, buf, nil
	case req.Write != nil:
		w := req.Write
		buf = binary.LittleEndian.AppendUint32(buf, w.Fid)
		buf = binary.LittleEndian.AppendUint64(buf, w.Offset)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(w.Data)))
		buf = append(buf, w.Data...)
		return MsgTwrite, buf, nil
	default:
		return 0, nil, ErrInvalidType
	}
}

// EncodeRequest serializes req into a complete Secure9P frame. It fails
// with BufferOverflow if the encoded body would make the frame exceed
// MAX_MSIZE.
func (Codec) EncodeRequest(req *Request) ([]byte, error) {
	msgType, body, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	total := headerLen + len(body)
	if total > MAX_MSIZE {
		return nil, ErrBufferOverflow("request body exceeds MAX_MSIZE")
	}

	frame := make([]byte, 0, total)
	frame = binary.LittleEndian.AppendUint32(frame, uint32(total))
	frame = append(frame, byte(msgType))
	frame = binary.LittleEndian.AppendUint16(frame, req.Tag)
	frame = append(frame, body...)

	return frame, nil
}

// DecodeRequest parses one frame off the front of buf, enforcing limit as
// the maximum allowed declared size, and returns the remaining bytes.
func (Codec) DecodeRequest(buf []byte, limit uint32) (*Request, []byte, error) {
	if len(buf) < headerLen {
		return nil, nil, ErrShortRead
	}

	total := binary.LittleEndian.Uint32(buf)
	if total > limit {
		return nil, nil, ErrFrameTooLarge(total, limit)
	}
	if uint32(len(buf)) < total {
		return nil, nil, ErrShortRead
	}

	frame := buf[:total]
	rest := buf[total:]

	msgType := MsgType(frame[4])
	tag := binary.LittleEndian.Uint16(frame[5:7])
	body := frame[headerLen:]

	req := &Request{Tag: tag, Type: msgType}

	switch msgType {
	case MsgTversion:
		if len(body) < 4 {
			return nil, nil, ErrMalformedField
		}
		msize := binary.LittleEndian.Uint32(body)
		version, _, err := getString(body[4:])
		if err != nil {
			return nil, nil, err
		}
		req.Version = &VersionBody{Msize: msize, Version: version}
	case MsgTattach:
		if len(body) < 8 {
			return nil, nil, ErrMalformedField
		}
		fid := binary.LittleEndian.Uint32(body)
		afid := binary.LittleEndian.Uint32(body[4:])
		rest := body[8:]
		uname, rest, err := getString(rest)
		if err != nil {
			return nil, nil, err
		}
		aname, rest, err := getString(rest)
		if err != nil {
			return nil, nil, err
		}
		if len(rest) < 4 {
			return nil, nil, ErrMalformedField
		}
		nUname := binary.LittleEndian.Uint32(rest)
		req.Attach = &AttachBody{Fid: fid, Afid: afid, Uname: uname, Aname: aname, NUname: nUname}
	case MsgTread:
		if len(body) < 16 {
			return nil, nil, ErrMalformedField
		}
		fid := binary.LittleEndian.Uint32(body)
		offset := binary.LittleEndian.Uint64(body[4:])
		count := binary.LittleEndian.Uint32(body[12:])
		req.Read = &ReadBody{Fid: fid, Offset: offset, Count: count}
	case MsgTwrite:
		if len(body) < 16 {
			return nil, nil, ErrMalformedField
		}
		fid := binary.LittleEndian.Uint32(body)
		offset := binary.LittleEndian.Uint64(body[4:])
		count := binary.LittleEndian.Uint32(body[12:])
		data := body[16:]
		if uint32(len(data)) < count {
			return nil, nil, ErrMalformedField
		}
		req.Write = &WriteBody{Fid: fid, Offset: offset, Data: append([]byte(nil), data[:count]...)}
	default:
		return nil, nil, ErrInvalidType
	}

	return req, rest, nil
}

func encodeResponseBody(resp *Response) (MsgType, []byte, error) {
	var buf []byte

	switch {
	case resp.Version != nil:
		buf = binary.LittleEndian.AppendUint32(buf, resp.Version.Msize)
		buf = putString(buf, resp.Version.Version)
		return MsgRversion, buf, nil
	case resp.Attach != nil:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(resp.Attach.Session))
		return MsgRattach, buf, nil
	case resp.Read != nil:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(resp.Read.Data)))
		buf = append(buf, resp.Read.Data...)
		return MsgRread, buf, nil
	case resp.Write != nil:
		buf = binary.LittleEndian.AppendUint32(buf, resp.Write.Count)
		return MsgRwrite, buf, nil
	case resp.Error != nil:
		buf = putString(buf, resp.Error.Ename)
		return MsgRerror, buf, nil
	default:
		return 0, nil, ErrInvalidType
	}
}

// EncodeResponse serializes resp into a complete Secure9P frame, subject
// to the same MAX_MSIZE enforcement as EncodeRequest.
func (Codec) EncodeResponse(resp *Response) ([]byte, error) {
	msgType, body, err := encodeResponseBody(resp)
	if err != nil {
		return nil, err
	}

	total := headerLen + len(body)
	if total > MAX_MSIZE {
		return nil, ErrBufferOverflow("response body exceeds MAX_MSIZE")
	}

	frame := make([]byte, 0, total)
	frame = binary.LittleEndian.AppendUint32(frame, uint32(total))
	frame = append(frame, byte(msgType))
	frame = binary.LittleEndian.AppendUint16(frame, resp.Tag)
	frame = append(frame, body...)

	return frame, nil
}

// DecodeResponse parses one response frame off the front of buf.
func (Codec) DecodeResponse(buf []byte, limit uint32) (*Response, []byte, error) {
	if len(buf) < headerLen {
		return nil, nil, ErrShortRead
	}

	total := binary.LittleEndian.Uint32(buf)
	if total > limit {
		return nil, nil, ErrFrameTooLarge(total, limit)
	}
	if uint32(len(buf)) < total {
		return nil, nil, ErrShortRead
	}

	frame := buf[:total]
	rest := buf[total:]

	msgType := MsgType(frame[4])
	tag := binary.LittleEndian.Uint16(frame[5:7])
	body := frame[headerLen:]

	resp := &Response{Tag: tag, Type: msgType}

	switch msgType {
	case MsgRversion:
		if len(body) < 4 {
			return nil, nil, ErrMalformedField
		}
		msize := binary.LittleEndian.Uint32(body)
		version, _, err := getString(body[4:])
		if err != nil {
			return nil, nil, err
		}
		resp.Version = &VersionBody{Msize: msize, Version: version}
	case MsgRattach:
		if len(body) < 8 {
			return nil, nil, ErrMalformedField
		}
		resp.Attach = &RattachBody{Session: SessionId(binary.LittleEndian.Uint64(body))}
	case MsgRread:
		if len(body) < 4 {
			return nil, nil, ErrMalformedField
		}
		count := binary.LittleEndian.Uint32(body)
		data := body[4:]
		if uint32(len(data)) < count {
			return nil, nil, ErrMalformedField
		}
		resp.Read = &RreadBody{Data: append([]byte(nil), data[:count]...)}
	case MsgRwrite:
		if len(body) < 4 {
			return nil, nil, ErrMalformedField
		}
		resp.Write = &RwriteBody{Count: binary.LittleEndian.Uint32(body)}
	case MsgRerror:
		ename, _, err := getString(body)
		if err != nil {
			return nil, nil, err
		}
		resp.Error = &RerrorBody{Ename: ename}
	default:
		return nil, nil, ErrInvalidType
	}

	return resp, rest, nil
}
