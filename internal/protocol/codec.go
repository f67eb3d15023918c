package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// compressThreshold mirrors the teacher's ShouldCompress heuristic:
// below this payload size zstd's frame overhead outweighs the savings.
const compressThreshold = 200

// flagCompressed marks byte 0 of a frame's body (after the length
// prefix) when the remaining bytes are zstd-compressed; the tag byte
// and fields follow only after decompression.
const flagCompressed = 0x01
const flagPlain = 0x00

// Codec encodes/decodes frames, reusing one zstd encoder/decoder pair
// per connection the way the teacher's MessageSerializer does.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec constructs a Codec. Close releases the zstd encoder/decoder.
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("protocol: create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("protocol: create zstd decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Close releases the codec's zstd resources.
func (c *Codec) Close() error {
	c.enc.Close()
	c.dec.Close()
	return nil
}

// EncodeFrame serializes pkt into a length-prefixed frame: [u32 LE
// length][compression flag][tag][fields...]. Bodies at or above
// compressThreshold are zstd-compressed, matching the teacher's
// ShouldCompress size heuristic — chunk bulk data is reliably above it,
// small state packets reliably below.
func (c *Codec) EncodeFrame(pkt Packet) ([]byte, error) {
	var body []byte
	body = append(body, byte(pkt.Tag()))
	var err error
	body, err = appendFields(body, pkt)
	if err != nil {
		return nil, err
	}

	flag := byte(flagPlain)
	if len(body) >= compressThreshold {
		body = c.enc.EncodeAll(body, nil)
		flag = flagCompressed
	}

	frame := make([]byte, 0, 5+len(body))
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(len(body)+1))
	frame = append(frame, header...)
	frame = append(frame, flag)
	frame = append(frame, body...)
	return frame, nil
}

// WriteFrame encodes pkt and writes it to w.
func (c *Codec) WriteFrame(w io.Writer, pkt Packet) error {
	frame, err := c.EncodeFrame(pkt)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadFrame reads one length-prefixed frame from r and decodes it into
// a Packet.
func (c *Codec) ReadFrame(r io.Reader) (Packet, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(header[:])
	if length == 0 {
		return nil, fmt.Errorf("protocol: zero-length frame")
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("protocol: read frame body: %w", err)
	}

	flag, payload := body[0], body[1:]
	if flag == flagCompressed {
		decoded, err := c.dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("protocol: decompress frame: %w", err)
		}
		payload = decoded
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("protocol: empty frame payload")
	}
	return decodeFields(Tag(payload[0]), payload[1:])
}

// NewFrameReader wraps r in a buffered reader sized for chunk bulk
// frames, so ReadFrame doesn't issue a syscall per field.
func NewFrameReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, 64*1024)
}
