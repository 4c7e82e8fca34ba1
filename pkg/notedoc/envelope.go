package notedoc

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	envelopeMagic     = "BLOCKNOTE_ENVELOPE"
	envelopeVersionV1 = uint16(1)
	envelopeFlagComp  = uint16(1 << 0)
	envelopeFlagEnc   = uint16(1 << 1)
	saltSize          = 16
	nonceSize         = 12
	kdfIterations     = 200000
)

type EncryptionOptions struct {
	Enabled  bool
	Password string
}

type SaveOptions struct {
	Compression bool
	Encryption  EncryptionOptions
}

type LoadOptions struct {
	Password string
}

type EnvelopeInfo struct {
	Wrapped    bool
	Compressed bool
	Encrypted  bool
	Version    uint16
}

// Save writes seq to path, wrapping the wire form in an envelope when
// compression or encryption is requested.
func Save(path string, seq Sequence, opts SaveOptions) error {
	if err := Validate(seq); err != nil {
		return err
	}
	blob, err := Marshal(seq)
	if err != nil {
		return err
	}
	if opts.Encryption.Enabled && strings.TrimSpace(opts.Encryption.Password) == "" {
		return ErrPasswordRequired
	}
	if opts.Compression || opts.Encryption.Enabled {
		blob, err = sealEnvelope(blob, opts)
		if err != nil {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func Load(path string, opts LoadOptions) (Sequence, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Sequence{}, err
	}
	if isEnvelope(b) {
		b, err = openEnvelope(b, opts)
		if err != nil {
			return Sequence{}, err
		}
	}
	return Unmarshal(b)
}

func InspectEnvelope(path string) (EnvelopeInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return inspectEnvelope(b)
}

// frameHeader is the fixed little-endian prefix of an envelope. Size is the
// length of the payload that follows it.
type frameHeader struct {
	Magic   [len(envelopeMagic)]byte
	Version uint16
	Flags   uint16
	Salt    [saltSize]byte
	Nonce   [nonceSize]byte
	Size    uint64
}

func (h frameHeader) info() EnvelopeInfo {
	return EnvelopeInfo{
		Wrapped:    true,
		Compressed: h.Flags&envelopeFlagComp != 0,
		Encrypted:  h.Flags&envelopeFlagEnc != 0,
		Version:    h.Version,
	}
}

func isEnvelope(b []byte) bool {
	return bytes.HasPrefix(b, []byte(envelopeMagic))
}

// readHeader decodes the header at the start of b and returns it with the
// bytes after it.
func readHeader(b []byte) (frameHeader, []byte, error) {
	var h frameHeader
	r := bytes.NewReader(b)
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	if h.Version != envelopeVersionV1 {
		return h, nil, fmt.Errorf("%w: envelope version %d", ErrUnsupportedVersion, h.Version)
	}
	return h, b[len(b)-r.Len():], nil
}

func inspectEnvelope(b []byte) (EnvelopeInfo, error) {
	if !isEnvelope(b) {
		return EnvelopeInfo{}, nil
	}
	h, _, err := readHeader(b)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return h.info(), nil
}

func sealEnvelope(payload []byte, opts SaveOptions) ([]byte, error) {
	h := frameHeader{Version: envelopeVersionV1}
	copy(h.Magic[:], envelopeMagic)

	if opts.Compression {
		h.Flags |= envelopeFlagComp
		var err error
		if payload, err = deflate(payload); err != nil {
			return nil, err
		}
	}
	if opts.Encryption.Enabled {
		h.Flags |= envelopeFlagEnc
		if _, err := rand.Read(h.Salt[:]); err != nil {
			return nil, err
		}
		if _, err := rand.Read(h.Nonce[:]); err != nil {
			return nil, err
		}
		aead, err := newGCM(opts.Encryption.Password, h.Salt[:])
		if err != nil {
			return nil, err
		}
		payload = aead.Seal(nil, h.Nonce[:], payload, nil)
	}
	h.Size = uint64(len(payload))

	var out bytes.Buffer
	out.Grow(binary.Size(h) + len(payload))
	if err := binary.Write(&out, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	out.Write(payload)
	return out.Bytes(), nil
}

func openEnvelope(b []byte, opts LoadOptions) ([]byte, error) {
	h, payload, err := readHeader(b)
	if err != nil {
		return nil, err
	}
	if h.Size != uint64(len(payload)) {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrInvalidEnvelope, len(payload), h.Size)
	}
	info := h.info()

	if info.Encrypted {
		if strings.TrimSpace(opts.Password) == "" {
			return nil, ErrPasswordRequired
		}
		aead, err := newGCM(opts.Password, h.Salt[:])
		if err != nil {
			return nil, err
		}
		if payload, err = aead.Open(nil, h.Nonce[:], payload, nil); err != nil {
			return nil, ErrInvalidPassword
		}
	}
	if info.Compressed {
		if payload, err = inflate(payload); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
		}
	}
	return payload, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func deflate(p []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, err
	}
	_, werr := zw.Write(p)
	if err := errors.Join(werr, zw.Close()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(p []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(p))
	if err != nil {
		return nil, err
	}
	out, rerr := io.ReadAll(zr)
	if err := errors.Join(rerr, zr.Close()); err != nil {
		return nil, err
	}
	return out, nil
}
