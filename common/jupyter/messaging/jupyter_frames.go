package messaging

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

const (
	JupyterSignatureScheme = "hmac-sha256"
)

const (
	JupyterFrameStart int = iota
	JupyterFrameSignature
	JupyterFrameHeader
	JupyterFrameParentHeader
	JupyterFrameMetadata
	JupyterFrameContent
	JupyterFrameBuffers
)

var (
	JupyterFrameIDSMSG = []byte("<IDS|MSG>")
	JupyterFrameEmpty  = []byte("{}")

	ErrNotSupportedSignatureScheme = fmt.Errorf("not supported signature scheme")
	ErrInvalidJupyterSignature     = fmt.Errorf("invalid jupyter signature")
)

// JupyterFrames provides a simple way to access the frames of a Jupyter message.
// Frames excludes the routing identities.
// 0: <IDS|MSG>, 1: Signature, 2: Header, 3: ParentHeader, 4: Metadata, 5: Content[, 6...: Buffers]
type JupyterFrames [][]byte

func NewJupyterFrames() JupyterFrames {
	frames := make(JupyterFrames, JupyterFrameContent+1, JupyterFrameBuffers+1)
	frames[JupyterFrameStart] = JupyterFrameIDSMSG
	frames[JupyterFrameSignature] = []byte{}
	frames[JupyterFrameHeader] = JupyterFrameEmpty
	frames[JupyterFrameParentHeader] = JupyterFrameEmpty
	frames[JupyterFrameMetadata] = JupyterFrameEmpty
	frames[JupyterFrameContent] = JupyterFrameEmpty
	return frames
}

// SkipIdentitiesFrame splits raw zmq frames into the routing identities and the Jupyter frames.
// If there is no "<IDS|MSG>" delimiter, then all frames are returned as identities and the offset equals len(frames).
func SkipIdentitiesFrame(frames [][]byte) (JupyterFrames, int) {
	i := 0
	for i < len(frames) && !bytes.Equal(frames[i], JupyterFrameIDSMSG) {
		i++
	}

	return frames[i:], i
}

func (frames JupyterFrames) String() string {
	if len(frames) == 0 {
		return "[]"
	}

	s := "["
	for i, frame := range frames {
		s += "\"" + string(frame) + "\""

		if i+1 < len(frames) {
			s += ", "
		}
	}

	s += "]"

	return s
}

func (frames JupyterFrames) Validate() error {
	if len(frames) < JupyterFrameContent+1 {
		return errors.Wrapf(ErrMalformedMessage, "expected at least %d frames, got %d", JupyterFrameContent+1, len(frames))
	}

	if !bytes.Equal(frames[JupyterFrameStart], JupyterFrameIDSMSG) {
		return errors.Wrap(ErrMalformedMessage, "missing <IDS|MSG> delimiter")
	}

	return nil
}

// Verify checks the signature frame. An empty key disables authentication.
func (frames JupyterFrames) Verify(signatureScheme string, key []byte) error {
	if err := frames.Validate(); err != nil {
		return err
	}

	if len(key) == 0 {
		return nil
	}

	if signatureScheme != JupyterSignatureScheme {
		return ErrNotSupportedSignatureScheme
	}

	if !frames.verify(key) {
		return ErrInvalidJupyterSignature
	}

	return nil
}

// Sign computes the signature frame. An empty key produces an empty signature.
func (frames JupyterFrames) Sign(signatureScheme string, key []byte) (JupyterFrames, error) {
	if len(key) == 0 {
		frames[JupyterFrameSignature] = []byte{}
		return frames, nil
	}

	if signatureScheme != JupyterSignatureScheme {
		return frames, ErrNotSupportedSignatureScheme
	}

	signature := frames.sign(key)
	encoded := make([]byte, hex.EncodedLen(len(signature)))
	hex.Encode(encoded, signature)
	frames[JupyterFrameSignature] = encoded
	return frames, nil
}

func (frames JupyterFrames) EncodeHeader(in any) (err error) {
	frames[JupyterFrameHeader], err = json.Marshal(in)
	return err
}

func (frames JupyterFrames) DecodeHeader(out any) error {
	return json.Unmarshal(frames[JupyterFrameHeader], out)
}

func (frames JupyterFrames) EncodeParentHeader(in any) (err error) {
	frames[JupyterFrameParentHeader], err = json.Marshal(in)
	return err
}

func (frames JupyterFrames) DecodeParentHeader(out any) error {
	return json.Unmarshal(frames[JupyterFrameParentHeader], out)
}

func (frames JupyterFrames) EncodeMetadata(in any) (err error) {
	frames[JupyterFrameMetadata], err = json.Marshal(in)
	return err
}

func (frames JupyterFrames) DecodeMetadata(out any) error {
	return json.Unmarshal(frames[JupyterFrameMetadata], out)
}

func (frames JupyterFrames) EncodeContent(in any) (err error) {
	frames[JupyterFrameContent], err = json.Marshal(in)
	return err
}

func (frames JupyterFrames) DecodeContent(out any) error {
	return json.Unmarshal(frames[JupyterFrameContent], out)
}

func (frames JupyterFrames) verify(signkey []byte) bool {
	expect := frames.sign(signkey)
	signature := make([]byte, hex.DecodedLen(len(frames[JupyterFrameSignature])))
	if _, err := hex.Decode(signature, frames[JupyterFrameSignature]); err != nil {
		return false
	}
	return hmac.Equal(expect, signature)
}

func (frames JupyterFrames) sign(signkey []byte) []byte {
	mac := hmac.New(sha256.New, signkey)
	for _, msgpart := range frames[JupyterFrameHeader:] {
		mac.Write(msgpart)
	}
	return mac.Sum(nil)
}

// ParseMessage decodes raw zmq frames into a Message, verifying the signature when key is non-empty.
func ParseMessage(raw [][]byte, signatureScheme string, key []byte) (*Message, error) {
	frames, offset := SkipIdentitiesFrame(raw)
	if err := frames.Verify(signatureScheme, key); err != nil {
		return nil, err
	}

	msg := &Message{
		Identities: cloneFrames(raw[:offset]),
		Metadata:   make(map[string]interface{}),
	}

	if err := frames.DecodeHeader(&msg.Header); err != nil {
		return nil, errors.Wrapf(ErrMalformedMessage, "undecodable header: %v", err)
	}

	var parentHeader MessageHeader
	if len(frames[JupyterFrameParentHeader]) > 0 {
		if err := frames.DecodeParentHeader(&parentHeader); err != nil {
			return nil, errors.Wrapf(ErrMalformedMessage, "undecodable parent header: %v", err)
		}
	}
	if parentHeader.MsgID != "" || parentHeader.MsgType != "" {
		msg.ParentHeader = &parentHeader
	}

	if len(frames[JupyterFrameMetadata]) > 0 {
		if err := frames.DecodeMetadata(&msg.Metadata); err != nil {
			return nil, errors.Wrapf(ErrMalformedMessage, "undecodable metadata: %v", err)
		}
		if msg.Metadata == nil {
			msg.Metadata = make(map[string]interface{})
		}
	}

	content := make(map[string]interface{})
	if len(frames[JupyterFrameContent]) > 0 {
		if err := frames.DecodeContent(&content); err != nil {
			return nil, errors.Wrapf(ErrMalformedMessage, "undecodable content: %v", err)
		}
		if content == nil {
			content = make(map[string]interface{})
		}
	}
	msg.Content = content

	if len(frames) > JupyterFrameBuffers {
		msg.Buffers = cloneFrames(frames[JupyterFrameBuffers:])
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return msg, nil
}

// Frames encodes the message into signed zmq frames, identities first.
func (msg *Message) Frames(signatureScheme string, key []byte) ([][]byte, error) {
	frames := NewJupyterFrames()

	if err := frames.EncodeHeader(&msg.Header); err != nil {
		return nil, errors.Wrap(err, "failed to encode header")
	}

	if msg.ParentHeader != nil {
		if err := frames.EncodeParentHeader(msg.ParentHeader); err != nil {
			return nil, errors.Wrap(err, "failed to encode parent header")
		}
	}

	metadata := msg.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if err := frames.EncodeMetadata(metadata); err != nil {
		return nil, errors.Wrap(err, "failed to encode metadata")
	}

	content := msg.Content
	if content == nil {
		content = map[string]interface{}{}
	}
	if err := frames.EncodeContent(content); err != nil {
		return nil, errors.Wrap(err, "failed to encode content")
	}

	for _, buffer := range msg.Buffers {
		frames = append(frames, buffer)
	}

	if _, err := frames.Sign(signatureScheme, key); err != nil {
		return nil, err
	}

	raw := make([][]byte, 0, len(msg.Identities)+len(frames))
	raw = append(raw, msg.Identities...)
	raw = append(raw, frames...)
	return raw, nil
}
