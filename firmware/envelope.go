package firmware

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Envelope CBOR layout constants.
const (
	// EnvelopeTag is the CBOR tag optionally wrapping an envelope
	EnvelopeTag = 107

	// EnvelopeExtension is the file extension of envelope files
	EnvelopeExtension = ".suit"

	authenticationWrapperKey = 2
	manifestKey              = 3
)

// suitDigest is [algorithm-id, digest-bytes].
type suitDigest struct {
	_         struct{} `cbor:",toarray"`
	Algorithm int64
	Bytes     []byte
}

// EnvelopeProbe recognizes CBOR manifest envelopes.
type EnvelopeProbe struct{}

// Name implements Probe.
func (EnvelopeProbe) Name() string { return "envelope" }

// Probe implements Probe. Input that is not CBOR at all is reported as
// UnsupportedFormat, unless the file carries the envelope extension.
func (EnvelopeProbe) Probe(_ context.Context, p string) (Source, error) {
	data, err := readSource(p)
	if err != nil {
		return nil, err
	}

	env, err := ParseEnvelope(data)
	if err != nil {
		if pe, ok := err.(*ParseError); ok && pe.Kind == UnsupportedFormat &&
			strings.EqualFold(filepath.Ext(p), EnvelopeExtension) {
			pe.Kind = Corrupted
		}
		return nil, withURI(err, p)
	}
	return env, nil
}

// ParseEnvelope decodes the digest of a CBOR envelope held in memory.
// The envelope bytes become the payload unchanged.
//
// Example:
//
//	data, _ := os.ReadFile("root.suit")
//	env, err := firmware.ParseEnvelope(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sha, ok := env.Digest(firmware.SHA256)
func ParseEnvelope(data []byte) (*Envelope, error) {
	if len(data) == 0 {
		return nil, &ParseError{Kind: UnsupportedFormat, Err: fmt.Errorf("empty input")}
	}
	if err := cbor.Wellformed(data); err != nil {
		return nil, &ParseError{Kind: UnsupportedFormat, Err: fmt.Errorf("not CBOR: %w", err)}
	}

	content := data
	var tagged cbor.RawTag
	if err := cbor.Unmarshal(data, &tagged); err == nil {
		if tagged.Number != EnvelopeTag {
			return nil, &ParseError{Kind: UnsupportedFormat, Err: fmt.Errorf("unexpected CBOR tag %d", tagged.Number)}
		}
		content = tagged.Content
	}

	var envelope map[int]cbor.RawMessage
	if err := cbor.Unmarshal(content, &envelope); err != nil {
		return nil, &ParseError{Kind: UnsupportedFormat, Err: fmt.Errorf("envelope is not a map: %w", err)}
	}
	if _, ok := envelope[manifestKey]; !ok {
		return nil, &ParseError{Kind: Corrupted, Err: fmt.Errorf("envelope has no manifest")}
	}

	digest, err := decodeDigest(envelope[authenticationWrapperKey])
	if err != nil {
		return nil, &ParseError{Kind: Corrupted, Err: err}
	}

	return &Envelope{
		Payload: data,
		Digests: map[DigestAlgorithm][]byte{
			DigestAlgorithm(digest.Algorithm): digest.Bytes,
		},
	}, nil
}

func decodeDigest(wrapper cbor.RawMessage) (*suitDigest, error) {
	if len(wrapper) == 0 {
		return nil, fmt.Errorf("envelope has no authentication wrapper")
	}

	var authBytes []byte
	if err := cbor.Unmarshal(wrapper, &authBytes); err != nil {
		return nil, fmt.Errorf("authentication wrapper: %w", err)
	}

	var auth []cbor.RawMessage
	if err := cbor.Unmarshal(authBytes, &auth); err != nil {
		return nil, fmt.Errorf("authentication wrapper: %w", err)
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("authentication wrapper is empty")
	}

	var digestBytes []byte
	if err := cbor.Unmarshal(auth[0], &digestBytes); err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}

	var d suitDigest
	if err := cbor.Unmarshal(digestBytes, &d); err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}
	if len(d.Bytes) == 0 {
		return nil, fmt.Errorf("digest for %s is empty", DigestAlgorithm(d.Algorithm))
	}

	return &d, nil
}
