package firmware

import (
	"fmt"
	"sort"
)

// Kind identifies which update format a Source was classified as.
type Kind int

const (
	// KindPackage is a multi-image package with a test/confirm activation model.
	KindPackage Kind = iota + 1

	// KindEnvelope is a manifest envelope described by a digest plus payload.
	KindEnvelope
)

func (k Kind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// Source is a resolved firmware artifact. It is either a *Package or an
// *Envelope; exactly one variant is active per resolution.
type Source interface {
	// Kind reports the active variant.
	Kind() Kind

	source()
}

// Image is a single image slot of a Package.
type Image struct {
	// Index is the target image (core) number
	Index int

	// Slot is the flash slot the image is uploaded into
	Slot int

	// Name is the file name of the image inside its container
	Name string

	// Data is the raw image content
	Data []byte
}

// Package is a standard multi-image firmware package.
type Package struct {
	// Images in the order they must be uploaded
	Images []Image
}

// Kind implements Source.
func (*Package) Kind() Kind { return KindPackage }

func (*Package) source() {}

// Size returns the total number of image bytes in the package.
func (p *Package) Size() int {
	total := 0
	for _, img := range p.Images {
		total += len(img.Data)
	}
	return total
}

// DigestAlgorithm is a COSE hash algorithm identifier.
type DigestAlgorithm int

// COSE algorithm identifiers used by envelope digests.
const (
	SHA256   DigestAlgorithm = -16
	SHAKE128 DigestAlgorithm = -18
	SHA384   DigestAlgorithm = -43
	SHA512   DigestAlgorithm = -44
	SHAKE256 DigestAlgorithm = -45
)

func (a DigestAlgorithm) String() string {
	switch a {
	case SHA256:
		return "SHA-256"
	case SHAKE128:
		return "SHAKE128"
	case SHA384:
		return "SHA-384"
	case SHA512:
		return "SHA-512"
	case SHAKE256:
		return "SHAKE256"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// Envelope is a manifest-driven update: the firmware is described by its
// digest and uploaded as a single payload.
type Envelope struct {
	// Payload is the complete envelope as read from the source
	Payload []byte

	// Digests holds the digest bytes offered for each algorithm
	Digests map[DigestAlgorithm][]byte
}

// Kind implements Source.
func (*Envelope) Kind() Kind { return KindEnvelope }

func (*Envelope) source() {}

// Algorithms returns the available digest algorithms in ascending id order.
func (e *Envelope) Algorithms() []DigestAlgorithm {
	algs := make([]DigestAlgorithm, 0, len(e.Digests))
	for alg := range e.Digests {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}

// Digest returns the digest bytes for alg, if the envelope offers it.
func (e *Envelope) Digest(alg DigestAlgorithm) ([]byte, bool) {
	d, ok := e.Digests[alg]
	return d, ok
}
