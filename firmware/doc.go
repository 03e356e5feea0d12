// Package firmware resolves firmware update sources and classifies them.
//
// # Formats
//
// Two update formats are recognized:
//
//	Package   multi-image package: a zip archive with manifest.json, or a
//	          single raw MCUboot image (.bin, .img)
//	Envelope  CBOR manifest envelope (.suit) described by a digest and
//	          uploaded as one payload
//
// A resolved Source is either a *Package or an *Envelope:
//
//	src, err := firmware.Resolve(ctx, "app_update.zip")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	switch s := src.(type) {
//	case *firmware.Package:
//	    fmt.Printf("%d images\n", len(s.Images))
//	case *firmware.Envelope:
//	    fmt.Printf("digests: %v\n", s.Algorithms())
//	}
//
// # Resolution Order
//
// The Resolver runs its probes in order and returns the first success.
// The package probe always runs first and the envelope probe is attempted on
// any package failure, whether the file was unreadable, corrupted, or simply
// of another format. Custom probes can be supplied with NewResolver.
//
// # Error Handling
//
// Failures are reported as *ParseError with one of three kinds:
//   - Corrupted: the file looks like a supported format but is invalid
//   - IOFailure: the file could not be read
//   - UnsupportedFormat: no probe recognized the file
//
// When all probes fail the most specific kind is reported and the individual
// probe failures are available through errors.Unwrap.
//
// Only the framing needed for classification is decoded: the package
// manifest, image header magic, and envelope digest.
package firmware
