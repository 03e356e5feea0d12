package firmware

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Constants for package classification.
const (
	// ImageMagic is the MCUboot image header magic (little-endian)
	ImageMagic = 0x96f3b83d

	// ImageHeaderSize is the size of an MCUboot image header in bytes
	ImageHeaderSize = 32

	// ManifestName is the manifest file expected at the root of a package archive
	ManifestName = "manifest.json"

	// DefaultSlot is the slot raw images are uploaded to (the secondary slot)
	DefaultSlot = 1
)

// PackageProbe recognizes standard packages: zip archives described by a
// manifest.json, or a single raw MCUboot image (.bin, .img).
type PackageProbe struct{}

// Name implements Probe.
func (PackageProbe) Name() string { return "package" }

// Probe implements Probe.
func (PackageProbe) Probe(_ context.Context, p string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(p))
	switch ext {
	case ".zip":
		data, err := readSource(p)
		if err != nil {
			return nil, err
		}
		pkg, err := ParsePackageArchive(data)
		if err != nil {
			return nil, withURI(err, p)
		}
		return pkg, nil
	case ".bin", ".img":
		data, err := readSource(p)
		if err != nil {
			return nil, err
		}
		pkg, err := ParseImage(filepath.Base(p), data)
		if err != nil {
			return nil, withURI(err, p)
		}
		return pkg, nil
	default:
		return nil, newParseError(UnsupportedFormat, p, "unrecognized package extension %q", ext)
	}
}

// ParseImage wraps a single raw image into a one-image Package after
// checking its header magic.
//
// Example:
//
//	data, _ := os.ReadFile("zephyr.signed.bin")
//	pkg, err := firmware.ParseImage("zephyr.signed.bin", data)
func ParseImage(name string, data []byte) (*Package, error) {
	if err := checkImageHeader(data); err != nil {
		return nil, &ParseError{Kind: Corrupted, URI: name, Err: err}
	}
	return &Package{
		Images: []Image{{Index: 0, Slot: DefaultSlot, Name: name, Data: data}},
	}, nil
}

// ParsePackageArchive parses a zip package from memory.
//
// The manifest lists the images:
//
//	{"files": [{"file": "app.bin", "image_index": "0", "slot": 1}, ...]}
//
// image_index may be a string or a number; slot defaults to DefaultSlot.
func ParsePackageArchive(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{Kind: Corrupted, Err: fmt.Errorf("invalid archive: %w", err)}
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	mf, ok := entries[ManifestName]
	if !ok {
		return nil, &ParseError{Kind: Corrupted, Err: fmt.Errorf("%s not found in archive", ManifestName)}
	}
	manifest, err := readEntry(mf)
	if err != nil {
		return nil, &ParseError{Kind: Corrupted, Err: fmt.Errorf("read %s: %w", ManifestName, err)}
	}
	if !gjson.ValidBytes(manifest) {
		return nil, &ParseError{Kind: Corrupted, Err: fmt.Errorf("%s is not valid JSON", ManifestName)}
	}

	files := gjson.GetBytes(manifest, "files")
	if !files.IsArray() || len(files.Array()) == 0 {
		return nil, &ParseError{Kind: Corrupted, Err: fmt.Errorf("%s lists no files", ManifestName)}
	}

	pkg := &Package{Images: make([]Image, 0, len(files.Array()))}
	for i, entry := range files.Array() {
		name := entry.Get("file").String()
		if name == "" {
			return nil, &ParseError{Kind: Corrupted, Err: fmt.Errorf("manifest file %d has no name", i)}
		}

		f, ok := entries[name]
		if !ok {
			f, ok = findByBase(zr.File, name)
		}
		if !ok {
			return nil, &ParseError{Kind: Corrupted, Err: fmt.Errorf("image %q not found in archive", name)}
		}

		content, err := readEntry(f)
		if err != nil {
			return nil, &ParseError{Kind: Corrupted, Err: fmt.Errorf("read image %q: %w", name, err)}
		}
		if err := checkImageHeader(content); err != nil {
			return nil, &ParseError{Kind: Corrupted, Err: fmt.Errorf("image %q: %w", name, err)}
		}

		slot := DefaultSlot
		if s := entry.Get("slot"); s.Exists() {
			slot = int(s.Int())
		}

		pkg.Images = append(pkg.Images, Image{
			Index: int(entry.Get("image_index").Int()),
			Slot:  slot,
			Name:  name,
			Data:  content,
		})
	}

	return pkg, nil
}

func checkImageHeader(data []byte) error {
	if len(data) < ImageHeaderSize {
		return fmt.Errorf("image too short: got %d bytes, minimum is %d", len(data), ImageHeaderSize)
	}
	if magic := binary.LittleEndian.Uint32(data[:4]); magic != ImageMagic {
		return fmt.Errorf("invalid image magic: got 0x%08X, expected 0x%08X", magic, uint32(ImageMagic))
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(rc)
}

func findByBase(files []*zip.File, name string) (*zip.File, bool) {
	base := path.Base(name)
	for _, f := range files {
		if path.Base(f.Name) == base {
			return f, true
		}
	}
	return nil, false
}

// withURI fills in the URI of a *ParseError produced by an in-memory parser.
func withURI(err error, uri string) error {
	if pe, ok := err.(*ParseError); ok && pe.URI == "" {
		pe.URI = uri
	}
	return err
}
