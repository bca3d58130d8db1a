package cachedpath

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// archiveFormat is a closed set of extractable variants, as Design Notes §9
// describes: format detection and extraction are naturally modeled as
// tagged variants rather than an open interface registry.
type archiveFormat int

const (
	formatUnknown archiveFormat = iota
	formatTar
	formatTarGz
	formatZip
	formatTarXz
)

var (
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
)

// sniffArchive inspects up to the first kilobyte of path and reports which
// archiveFormat it is, or formatUnknown if it is not a recognised archive.
func sniffArchive(path string) (archiveFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return formatUnknown, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	buf := make([]byte, 1024)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return formatUnknown, fmt.Errorf("%w: %v", ErrIO, err)
	}
	buf = buf[:n]

	switch {
	case bytes.HasPrefix(buf, zipMagic):
		return formatZip, nil
	case bytes.HasPrefix(buf, gzipMagic):
		return formatTarGz, nil
	case bytes.HasPrefix(buf, xzMagic):
		return formatTarXz, nil
	case looksLikeTar(buf):
		return formatTar, nil
	default:
		return formatUnknown, nil
	}
}

// looksLikeTar validates the USTAR header checksum at offset 148, the same
// heuristic archive/tar.Reader itself would accept as a valid first block.
func looksLikeTar(buf []byte) bool {
	if len(buf) < 512 {
		return false
	}

	block := buf[:512]
	want := parseOctal(block[148:156])
	if want < 0 {
		return false
	}

	sum := 0
	for i, b := range block {
		if i >= 148 && i < 156 {
			b = ' '
		}
		sum += int(b)
	}

	return sum == want
}

func parseOctal(field []byte) int {
	n := 0
	for _, b := range field {
		if b == 0 || b == ' ' {
			continue
		}
		if b < '0' || b > '7' {
			return -1
		}
		n = n*8 + int(b-'0')
	}
	return n
}

// extractArchive extracts the archive at srcPath into destDir (created
// fresh), rejecting any member whose normalized path would escape destDir.
// destDir must not already exist; the caller is responsible for the
// temp-dir-then-rename protocol described in spec §4.7.
func extractArchive(srcPath, destDir string) error {
	format, err := sniffArchive(srcPath)
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	switch format {
	case formatZip:
		return extractZip(srcPath, destDir)
	case formatTarGz:
		return extractTarGz(f, destDir)
	case formatTar:
		return extractTar(f, destDir)
	case formatTarXz:
		return extractTarXz(f, destDir)
	default:
		return fmt.Errorf("%w: unrecognised archive format: %s", ErrExtraction, srcPath)
	}
}

// safeJoin joins destDir with a member path from an archive, rejecting any
// result that would escape destDir via ".." or an absolute component
// (Testable Property 8).
func safeJoin(destDir, member string) (string, error) {
	if filepath.IsAbs(member) {
		return "", fmt.Errorf("%w: absolute path in archive: %s", ErrExtraction, member)
	}

	cleaned := filepath.Clean(member)
	if cleaned == ".." || hasDotDotPrefix(cleaned) {
		return "", fmt.Errorf("%w: path escapes destination: %s", ErrExtraction, member)
	}

	full := filepath.Join(destDir, cleaned)
	rel, err := filepath.Rel(destDir, full)
	if err != nil || rel == ".." || hasDotDotPrefix(rel) {
		return "", fmt.Errorf("%w: path escapes destination: %s", ErrExtraction, member)
	}

	return full, nil
}

func hasDotDotPrefix(p string) bool {
	return len(p) >= 3 && p[:3] == "../"
}
