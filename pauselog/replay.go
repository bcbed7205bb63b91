package pauselog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// maxFrameSize bounds a single frame during replay, guarding against
// a corrupt length field allocating gigabytes.
const maxFrameSize = 64 << 20

// Replay reads reports from the log at path in append order, calling
// fn for each. A truncated or corrupt tail frame ends replay without
// error (a crash mid-append is expected); fn errors abort replay.
func Replay(path string, fn func(r *Report) error) error {
	file, err := os.Open(path) //nolint:gosec // G304: Path is configurable
	if err != nil {
		return fmt.Errorf("failed to open pause log: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	for {
		var header [frameHeaderSize]byte
		if _, err := io.ReadFull(reader, header[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("failed to read frame header: %w", err)
		}

		uncompressedSize := binary.LittleEndian.Uint32(header[0:4])
		storedSize := binary.LittleEndian.Uint32(header[4:8])
		checksum := binary.LittleEndian.Uint32(header[8:12])
		compression := Compression(header[12])

		if storedSize == 0 || storedSize > maxFrameSize || uncompressedSize > maxFrameSize {
			return nil // corrupt length, stop at the torn tail
		}

		stored := make([]byte, storedSize)
		if _, err := io.ReadFull(reader, stored); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("failed to read frame payload: %w", err)
		}

		if crc32.Checksum(stored, crc32cTable) != checksum {
			return nil // torn or corrupt frame
		}

		payload, err := decompressPayload(stored, compression, uncompressedSize)
		if err != nil {
			return nil
		}

		report, err := decodeReport(payload)
		if err != nil {
			return nil
		}

		if err := fn(report); err != nil {
			return err
		}
	}
}
