package fileutil

import (
	"bytes"
	"io"
	"os"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// CompareChunkSize is the read size used by SameContent.
const CompareChunkSize = 8192

// SameContent reports whether two files hold identical bytes.
// Sizes are compared first; equal sizes are compared chunk by chunk.
func SameContent(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, errors.Wrap(err, "stat first file")
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, errors.Wrap(err, "stat second file")
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	fa, err := os.Open(a)
	if err != nil {
		return false, errors.Wrap(err, "opening first file")
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return false, errors.Wrap(err, "opening second file")
	}
	defer fb.Close()

	return SameReaderContent(fa, fb)
}

// SameReaderContent compares two streams chunk by chunk until both reach EOF.
func SameReaderContent(ra, rb io.Reader) (bool, error) {
	bufA := make([]byte, CompareChunkSize)
	bufB := make([]byte, CompareChunkSize)

	for {
		na, errA := io.ReadFull(ra, bufA)
		nb, errB := io.ReadFull(rb, bufB)

		if errA != nil && !isEOF(errA) {
			return false, errors.Wrap(errA, "reading first stream")
		}
		if errB != nil && !isEOF(errB) {
			return false, errors.Wrap(errB, "reading second stream")
		}

		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}

		doneA, doneB := isEOF(errA), isEOF(errB)
		if doneA && doneB {
			return true, nil
		}
		if doneA != doneB {
			return false, nil
		}
	}
}

func isEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
