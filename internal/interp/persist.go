package interp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"tgl/internal/bytestr"
)

// persistentRegisterSize is the on-disk size, in bytes, of one
// persistentRegister header: an 8-byte access time followed by a 4-byte
// length.
const persistentRegisterSize = 12

// registerPersistenceMagic is the 8-byte header every persistence file
// starts with: "TglV" followed by the header struct size and three pad
// bytes. The size byte lets a future format change refuse to load an
// incompatible file instead of misreading it.
var registerPersistenceMagic = [8]byte{'T', 'g', 'l', 'V', persistentRegisterSize, 0, 0, 0}

var errIncompatiblePersistence = errors.New("register persistence file is incompatible")

func writePersistentRegisterHeader(w io.Writer, accessTime int64, length uint32) error {
	var buf [persistentRegisterSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(accessTime))
	binary.LittleEndian.PutUint32(buf[8:12], length)
	_, err := w.Write(buf[:])
	return err
}

func readPersistentRegisterHeader(r io.Reader) (accessTime int64, length uint32, err error) {
	var buf [persistentRegisterSize]byte
	if _, err = io.ReadFull(r, buf[:]); err != nil {
		return 0, 0, err
	}
	accessTime = int64(binary.LittleEndian.Uint64(buf[0:8]))
	length = binary.LittleEndian.Uint32(buf[8:12])
	return accessTime, length, nil
}

// LoadRegisters reads the register file format: an 8-byte magic, a probe
// header asserting {access_time: 1, length: 2} so a layout change can't be
// silently misread, then 256 (header, payload) pairs in register order. A
// missing file is not an error; anything else wrong with the file is.
func (it *Interp) LoadRegisters(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading register persistence file: %w", err)
	}
	defer f.Close()

	var magic [8]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return fmt.Errorf("reading register persistence file: %w", err)
	}
	if magic != registerPersistenceMagic {
		return fmt.Errorf("%w: %s", errIncompatiblePersistence, filename)
	}

	probeTime, probeLen, err := readPersistentRegisterHeader(f)
	if err != nil {
		return fmt.Errorf("reading register persistence file: %w", err)
	}
	if probeTime != 1 || probeLen != 2 {
		return fmt.Errorf("%w: %s", errIncompatiblePersistence, filename)
	}

	for i := 0; i < numRegisters; i++ {
		accessTime, length, err := readPersistentRegisterHeader(f)
		if err != nil {
			return fmt.Errorf("reading register persistence file: %w", err)
		}
		data := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(f, data); err != nil {
				return fmt.Errorf("reading register persistence file: %w", err)
			}
		}
		it.registers[i] = bytestr.FromBytes(data)
		it.regTime[i] = accessTime
	}
	return nil
}

// SaveRegisters writes the register file in the same format LoadRegisters
// reads.
func (it *Interp) SaveRegisters(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("writing register persistence file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(registerPersistenceMagic[:]); err != nil {
		return fmt.Errorf("writing register persistence file: %w", err)
	}
	if err := writePersistentRegisterHeader(f, 1, 2); err != nil {
		return fmt.Errorf("writing register persistence file: %w", err)
	}
	for i := 0; i < numRegisters; i++ {
		b := it.registers[i].Bytes()
		if err := writePersistentRegisterHeader(f, it.regTime[i], uint32(len(b))); err != nil {
			return fmt.Errorf("writing register persistence file: %w", err)
		}
		if len(b) > 0 {
			if _, err := f.Write(b); err != nil {
				return fmt.Errorf("writing register persistence file: %w", err)
			}
		}
	}
	return nil
}
