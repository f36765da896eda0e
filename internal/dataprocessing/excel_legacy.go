package dataprocessing

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/extrame/xls"
)

// oleMagic opens every compound document, which is the container of
// Excel 97-2003 workbooks.
var oleMagic = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

const (
	oleSectorSize   = 512
	oleEndOfChain   = 0xfffffffe
	oleDirEntrySize = 128
	oleMaxMSAT      = 109
)

var errCorruptCompound = errors.New("corrupt compound document")

func isLegacyWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, oleMagic)
}

// loadLegacyGrid reads the first sheet of a BIFF workbook. Numbers arrive
// as text and date cells as RFC 3339 timestamps, both of which the field
// coercions accept.
func loadLegacyGrid(data []byte) (g grid, err error) {
	if err := checkCompoundFile(data); err != nil {
		return nil, fmt.Errorf("failed to open legacy workbook: %w", err)
	}
	// the BIFF record parser slices without bounds checks
	defer func() {
		if r := recover(); r != nil {
			g, err = nil, fmt.Errorf("failed to open legacy workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy workbook: %w", err)
	}
	if wb == nil {
		return nil, errors.New("compound document has no Workbook stream")
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil || sheet.MaxRow == 0 {
		return grid{}, nil
	}
	// ReadAllCells walks sheets in order and stops after max rows, so this
	// limit keeps it on the first sheet.
	return grid(wb.ReadAllCells(int(sheet.MaxRow) + 1)), nil
}

// checkCompoundFile verifies that every allocation chain the BIFF reader
// will follow stays inside its table and terminates. The reader's stream
// code ends the process on an out-of-range sector instead of failing, so
// the tables are rebuilt here the way it builds them and walked first.
func checkCompoundFile(data []byte) error {
	if len(data) < oleSectorSize {
		return errCorruptCompound
	}
	le := binary.LittleEndian
	if le.Uint16(data[28:]) != 0xfffe || le.Uint16(data[30:]) != 9 {
		return fmt.Errorf("%w: only 512-byte sectors are supported", errCorruptCompound)
	}
	maxSectors := uint32(len(data)/oleSectorSize) + 1

	// sector mirrors the reader: positions wrap at 32 bits and reads past
	// the end yield zeroes.
	sector := func(sid, size uint32) []byte {
		buf := make([]byte, size)
		if pos := uint64(uint32(oleSectorSize) + sid*size); pos < uint64(len(data)) {
			copy(buf, data[pos:])
		}
		return buf
	}
	words := func(b []byte, n int) []uint32 {
		out := make([]uint32, n)
		for i := range out {
			out[i] = le.Uint32(b[4*i:])
		}
		return out
	}

	cfat := le.Uint32(data[44:])
	if cfat > maxSectors {
		return fmt.Errorf("%w: %d allocation sectors", errCorruptCompound, cfat)
	}
	var fat []uint32
	for i := uint32(0); i < cfat && i < oleMaxMSAT; i++ {
		fat = append(fat, words(sector(le.Uint32(data[76+4*i:]), oleSectorSize), oleSectorSize/4)...)
	}
	difSteps := uint32(0)
	for sid := le.Uint32(data[68:]); sid != oleEndOfChain; difSteps++ {
		if difSteps > maxSectors {
			return fmt.Errorf("%w: master allocation chain loops", errCorruptCompound)
		}
		dif := sector(sid, oleSectorSize)
		for _, s := range words(dif, oleSectorSize/4-1) {
			fat = append(fat, words(sector(s, oleSectorSize), oleSectorSize/4)...)
		}
		sid = le.Uint32(dif[oleSectorSize-4:])
	}

	csfat := le.Uint32(data[64:])
	if csfat > maxSectors {
		return fmt.Errorf("%w: %d short allocation sectors", errCorruptCompound, csfat)
	}
	var minifat []uint32
	if sfat := le.Uint32(data[60:]); sfat != oleEndOfChain {
		for i := uint32(0); i < csfat; i++ {
			minifat = append(minifat, words(sector(sfat, oleSectorSize), oleSectorSize/4-1)...)
		}
	}

	dirSectors, err := walkChain(fat, le.Uint32(data[48:]))
	if err != nil {
		return fmt.Errorf("%w: directory: %v", errCorruptCompound, err)
	}
	cutoff := le.Uint32(data[56:])
	for _, sid := range dirSectors {
		dir := sector(sid, oleSectorSize)
		for off := 0; off < oleSectorSize; off += oleDirEntrySize {
			entry := dir[off : off+oleDirEntrySize]
			kind := entry[66]
			if kind == 0 {
				return nil
			}
			if nameLen := le.Uint16(entry[64:]); nameLen < 2 || nameLen > 64 {
				return fmt.Errorf("%w: directory entry name length %d", errCorruptCompound, nameLen)
			}
			start, size := le.Uint32(entry[116:]), le.Uint32(entry[120:])
			if start == oleEndOfChain {
				continue
			}
			table := fat
			if kind == 2 && size < cutoff {
				table = minifat
			}
			if kind == 2 || kind == 5 {
				if _, err := walkChain(table, start); err != nil {
					return fmt.Errorf("%w: stream: %v", errCorruptCompound, err)
				}
			}
		}
	}
	return nil
}

// walkChain follows an allocation chain from start and returns its
// sectors. It fails when a link leaves the table or the chain loops.
func walkChain(table []uint32, start uint32) ([]uint32, error) {
	var chain []uint32
	for sid := start; sid != oleEndOfChain; sid = table[sid] {
		if sid >= uint32(len(table)) {
			return nil, fmt.Errorf("sector %d outside table of %d", sid, len(table))
		}
		if len(chain) >= len(table) {
			return nil, errors.New("chain loops")
		}
		chain = append(chain, sid)
	}
	return chain, nil
}
