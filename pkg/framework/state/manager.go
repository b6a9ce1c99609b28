// Package state saves and restores parameter values as a binary chunk.
package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mobius-looper/mobius-sub008/pkg/framework/param"
)

const magic = "MOBIUS"

// maxCustomSize bounds the custom section accepted by Load.
const maxCustomSize = 16 << 20

// ErrInvalidFormat is returned when a chunk does not start with the
// expected header.
var ErrInvalidFormat = errors.New("invalid state format")

// Manager handles plugin state saving and loading
type Manager struct {
	version uint32
	table   *param.Table
	save    CustomStateFunc
	load    CustomLoadFunc
}

// CustomStateFunc allows engines to save additional state beyond parameters
type CustomStateFunc func(w io.Writer) error

// CustomLoadFunc reads back what a CustomStateFunc wrote
type CustomLoadFunc func(r io.Reader) error

// NewManager creates a new state manager
func NewManager(table *param.Table) *Manager {
	return &Manager{
		version: 1,
		table:   table,
	}
}

// SetCustomState sets the functions for saving and loading custom state
func (m *Manager) SetCustomState(save CustomStateFunc, load CustomLoadFunc) {
	m.save = save
	m.load = load
}

// Save writes the plugin state to a writer
func (m *Manager) Save(w io.Writer) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.version); err != nil {
		return err
	}

	params := m.table.All()
	if err := binary.Write(w, binary.LittleEndian, int32(len(params))); err != nil {
		return err
	}
	for _, p := range params {
		if err := binary.Write(w, binary.LittleEndian, [2]int32{int32(p.ID), int32(p.Value())}); err != nil {
			return err
		}
	}

	if m.save == nil {
		return binary.Write(w, binary.LittleEndian, uint32(0))
	}

	// length prefixed so readers without a loader can skip it
	var custom bytes.Buffer
	if err := m.save(&custom); err != nil {
		return fmt.Errorf("save custom state: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(custom.Len())); err != nil {
		return err
	}
	_, err := w.Write(custom.Bytes())
	return err
}

// Load reads the plugin state from a reader. Parameter values are staged
// on their parameters; unknown parameter ids are ignored.
func (m *Manager) Load(r io.Reader) error {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	if string(header) != magic {
		return ErrInvalidFormat
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version > m.version {
		return fmt.Errorf("state version %d is newer than supported version %d", version, m.version)
	}

	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("%w: negative parameter count", ErrInvalidFormat)
	}

	for i := int32(0); i < count; i++ {
		var entry [2]int32
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return err
		}
		if p := m.table.Get(int(entry[0])); p != nil {
			p.Stage(int(entry[1]))
		}
	}

	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	if size > maxCustomSize {
		return fmt.Errorf("%w: custom state of %d bytes", ErrInvalidFormat, size)
	}

	custom := io.LimitReader(r, int64(size))
	if m.load == nil {
		_, err := io.Copy(io.Discard, custom)
		return err
	}
	if err := m.load(custom); err != nil {
		return fmt.Errorf("load custom state: %w", err)
	}
	return nil
}
