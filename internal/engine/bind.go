package engine

import "github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"

// slotIndex converts the host's 1-based bind index into a Params slot
// index, validating it against both the translated parameter count and
// MaxParams.
func (s *Statement) slotIndex(idx int) (int, error) {
	if idx < 1 || idx > s.ParamCount || idx > MaxParams {
		return 0, shimerr.New(shimerr.BadInput, "bind index out of range")
	}
	return idx - 1, nil
}

// BindInt64 binds an integer value at the given 1-based index.
func (s *Statement) BindInt64(idx int, v int64) error {
	i, err := s.slotIndex(idx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Params[i] = ParamSlot{Kind: ParamInt64, Int64: v}
	return nil
}

// BindDouble binds a floating-point value at the given 1-based index.
func (s *Statement) BindDouble(idx int, v float64) error {
	i, err := s.slotIndex(idx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Params[i] = ParamSlot{Kind: ParamDouble, Double: v}
	return nil
}

// BindText binds a text value, copying it into an owned buffer.
func (s *Statement) BindText(idx int, v string) error {
	i, err := s.slotIndex(idx)
	if err != nil {
		return err
	}
	buf := make([]byte, len(v))
	copy(buf, v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Params[i] = ParamSlot{Kind: ParamText, Buf: buf}
	return nil
}

// BindBlob binds a blob value, copying it into an owned buffer with
// explicit length.
func (s *Statement) BindBlob(idx int, v []byte) error {
	i, err := s.slotIndex(idx)
	if err != nil {
		return err
	}
	buf := make([]byte, len(v))
	copy(buf, v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Params[i] = ParamSlot{Kind: ParamBlob, Buf: buf}
	return nil
}

// BindNull clears the slot to NULL.
func (s *Statement) BindNull(idx int) error {
	i, err := s.slotIndex(idx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Params[i] = ParamSlot{}
	return nil
}
