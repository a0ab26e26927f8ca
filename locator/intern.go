package locator

import "github.com/puzpuzpuz/xsync/v3"

// interner shares one copy of repeated strings (street, city and region names
// repeat across most points) between concurrent parsers.
type interner struct {
	m *xsync.MapOf[string, string]
}

func newInterner() *interner {
	return &interner{m: xsync.NewMapOf[string, string]()}
}

// intern is a no-op on a nil interner.
func (in *interner) intern(s string) string {
	if in == nil || s == "" {
		return s
	}
	v, _ := in.m.LoadOrStore(s, s)
	return v
}

func (in *interner) size() int {
	if in == nil {
		return 0
	}
	return in.m.Size()
}
