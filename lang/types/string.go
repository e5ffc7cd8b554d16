package types

import "github.com/mna/fen/lang/strtable"

// String is fen's heap-allocated string value. Its Key carries the FNV-1a
// hash and the raw characters; once a String has been produced by an
// Interner, pointer equality on the String (or its Key) is content equality.
type String struct {
	Key strtable.Key
}

func (s *String) String() string { return s.Key.Chars }
func (*String) Type() string     { return "string" }
func (*String) object()          {}

// Chars returns the string's raw character data.
func (s *String) Chars() string { return s.Key.Chars }

// Hash returns the string's FNV-1a hash, shared with its Key.
func (s *String) Hash() uint32 { return s.Key.Hash }

// fnv1aHash implements the 32-bit FNV-1a hash fen uses for strings, as
// named in spec.md §3.
func fnv1aHash(chars string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(chars); i++ {
		h ^= uint32(chars[i])
		h *= 16777619
	}
	return h
}

// Interner deduplicates String values by content, so that two fen source
// occurrences of the same characters produce the same *String and can be
// compared by pointer. It is shared between the compiler (string literals,
// global variable names) and the machine (strings produced at run time by
// concatenation), which is why it lives alongside the value model rather
// than inside either package.
type Interner struct {
	table strtable.Table[*String]
}

// Intern returns the canonical *String for chars, allocating one if this is
// the first time these characters have been seen.
func (in *Interner) Intern(chars string) *String {
	hash := fnv1aHash(chars)
	if key := in.table.FindKey(chars, hash); key != nil {
		s, _ := in.table.Get(key)
		return s
	}
	s := &String{Key: strtable.Key{Chars: chars, Hash: hash}}
	in.table.Set(&s.Key, s)
	return s
}
