package ir

import "fmt"

type Kind int

const (
	NullKind Kind = iota
	NumberKind
	StringKind
	BoolKind
	MappingKind
	SequenceKind
)

func (k Kind) String() string {
	s, ok := map[Kind]string{
		NullKind:     "Null",
		NumberKind:   "Number",
		StringKind:   "String",
		BoolKind:     "Bool",
		MappingKind:  "Mapping",
		SequenceKind: "Sequence",
	}[k]
	if ok {
		return s
	}
	return "<unknown kind>"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(d []byte) error {
	kk, ok := map[string]Kind{
		"Null":     NullKind,
		"Number":   NumberKind,
		"String":   StringKind,
		"Bool":     BoolKind,
		"Mapping":  MappingKind,
		"Sequence": SequenceKind,
	}[string(d)]
	if !ok {
		return fmt.Errorf("unrecognized kind %q", d)
	}
	*k = kk
	return nil
}

func Kinds() []Kind {
	return []Kind{
		NullKind,
		NumberKind,
		StringKind,
		BoolKind,
		MappingKind,
		SequenceKind,
	}
}

func (k Kind) IsScalar() bool {
	switch k {
	case MappingKind, SequenceKind:
		return false
	default:
		return true
	}
}
