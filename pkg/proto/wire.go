package proto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Helpers over the protobuf wire format. Messages in this package are
// hand-rolled: each struct encodes its set fields with explicit field
// numbers and skips unknown fields on decode, matching standard protobuf
// semantics without generated code.

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func consumeVarint(data []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, ErrMalformed
	}
	return v, n, nil
}

func consumeBytes(data []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, ErrMalformed
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, n, nil
}

func skipField(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, data)
	if n < 0 {
		return 0, ErrMalformed
	}
	return n, nil
}

// walk iterates the fields of a wire-encoded message, invoking fn for each.
// fn returns the number of bytes it consumed from the field value area.
func walk(data []byte, fn func(num protowire.Number, typ protowire.Type, value []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return ErrMalformed
		}
		data = data[n:]

		used, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		data = data[used:]
	}
	return nil
}
