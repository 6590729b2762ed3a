package db

import "bytes"

var (
	NamespaceLedgerRecord = []byte("lr")
	NamespaceLedgerMeta   = []byte("lm")
	EmptyKey              = []byte{}
	Separator             = []byte("|")
)

func PrependNamespace(namespace []byte, key []byte) []byte {
	if namespace != nil {
		prefixed := make([]byte, 0, len(namespace)+len(Separator)+len(key))
		prefixed = append(append(prefixed, namespace...), Separator...)
		return append(prefixed, key...)
	}
	return key
}

// StripNamespace is the inverse of PrependNamespace.
func StripNamespace(namespace []byte, key []byte) []byte {
	if namespace == nil {
		return key
	}
	prefix := PrependNamespace(namespace, nil)
	if !bytes.HasPrefix(key, prefix) {
		return key
	}
	return key[len(prefix):]
}

// NamespaceEnd returns the first key after every key of the namespace.
func NamespaceEnd(namespace []byte) []byte {
	prefix := PrependNamespace(namespace, nil)
	end := append([]byte(nil), prefix...)
	end[len(end)-1]++
	return end
}

func ConvNilToBytes(byteArray []byte) []byte {
	if byteArray == nil {
		return []byte{}
	}
	return byteArray
}
