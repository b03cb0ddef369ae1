package rtsql

import (
	"github.com/sasha-s/go-deadlock"
	"github.com/spaolacci/murmur3"
)

// Interner hands out a single canonical instance per distinct record or function type.
// Primitive and nullable types are always mapped to their table instances.
type Interner struct {
	mutex   deadlock.RWMutex
	buckets map[uint64][]*Type
}

func NewInterner() *Interner {
	return &Interner{
		buckets: make(map[uint64][]*Type),
	}
}

func (interner *Interner) Intern(t *Type) *Type {
	switch t.TypeID {
	case TypeIDBoolean, TypeIDInt, TypeIDBigInt, TypeIDFloat, TypeIDDouble,
		TypeIDString, TypeIDTimestamp, TypeIDTimespan:
		return Primitive(t.TypeID)
	case TypeIDNullable:
		return Nullable(t.Nullable.Inner)
	case TypeIDRecord, TypeIDFunction:
	default:
		panic("unexhaustive type match")
	}

	hash := murmur3.Sum64([]byte(t.String()))

	interner.mutex.RLock()
	canonical := findEqual(interner.buckets[hash], t)
	interner.mutex.RUnlock()
	if canonical != nil {
		return canonical
	}

	interner.mutex.Lock()
	defer interner.mutex.Unlock()
	if canonical := findEqual(interner.buckets[hash], t); canonical != nil {
		return canonical
	}
	interned := interner.internComponents(t)
	interner.buckets[hash] = append(interner.buckets[hash], interned)
	return interned
}

// internComponents rebuilds t with canonical nested types. The write lock must be held.
func (interner *Interner) internComponents(t *Type) *Type {
	out := &Type{TypeID: t.TypeID}
	switch t.TypeID {
	case TypeIDRecord:
		out.Record.Fields = make([]RecordField, len(t.Record.Fields))
		for i, field := range t.Record.Fields {
			out.Record.Fields[i] = RecordField{
				Name: field.Name,
				Type: interner.internLocked(field.Type),
			}
		}
	case TypeIDFunction:
		out.Function.ReturnType = interner.internLocked(t.Function.ReturnType)
		out.Function.ArgumentTypes = make([]*Type, len(t.Function.ArgumentTypes))
		for i, arg := range t.Function.ArgumentTypes {
			out.Function.ArgumentTypes[i] = interner.internLocked(arg)
		}
	}
	return out
}

func (interner *Interner) internLocked(t *Type) *Type {
	switch t.TypeID {
	case TypeIDRecord, TypeIDFunction:
	case TypeIDNullable:
		return Nullable(t.Nullable.Inner)
	default:
		return Primitive(t.TypeID)
	}

	hash := murmur3.Sum64([]byte(t.String()))
	if canonical := findEqual(interner.buckets[hash], t); canonical != nil {
		return canonical
	}
	interned := interner.internComponents(t)
	interner.buckets[hash] = append(interner.buckets[hash], interned)
	return interned
}

func (interner *Interner) Len() int {
	interner.mutex.RLock()
	defer interner.mutex.RUnlock()

	count := 0
	for _, bucket := range interner.buckets {
		count += len(bucket)
	}
	return count
}

func findEqual(bucket []*Type, t *Type) *Type {
	for _, candidate := range bucket {
		if candidate.Equals(t) {
			return candidate
		}
	}
	return nil
}
