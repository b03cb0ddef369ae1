package functions

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"github.com/tidwall/btree"

	"github.com/cube2222/rtsql/rtsql"
)

// Binding is the result of resolving a function call against the registered overloads.
type Binding struct {
	Name     string
	Function ScalarFunc
	// ReturnType is the type of the call. It's the nullable version of the function's
	// return type if nulls are propagated.
	ReturnType *rtsql.Type
	// PropagatesNulls is set when nullable arguments were bound to non-nullable parameters
	// of a strict function. A null argument then yields a null result.
	PropagatesNulls bool
}

// Registry holds named, overloaded scalar functions. It's safe for concurrent use.
type Registry struct {
	mutex      deadlock.RWMutex
	overloads  map[string][]ScalarFunc
	names      *btree.Generic[string]
	generation int
	bindCache  *ristretto.Cache
}

func NewRegistry() (*Registry, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 14,
		MaxCost:     1 << 12,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "couldn't initialize bind cache")
	}

	return &Registry{
		overloads: make(map[string][]ScalarFunc),
		names: btree.NewGenericOptions(func(a, b string) bool {
			return a < b
		}, btree.Options{NoLocks: true}),
		bindCache: cache,
	}, nil
}

// Register adds an overload. Overloads with identical argument types are rejected.
func (registry *Registry) Register(name string, fn ScalarFunc) error {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	argumentTypes := fn.ArgumentTypes()
	for _, existing := range registry.overloads[name] {
		if sameTypes(existing.ArgumentTypes(), argumentTypes) {
			return errors.Errorf("function %s%s is already registered", name, typeList(argumentTypes))
		}
	}
	registry.overloads[name] = append(registry.overloads[name], fn)
	registry.names.Set(name)
	registry.generation++
	return nil
}

func (registry *Registry) Overloads(name string) []ScalarFunc {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()

	return append([]ScalarFunc{}, registry.overloads[name]...)
}

// Names returns the names of all registered functions in ascending order.
func (registry *Registry) Names() []string {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()

	out := make([]string, 0, registry.names.Len())
	registry.names.Scan(func(name string) bool {
		out = append(out, name)
		return true
	})
	return out
}

// Bind picks the overload of name to call with arguments of the given static types.
//
// An overload matches if every argument type promotes to the respective parameter type.
// Among matching overloads the one with the fewest promoted arguments wins, ties are broken by
// registration order. If nothing matches, strict overloads are retried with nullable argument
// types unwrapped, and the call becomes null propagating.
func (registry *Registry) Bind(name string, argumentTypes []*rtsql.Type) (Binding, error) {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()

	cacheKey := fmt.Sprintf("%d:%s%s", registry.generation, name, typeList(argumentTypes))
	if cached, ok := registry.bindCache.Get(cacheKey); ok {
		return cached.(Binding), nil
	}

	overloads, ok := registry.overloads[name]
	if !ok {
		return Binding{}, rtsql.NewTypeError("unknown function %s", name)
	}

	if fn, ok := bestOverload(overloads, argumentTypes, false); ok {
		binding := Binding{
			Name:       name,
			Function:   fn,
			ReturnType: fn.ReturnType(),
		}
		registry.bindCache.Set(cacheKey, binding, 1)
		return binding, nil
	}

	hasNullable := false
	unwrapped := make([]*rtsql.Type, len(argumentTypes))
	for i, argType := range argumentTypes {
		if argType.IsNullable() {
			hasNullable = true
		}
		unwrapped[i] = argType.NonNullable()
	}
	if hasNullable {
		if fn, ok := bestOverload(overloads, unwrapped, true); ok {
			if returnType, ok := fn.ReturnType().AsNullable(); ok {
				binding := Binding{
					Name:            name,
					Function:        fn,
					ReturnType:      returnType,
					PropagatesNulls: true,
				}
				registry.bindCache.Set(cacheKey, binding, 1)
				return binding, nil
			}
		}
	}

	return Binding{}, rtsql.NewTypeError("no overload of function %s accepts arguments %s", name, typeList(argumentTypes))
}

// bestOverload finds the matching overload with the fewest promoted arguments.
// A nil argument type stands for an always-null argument and is only accepted if strictOnly is set.
func bestOverload(overloads []ScalarFunc, argumentTypes []*rtsql.Type, strictOnly bool) (ScalarFunc, bool) {
	var best ScalarFunc
	bestCost := -1

overloadLoop:
	for _, fn := range overloads {
		if strictOnly && !fn.Strict() {
			continue
		}
		parameterTypes := fn.ArgumentTypes()
		if len(parameterTypes) != len(argumentTypes) {
			continue
		}

		cost := 0
		for i := range argumentTypes {
			switch {
			case argumentTypes[i] == nil:
				cost++
			case argumentTypes[i].Equals(parameterTypes[i]):
			case argumentTypes[i].PromotesTo(parameterTypes[i]):
				cost++
			default:
				continue overloadLoop
			}
		}
		if bestCost == -1 || cost < bestCost {
			best = fn
			bestCost = cost
		}
	}

	return best, best != nil
}

func sameTypes(a, b []*rtsql.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

func typeList(types []*rtsql.Type) string {
	parts := make([]string, len(types))
	for i := range types {
		parts[i] = types[i].String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
