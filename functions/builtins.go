package functions

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"

	"github.com/cube2222/rtsql/rtsql"
)

var numericTypes = []*rtsql.Type{rtsql.Int, rtsql.BigInt, rtsql.Float, rtsql.Double}

var comparableTypes = []*rtsql.Type{rtsql.Boolean, rtsql.Int, rtsql.BigInt, rtsql.Float, rtsql.Double, rtsql.String}

var primitiveTypes = []*rtsql.Type{
	rtsql.Boolean, rtsql.Int, rtsql.BigInt, rtsql.Float, rtsql.Double,
	rtsql.String, rtsql.Timestamp, rtsql.Timespan,
}

// NewBuiltinRegistry returns a registry with all builtin functions registered.
func NewBuiltinRegistry() (*Registry, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	builtins, err := Builtins()
	if err != nil {
		return nil, err
	}
	for name, overloads := range builtins {
		for _, fn := range overloads {
			if err := registry.Register(name, fn); err != nil {
				return nil, errors.Wrapf(err, "couldn't register builtin %s", name)
			}
		}
	}
	return registry, nil
}

func Builtins() (map[string][]*Function, error) {
	likeFn, err := like()
	if err != nil {
		return nil, err
	}

	out := map[string][]*Function{
		"+":      numericOverloads("Adds the arguments.", addValues),
		"-":      append(numericOverloads("Subtracts the second argument from the first.", subtractValues), negations()...),
		"*":      numericOverloads("Multiplies the arguments.", multiplyValues),
		"/":      numericOverloads("Divides the first argument by the second.", divideValues),
		"%":      moduloOverloads(),
		"=":      comparisonOverloads(primitiveTypes, func(c int) bool { return c == 0 }),
		"!=":     comparisonOverloads(primitiveTypes, func(c int) bool { return c != 0 }),
		"<":      comparisonOverloads(comparableTypes, func(c int) bool { return c < 0 }),
		"<=":     comparisonOverloads(comparableTypes, func(c int) bool { return c <= 0 }),
		">":      comparisonOverloads(comparableTypes, func(c int) bool { return c > 0 }),
		">=":     comparisonOverloads(comparableTypes, func(c int) bool { return c >= 0 }),
		"not":    {NewFunction(rtsql.Boolean, []*rtsql.Type{rtsql.Boolean}, not, WithNullPropagation(), WithDescription("Negates the argument."))},
		"concat": {NewFunction(rtsql.String, []*rtsql.Type{rtsql.String, rtsql.String}, concat, WithNullPropagation(), WithDescription("Concatenates the arguments."))},
		"length": {NewFunction(rtsql.Int, []*rtsql.Type{rtsql.String}, length, WithNullPropagation(), WithDescription("Returns the number of characters in the argument."))},
		"upper":  {NewFunction(rtsql.String, []*rtsql.Type{rtsql.String}, upper, WithNullPropagation(), WithDescription("Returns the argument in upper case."))},
		"lower":  {NewFunction(rtsql.String, []*rtsql.Type{rtsql.String}, lower, WithNullPropagation(), WithDescription("Returns the argument in lower case."))},
		"like":   {likeFn},
		"abs":    absOverloads(),
		"ifnull": ifNullOverloads(),
	}
	return out, nil
}

func numericOverloads(description string, op func(t *rtsql.Type, a, b rtsql.Value) (rtsql.Value, error)) []*Function {
	out := make([]*Function, len(numericTypes))
	for i, t := range numericTypes {
		t := t
		out[i] = NewFunction(t, []*rtsql.Type{t, t}, func(args []rtsql.Value) (rtsql.Value, error) {
			return op(t, args[0], args[1])
		}, WithNullPropagation(), WithDescription(description))
	}
	return out
}

func makeNumeric(t *rtsql.Type, i int64, f float64) (rtsql.Value, error) {
	switch t.TypeID {
	case rtsql.TypeIDInt:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return rtsql.Value{}, rtsql.NewEvaluationError(rtsql.EvaluationErrorComputation, "INT overflow")
		}
		return rtsql.NewInt(int32(i)), nil
	case rtsql.TypeIDBigInt:
		return rtsql.NewBigInt(i), nil
	case rtsql.TypeIDFloat:
		return rtsql.NewFloat(float32(f)), nil
	case rtsql.TypeIDDouble:
		return rtsql.NewDouble(f), nil
	}
	panic("unexhaustive numeric type match")
}

func isInteger(t *rtsql.Type) bool {
	return t.TypeID == rtsql.TypeIDInt || t.TypeID == rtsql.TypeIDBigInt
}

func addValues(t *rtsql.Type, a, b rtsql.Value) (rtsql.Value, error) {
	if isInteger(t) {
		sum := a.Int + b.Int
		if (b.Int > 0 && sum < a.Int) || (b.Int < 0 && sum > a.Int) {
			return rtsql.Value{}, rtsql.NewEvaluationError(rtsql.EvaluationErrorComputation, "%s overflow", t)
		}
		return makeNumeric(t, sum, 0)
	}
	return makeNumeric(t, 0, a.Float+b.Float)
}

func subtractValues(t *rtsql.Type, a, b rtsql.Value) (rtsql.Value, error) {
	if isInteger(t) {
		difference := a.Int - b.Int
		if (b.Int < 0 && difference < a.Int) || (b.Int > 0 && difference > a.Int) {
			return rtsql.Value{}, rtsql.NewEvaluationError(rtsql.EvaluationErrorComputation, "%s overflow", t)
		}
		return makeNumeric(t, difference, 0)
	}
	return makeNumeric(t, 0, a.Float-b.Float)
}

func multiplyValues(t *rtsql.Type, a, b rtsql.Value) (rtsql.Value, error) {
	if isInteger(t) {
		product := a.Int * b.Int
		if a.Int != 0 && (product/a.Int != b.Int || (a.Int == -1 && b.Int == math.MinInt64)) {
			return rtsql.Value{}, rtsql.NewEvaluationError(rtsql.EvaluationErrorComputation, "%s overflow", t)
		}
		return makeNumeric(t, product, 0)
	}
	return makeNumeric(t, 0, a.Float*b.Float)
}

func divideValues(t *rtsql.Type, a, b rtsql.Value) (rtsql.Value, error) {
	if isInteger(t) {
		if b.Int == 0 {
			return rtsql.Value{}, rtsql.NewEvaluationError(rtsql.EvaluationErrorComputation, "division by zero")
		}
		if a.Int == math.MinInt64 && b.Int == -1 {
			return rtsql.Value{}, rtsql.NewEvaluationError(rtsql.EvaluationErrorComputation, "%s overflow", t)
		}
		return makeNumeric(t, a.Int/b.Int, 0)
	}
	if b.Float == 0 {
		return rtsql.Value{}, rtsql.NewEvaluationError(rtsql.EvaluationErrorComputation, "division by zero")
	}
	return makeNumeric(t, 0, a.Float/b.Float)
}

func moduloOverloads() []*Function {
	var out []*Function
	for _, t := range []*rtsql.Type{rtsql.Int, rtsql.BigInt} {
		t := t
		out = append(out, NewFunction(t, []*rtsql.Type{t, t}, func(args []rtsql.Value) (rtsql.Value, error) {
			if args[1].Int == 0 {
				return rtsql.Value{}, rtsql.NewEvaluationError(rtsql.EvaluationErrorComputation, "division by zero")
			}
			if args[1].Int == -1 {
				return makeNumeric(t, 0, 0)
			}
			return makeNumeric(t, args[0].Int%args[1].Int, 0)
		}, WithNullPropagation(), WithDescription("Returns the remainder of dividing the first argument by the second.")))
	}
	return out
}

func negations() []*Function {
	out := make([]*Function, len(numericTypes))
	for i, t := range numericTypes {
		t := t
		out[i] = NewFunction(t, []*rtsql.Type{t}, func(args []rtsql.Value) (rtsql.Value, error) {
			return subtractValues(t, rtsql.Value{TypeID: t.TypeID}, args[0])
		}, WithNullPropagation(), WithDescription("Negates the argument."))
	}
	return out
}

func absOverloads() []*Function {
	out := make([]*Function, len(numericTypes))
	for i, t := range numericTypes {
		t := t
		out[i] = NewFunction(t, []*rtsql.Type{t}, func(args []rtsql.Value) (rtsql.Value, error) {
			if isInteger(t) {
				if args[0].Int >= 0 {
					return args[0], nil
				}
				return subtractValues(t, rtsql.Value{TypeID: t.TypeID}, args[0])
			}
			return makeNumeric(t, 0, math.Abs(args[0].Float))
		}, WithNullPropagation(), WithDescription("Returns the absolute value of the argument."))
	}
	return out
}

func comparisonOverloads(types []*rtsql.Type, predicate func(comparison int) bool) []*Function {
	out := make([]*Function, len(types))
	for i, t := range types {
		out[i] = NewFunction(rtsql.Boolean, []*rtsql.Type{t, t}, func(args []rtsql.Value) (rtsql.Value, error) {
			return rtsql.NewBoolean(predicate(args[0].Compare(args[1]))), nil
		}, WithNullPropagation(), WithDescription("Compares the arguments."))
	}
	return out
}

func ifNullOverloads() []*Function {
	out := make([]*Function, len(primitiveTypes))
	for i, t := range primitiveTypes {
		out[i] = NewFunction(t, []*rtsql.Type{rtsql.Nullable(t.TypeID), t}, func(args []rtsql.Value) (rtsql.Value, error) {
			if args[0].IsNull() {
				return args[1], nil
			}
			return args[0], nil
		}, WithDescription("Returns the first argument if it isn't null, the second one otherwise."))
	}
	return out
}

func not(args []rtsql.Value) (rtsql.Value, error) {
	return rtsql.NewBoolean(!args[0].Boolean), nil
}

func concat(args []rtsql.Value) (rtsql.Value, error) {
	return rtsql.NewString(args[0].Str + args[1].Str), nil
}

func length(args []rtsql.Value) (rtsql.Value, error) {
	count := utf8.RuneCountInString(args[0].Str)
	if count > math.MaxInt32 {
		return rtsql.Value{}, rtsql.NewEvaluationError(rtsql.EvaluationErrorComputation, "string too long")
	}
	return rtsql.NewInt(int32(count)), nil
}

func upper(args []rtsql.Value) (rtsql.Value, error) {
	return rtsql.NewString(strings.ToUpper(args[0].Str)), nil
}

func lower(args []rtsql.Value) (rtsql.Value, error) {
	return rtsql.NewString(strings.ToLower(args[0].Str)), nil
}

func like() (*Function, error) {
	regexpCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 128,
		MaxCost:     1 << 26,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "couldn't initialize regexp cache")
	}

	return NewFunction(rtsql.Boolean, []*rtsql.Type{rtsql.String, rtsql.String}, func(args []rtsql.Value) (rtsql.Value, error) {
		pattern := args[1].Str
		var re *regexp.Regexp
		if cached, ok := regexpCache.Get(pattern); ok {
			re = cached.(*regexp.Regexp)
		} else {
			compiled, err := likePatternToRegexp(pattern)
			if err != nil {
				return rtsql.Value{}, rtsql.NewEvaluationError(rtsql.EvaluationErrorComputation, "invalid like pattern '%s': %s", pattern, err)
			}
			regexpCache.Set(pattern, compiled, int64(len(pattern)))
			re = compiled
		}
		return rtsql.NewBoolean(re.MatchString(args[0].Str)), nil
	},
		WithNullPropagation(),
		WithDescription("Returns whether the first argument matches the pattern in the second one. '_' matches a single character, '%' any number of characters, '\\' escapes."),
	), nil
}

func likePatternToRegexp(pattern string) (*regexp.Regexp, error) {
	const likeEscape = '\\'
	const likeAny = '_'
	const likeAll = '%'

	var sb strings.Builder
	sb.WriteString("(?s)^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			sb.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == likeEscape:
			escaped = true
		case r == likeAny:
			sb.WriteString(".")
		case r == likeAll:
			sb.WriteString(".*")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		return nil, errors.New("pattern ends with an escape character")
	}
	sb.WriteString("$")

	return regexp.Compile(sb.String())
}
