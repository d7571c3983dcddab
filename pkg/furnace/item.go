package furnace

type ItemKind string

// ItemStack is a quantity of one item kind. The zero value is the empty stack.
type ItemStack struct {
	Kind   ItemKind `json:"kind,omitempty"`
	Count  int      `json:"count,omitempty"`
	Charge float64  `json:"charge,omitempty"`
}

var Empty = ItemStack{}

func NewStack(kind ItemKind, count int) ItemStack {
	if kind == "" || count <= 0 {
		return Empty
	}
	return ItemStack{Kind: kind, Count: count}
}

func (s ItemStack) IsEmpty() bool {
	return s.Kind == "" || s.Count <= 0
}

func (s ItemStack) SameKind(other ItemStack) bool {
	return !s.IsEmpty() && !other.IsEmpty() && s.Kind == other.Kind
}

// Split returns a stack of up to n items of the same kind and the remainder.
func (s ItemStack) Split(n int) (taken ItemStack, rest ItemStack) {
	if s.IsEmpty() || n <= 0 {
		return Empty, s
	}
	if n >= s.Count {
		return s, Empty
	}
	taken = s
	taken.Count = n
	rest = s
	rest.Count = s.Count - n
	return taken, rest
}

func (s ItemStack) normalized() ItemStack {
	if s.IsEmpty() {
		return Empty
	}
	return s
}
