package furnace

// RecipeLookup maps an input stack to the result template it converts into.
// Implementations must be pure and cheap; it is called on every tick.
type RecipeLookup interface {
	Lookup(input ItemStack) (ItemStack, bool)
}

type RecipeFunc func(input ItemStack) (ItemStack, bool)

func (f RecipeFunc) Lookup(input ItemStack) (ItemStack, bool) {
	return f(input)
}

// RecipeTable maps an input kind to its result.
type RecipeTable map[ItemKind]ItemStack

func (t RecipeTable) Lookup(input ItemStack) (ItemStack, bool) {
	if input.IsEmpty() {
		return Empty, false
	}
	result, ok := t[input.Kind]
	if !ok || result.IsEmpty() {
		return Empty, false
	}
	return result, true
}

func DefaultRecipes() RecipeTable {
	return RecipeTable{
		"iron_ore":    NewStack("iron_ingot", 1),
		"gold_ore":    NewStack("gold_ingot", 1),
		"copper_ore":  NewStack("copper_ingot", 1),
		"tin_ore":     NewStack("tin_ingot", 1),
		"sand":        NewStack("glass", 1),
		"cobblestone": NewStack("stone", 1),
		"clay_ball":   NewStack("brick", 1),
		"log":         NewStack("charcoal", 1),
		"raw_beef":    NewStack("cooked_beef", 1),
		"raw_fish":    NewStack("cooked_fish", 1),
	}
}
