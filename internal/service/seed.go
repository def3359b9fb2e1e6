package service

// DefaultSeedRecipes is loaded at startup when no seed list is configured.
var DefaultSeedRecipes = []RecipeInput{
	{
		Name:        "boiled white rice",
		Ingredients: []string{"1 cup white rice", "2 cups water", "pinch of salt"},
	},
	{
		Name:        "milkshake",
		Ingredients: []string{"2 tbsp cocoa", "2 cups vanilla ice cream", "1 cup milk"},
	},
}
