// Package constants holds the static goods catalog: reference base prices
// for the pricing algorithm and the stock lists each shop sub-type accepts.
package constants

// DefaultBasePrice is used for any item missing from BasePrices.
const DefaultBasePrice = 10.0

// BasePrices is the static reference price per item name.
var BasePrices = map[string]float64{
	// Garden - vegetables
	"Carrot": 5, "Potato": 5, "Tomato": 6, "Cucumber": 6, "Onion": 5,
	"Pepper": 7, "Eggplant": 7, "Watermelon": 10, "Melon": 10,
	// Garden - fruits
	"Apple": 8, "Pear": 8, "Mandarin": 9, "Orange": 9, "Lemon": 8,
	"Strawberry": 12, "Cherry": 15, "Peach": 10, "Olive": 12,

	// Farm - crops
	"Wheat": 5, "Corn": 6, "Barley": 5, "Sunflower": 7, "Cotton": 10,
	"Tobacco": 15, "Cocoa": 20,
	// Farm - animal products
	"Milk": 15, "Egg": 5, "Wool": 20, "Leather": 25,
	// Farm - animals
	"Chicken": 50, "Turkey": 75, "Sheep": 200, "Goat": 180, "Cow": 500,

	// Mine - raw
	"Stone": 2, "Coal": 10, "Iron": 20, "Copper": 25, "Salt": 5,
	"Oil": 50, "Silver": 100, "Gold": 500,

	// Factory - processed
	"Flour": 10, "Bread": 5, "Water": 2, "Sunflower Oil": 20,
	"Fruit Juice": 5, "Cheese": 20, "Yogurt": 5, "Sausage": 25,
	"Salami": 20, "Beer": 35, "Cigarette": 40, "Cigar": 100,
	"Chocolate": 50, "Soap": 15, "Fabric": 40, "Clothes": 80,
	"Jacket": 150, "Shoes": 120, "Iron Plate": 50, "Steel": 80,
	"Tools": 150, "Plastic": 10, "Pottery": 20, "Jewelry Supplies": 200,

	// Jeweler output
	"Ring": 900, "Earring": 500, "Necklace": 1500, "Bracelet": 750,
}

// BasePrice returns the static base price for an item name, falling back
// to DefaultBasePrice for unknown goods.
func BasePrice(itemName string) float64 {
	if p, ok := BasePrices[itemName]; ok {
		return p
	}
	return DefaultBasePrice
}

// Shop sub-types and the goods each accepts on its shelves.
const (
	ShopGrocery     = "GROCERY"
	ShopGreengrocer = "GREENGROCER"
	ShopClothing    = "CLOTHING"
	ShopJeweler     = "JEWELER"
)

var shopStock = map[string][]string{
	ShopGrocery: {
		"Salt", "Cigarette", "Cigar", "Bread", "Fruit Juice", "Cheese",
		"Yogurt", "Olive", "Flour", "Sausage", "Salami", "Soap",
		"Chocolate", "Beer", "Pottery", "Water",
	},
	ShopGreengrocer: {
		"Carrot", "Potato", "Tomato", "Cucumber", "Pepper", "Eggplant",
		"Onion", "Apple", "Pear", "Mandarin", "Orange", "Strawberry",
		"Cherry", "Peach", "Lemon", "Watermelon", "Melon",
	},
	ShopClothing: {"Fabric", "Clothes", "Jacket", "Shoes"},
	ShopJeweler:  {"Bracelet", "Necklace", "Earring", "Ring"},
}

// ShopAccepts reports whether a shop of the given sub-type stocks itemName.
// Unknown sub-types accept everything.
func ShopAccepts(subType, itemName string) bool {
	goods, ok := shopStock[subType]
	if !ok {
		return true
	}
	for _, g := range goods {
		if g == itemName {
			return true
		}
	}
	return false
}
