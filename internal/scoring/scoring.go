// Package scoring implements the category scorers for the dice grid.
// Scoring is a pure function of the current five dice and the hold mask;
// it never mutates game state.
package scoring

import "errors"

// HandSize is the number of dice in play.
const HandSize = 5

// Category identifies one scoring category on the scorecard.
type Category int

const (
	Ones Category = iota
	Twos
	Threes
	Fours
	Fives
	Sixes
	FullHouse
	Street
	FourKind
	FiveKind

	numCategories
)

// ErrInvalidCategory is returned for a category key that does not exist.
var ErrInvalidCategory = errors.New("invalid category")

// Combination payouts. Several categories pay more when the player rolled
// all five dice fresh this turn (no die carried over via the hold mask).
const (
	FullHouseFresh   = 25
	FullHouseCarried = 20
	StreetFresh      = 35
	StreetCarried    = 30
	FourKindFresh    = 45
	FourKindCarried  = 40
	FiveKindFresh    = 55
	FiveKindCarried  = 50
)

var keys = [numCategories]string{
	Ones:      "ones",
	Twos:      "twos",
	Threes:    "threes",
	Fours:     "fours",
	Fives:     "fives",
	Sixes:     "sixes",
	FullHouse: "fullHouse",
	Street:    "street",
	FourKind:  "fourKind",
	FiveKind:  "fiveKind",
}

// Key returns the wire key for the category.
func (c Category) Key() string {
	if c < 0 || c >= numCategories {
		return "unknown"
	}
	return keys[c]
}

func (c Category) String() string { return c.Key() }

// ParseCategory maps a wire key to a Category.
func ParseCategory(key string) (Category, error) {
	for c, k := range keys {
		if k == key {
			return Category(c), nil
		}
	}
	return 0, ErrInvalidCategory
}

// Categories returns all categories in scorecard order.
func Categories() []Category {
	cats := make([]Category, numCategories)
	for i := range cats {
		cats[i] = Category(i)
	}
	return cats
}

// Score evaluates one category against the current dice and hold mask.
func Score(c Category, dice [HandSize]int, held [HandSize]bool) (int, error) {
	switch c {
	case Ones, Twos, Threes, Fours, Fives, Sixes:
		return scoreNumber(dice, int(c)+1), nil
	case FullHouse:
		return scoreFullHouse(dice, fresh(held)), nil
	case Street:
		return scoreStreet(dice, fresh(held)), nil
	case FourKind:
		return scoreFourKind(dice, fresh(held)), nil
	case FiveKind:
		return scoreFiveKind(dice, fresh(held)), nil
	default:
		return 0, ErrInvalidCategory
	}
}

// fresh reports whether every die was rolled this turn.
func fresh(held [HandSize]bool) bool {
	for _, h := range held {
		if h {
			return false
		}
	}
	return true
}

func countFaces(dice [HandSize]int) map[int]int {
	counts := make(map[int]int, HandSize)
	for _, d := range dice {
		counts[d]++
	}
	return counts
}

func scoreNumber(dice [HandSize]int, face int) int {
	sum := 0
	for _, d := range dice {
		if d == face {
			sum += face
		}
	}
	return sum
}

func scoreFullHouse(dice [HandSize]int, fresh bool) int {
	hasThree, hasTwo := false, false
	for _, n := range countFaces(dice) {
		switch n {
		case 3:
			hasThree = true
		case 2:
			hasTwo = true
		}
	}
	if !hasThree || !hasTwo {
		return 0
	}
	if fresh {
		return FullHouseFresh
	}
	return FullHouseCarried
}

var streets = [2][5]int{
	{1, 2, 3, 4, 5}, // small
	{2, 3, 4, 5, 6}, // big
}

func scoreStreet(dice [HandSize]int, fresh bool) int {
	counts := countFaces(dice)
	for _, street := range streets {
		covered := true
		for _, face := range street {
			if counts[face] == 0 {
				covered = false
				break
			}
		}
		if covered {
			if fresh {
				return StreetFresh
			}
			return StreetCarried
		}
	}
	return 0
}

func scoreFourKind(dice [HandSize]int, fresh bool) int {
	for _, n := range countFaces(dice) {
		if n >= 4 {
			if fresh {
				return FourKindFresh
			}
			return FourKindCarried
		}
	}
	return 0
}

func scoreFiveKind(dice [HandSize]int, fresh bool) int {
	for _, n := range countFaces(dice) {
		if n == 5 {
			if fresh {
				return FiveKindFresh
			}
			return FiveKindCarried
		}
	}
	return 0
}
