package recipe

const (
	MinCookingTime        = 10
	MaxCookingTime        = 120
	DefaultMaxCookingTime = MaxCookingTime
)

// Criteria narrows a fetched batch. An empty Difficulties set places no
// restriction on difficulty.
type Criteria struct {
	Difficulties   []Difficulty
	MaxCookingTime int
}

// DefaultCriteria allows every difficulty and the longest cooking time.
func DefaultCriteria() Criteria {
	return Criteria{MaxCookingTime: DefaultMaxCookingTime}
}

// WithMaxCookingTime returns a copy with the time limit clamped into
// [MinCookingTime, MaxCookingTime].
func (c Criteria) WithMaxCookingTime(minutes int) Criteria {
	switch {
	case minutes < MinCookingTime:
		minutes = MinCookingTime
	case minutes > MaxCookingTime:
		minutes = MaxCookingTime
	}
	c.MaxCookingTime = minutes
	return c
}

// Toggle returns a copy with d added to or removed from the difficulty set.
// The set is kept in the order of Difficulties.
func (c Criteria) Toggle(d Difficulty) Criteria {
	selected := make(map[Difficulty]bool, len(c.Difficulties)+1)
	for _, x := range c.Difficulties {
		selected[x] = true
	}
	selected[d] = !selected[d]

	c.Difficulties = nil
	for _, x := range Difficulties {
		if selected[x] {
			c.Difficulties = append(c.Difficulties, x)
		}
	}
	return c
}

// Allows reports whether d passes the difficulty filter.
func (c Criteria) Allows(d Difficulty) bool {
	if len(c.Difficulties) == 0 {
		return true
	}
	for _, x := range c.Difficulties {
		if x == d {
			return true
		}
	}
	return false
}

// Filter returns the recipes matching both the difficulty set and the time
// limit, in their original order. The input slice is not modified.
func Filter(recipes []Recipe, c Criteria) []Recipe {
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if c.Allows(r.Difficulty) && r.CookingTime <= c.MaxCookingTime {
			out = append(out, r)
		}
	}
	return out
}
