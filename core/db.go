package core

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// FilterOrderings drops the orderings whose fields are not allowed.
func FilterOrderings(orderings []DBOrdering, allowed ...string) []DBOrdering {
	kept := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		for _, field := range allowed {
			if ord.Field == field {
				kept = append(kept, ord)
				break
			}
		}
	}
	return kept
}
