package util

// CheckUniqueTrans reports whether every item in the transaction is
// distinct.
func CheckUniqueTrans(trns []string) bool {
	trnsMap := make(map[string]bool, 0)

	for _, tr := range trns {
		if _, ok := trnsMap[tr]; ok {
			return false
		} else {
			trnsMap[tr] = true
		}
	}
	return true
}

// MakeUniqueTrans drops repeated items keeping first occurrences in
// order. Already unique transactions are returned as is.
func MakeUniqueTrans(trns []string) []string {
	if CheckUniqueTrans(trns) {
		return trns
	}

	trnsMap := make(map[string]bool, len(trns))
	trnsSet := make([]string, 0, len(trns))
	for _, tr := range trns {
		if _, ok := trnsMap[tr]; ok {
			continue
		}
		trnsMap[tr] = true
		trnsSet = append(trnsSet, tr)
	}
	return trnsSet
}

func In(strList []string, str string) bool {
	s := make(map[string]bool)

	for _, v := range strList {
		s[v] = false
	}
	_, ok := s[str]
	return ok
}
