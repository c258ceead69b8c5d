package risk

import "strconv"

// Fingerprint is the ordered answer list of a completed peer session.
type Fingerprint struct {
	SessionID string   `json:"session_id"`
	StudentID string   `json:"student_id"`
	Answers   []string `json:"answers"`
}

// JaccardSimilarity compares two answer sequences as sets of position-tagged
// tokens, so equal answers at different positions do not match.
func JaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := positionTokens(a)
	setB := positionTokens(b)

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func positionTokens(seq []string) map[string]struct{} {
	set := make(map[string]struct{}, len(seq))
	for i, answer := range seq {
		set[strconv.Itoa(i)+":"+answer] = struct{}{}
	}
	return set
}

// LongestCommonRun returns the longest run of position-aligned identical answers.
func LongestCommonRun(a, b []string) int {
	n := min(len(a), len(b))
	best, current := 0, 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			current++
			best = max(best, current)
		} else {
			current = 0
		}
	}
	return best
}

// CorrectnessSpike returns the longest run of correct answers that starts
// right after at least two consecutive wrong ones.
func CorrectnessSpike(correct []bool) int {
	wrongStreak, maxSpike := 0, 0
	afterWrongStreak := false

	for i, ok := range correct {
		if !ok {
			wrongStreak++
			afterWrongStreak = wrongStreak >= 2
			continue
		}
		if afterWrongStreak {
			spike := 1
			for j := i + 1; j < len(correct) && correct[j]; j++ {
				spike++
			}
			maxSpike = max(maxSpike, spike)
			afterWrongStreak = false
		}
		wrongStreak = 0
	}
	return maxSpike
}
