package game

// Evaluate scores guess against solution with the standard two-pass rules.
//
// Pass 1 marks exact matches Correct and counts the solution letters that
// were not matched. Pass 2 walks the remaining tiles left to right and marks
// a tile Present while its letter still has an unclaimed count, otherwise
// Absent. Repeated guess letters therefore never claim the same solution
// letter twice.
//
// Both words must be WordLength uppercase A–Z; callers validate first.
func Evaluate(guess, solution string) GuessResult {
	var res GuessResult
	var counts [26]int

	for i := 0; i < WordLength; i++ {
		res[i].Letter = string(guess[i])
		if guess[i] == solution[i] {
			res[i].Status = Correct
		} else {
			counts[solution[i]-'A']++
		}
	}

	for i := 0; i < WordLength; i++ {
		if res[i].Status == Correct {
			continue
		}
		j := guess[i] - 'A'
		if counts[j] > 0 {
			res[i].Status = Present
			counts[j]--
		} else {
			res[i].Status = Absent
		}
	}
	return res
}
