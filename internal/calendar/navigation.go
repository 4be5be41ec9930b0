package calendar

// NextQuizDay returns the first weekday after d. Quizzes are not held on
// weekends, so at most two Saturday/Sunday steps are skipped.
func NextQuizDay(d Date) Date {
	next := d.AddDays(1)
	for next.IsWeekend() {
		next = next.AddDays(1)
	}
	return next
}

// PreviousQuizDay returns the first weekday before d.
func PreviousQuizDay(d Date) Date {
	prev := d.AddDays(-1)
	for prev.IsWeekend() {
		prev = prev.AddDays(-1)
	}
	return prev
}
