package recurring

import "time"

func today() time.Time {
	return time.Now().UTC() // want "time.Now\\(\\) reads the wall clock; take the date as a parameter"
}

func elapsed(start time.Time) time.Duration {
	return time.Since(start) // want "time.Since\\(\\) reads the wall clock; take the date as a parameter"
}

func next(from time.Time) time.Time {
	return from.AddDate(0, 1, 0)
}
