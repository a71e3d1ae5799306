package app

import "time"

func bad() {
	_ = time.Now() // want "time.Now\\(\\) should be followed by .UTC\\(\\) for timezone consistency"
}

func good() {
	_ = time.Now().UTC()
}

func alsoBad() {
	t := time.Now() // want "time.Now\\(\\) should be followed by .UTC\\(\\) for timezone consistency"
	_ = t
}

func chainingGood() {
	_ = time.Now().UTC().Format(time.DateOnly)
}

func sinceAllowed(start time.Time) time.Duration {
	return time.Since(start)
}

func nolintGeneral() {
	//nolint
	_ = time.Now()
}

func nolintSpecific() {
	_ = time.Now() //nolint:clockcheck
}

func nolintList() {
	_ = time.Now() //nolint:errcheck,clockcheck
}

func nolintOtherLinter() {
	_ = time.Now() //nolint:otherlinter // want "time.Now\\(\\) should be followed by .UTC\\(\\) for timezone consistency"
}

type clock struct{}

func (clock) Now() time.Time { return time.Time{} }

func otherNow() {
	var c clock
	_ = c.Now()
}
