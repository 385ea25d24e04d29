package domain

// Progress derives the verification-completion percentage from the four
// independent checks. Each flag contributes an equal quarter; callers decide
// display rounding.
func Progress(record VerificationRecord) float64 {
	flags := [4]bool{
		record.EmailVerified,
		record.DocumentVerified,
		record.SelfieVerified,
		record.LivenessVerified,
	}
	done := 0
	for _, v := range flags {
		if v {
			done++
		}
	}
	return 100 * float64(done) / float64(len(flags))
}

// FullyVerified reports whether every check has passed.
func FullyVerified(record VerificationRecord) bool {
	return Progress(record) == 100
}

// Stats aggregates a directory snapshot into the dashboard numbers.
type Stats struct {
	TotalUsers       int
	FullyVerified    int
	EmailVerified    int
	DocumentVerified int
	SelfieVerified   int
	LivenessVerified int
}

// ComputeStats derives dashboard statistics from a snapshot.
func ComputeStats(records []VerificationRecord) Stats {
	var s Stats
	s.TotalUsers = len(records)
	for _, r := range records {
		if FullyVerified(r) {
			s.FullyVerified++
		}
		if r.EmailVerified {
			s.EmailVerified++
		}
		if r.DocumentVerified {
			s.DocumentVerified++
		}
		if r.SelfieVerified {
			s.SelfieVerified++
		}
		if r.LivenessVerified {
			s.LivenessVerified++
		}
	}
	return s
}
