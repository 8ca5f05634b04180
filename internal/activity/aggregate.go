package activity

import "math"

// Aggregate sums every count field of logs into one record. Wellbeing
// fields are rounded means, so they are not additive across partitions.
// CallsTotal is recomputed per row rather than trusted. Empty input yields
// an all-zero record.
func Aggregate(logs []DailyLog) DailyLog {
	var acc DailyLog
	if len(logs) == 0 {
		return acc
	}

	var energy, focus, confidence int
	for _, raw := range logs {
		l := raw.Normalized()
		acc.CallsTotal += l.CallsTotal
		acc.CallsRefused += l.CallsRefused
		acc.CallsNoAnswer += l.CallsNoAnswer
		acc.CallsAnswered += l.CallsAnswered
		acc.MessagesSent += l.MessagesSent
		acc.BookedLA += l.BookedLA
		acc.BookedFV += l.BookedFV
		acc.BookedCAD += l.BookedCAD
		acc.NewLeads += l.NewLeads
		acc.DoneLA += l.DoneLA
		acc.DoneFV += l.DoneFV
		acc.DoneCAD += l.DoneCAD
		acc.DoneCDE += l.DoneCDE
		acc.WonLA += l.WonLA
		acc.WonFV += l.WonFV
		acc.WonCAD += l.WonCAD
		acc.TargetCalls += l.TargetCalls
		acc.TargetBooked += l.TargetBooked
		acc.TargetWon += l.TargetWon
		energy += l.Energy
		focus += l.Focus
		confidence += l.Confidence
	}

	n := float64(len(logs))
	acc.Energy = int(math.Round(float64(energy) / n))
	acc.Focus = int(math.Round(float64(focus) / n))
	acc.Confidence = int(math.Round(float64(confidence) / n))
	return acc
}

// Filter returns the logs matching keep. The input is not modified.
func Filter(logs []DailyLog, keep func(DailyLog) bool) []DailyLog {
	var out []DailyLog
	for _, l := range logs {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

// AggregateWhere is Aggregate(Filter(logs, keep)).
func AggregateWhere(logs []DailyLog, keep func(DailyLog) bool) DailyLog {
	return Aggregate(Filter(logs, keep))
}
