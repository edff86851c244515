package constant

// FireStatus is the outcome reported for an externally triggered alert.
type FireStatus string

const (
	// FireStatusOK means the alert was dispatched and acknowledged.
	FireStatusOK FireStatus = "ok"
	// FireStatusSkipped means the trigger was valid but nothing was sent.
	FireStatusSkipped FireStatus = "skipped"
)

func (s FireStatus) String() string {
	return string(s)
}

// Reasons attached to a skipped fire.
const (
	SkipReasonNotFound = "reminder_not_found"
	SkipReasonInactive = "inactive"
)
