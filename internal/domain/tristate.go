package domain

// TriState is the outcome of a remote availability or deliverability probe.
// Remote endpoints are unreliable: transport errors, HTML block pages, and
// schema drift all collapse to Unknown rather than a hard error, and the
// pipeline treats Unknown optimistically so a flaky probe never hides a
// product the user could have bought.
type TriState int

const (
	// Unknown means the probe could not produce a definitive answer.
	Unknown TriState = iota
	// Yes is a definitive positive answer from the remote endpoint.
	Yes
	// No is a definitive negative answer from the remote endpoint.
	No
)

// String returns a human-readable label, used in logs.
func (t TriState) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Possible reports whether the pipeline should keep going on this answer.
// Only a definitive No stops the product; Unknown proceeds.
func (t TriState) Possible() bool { return t != No }

// Confirmed reports a definitive positive answer.
func (t TriState) Confirmed() bool { return t == Yes }
