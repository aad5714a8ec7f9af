package utils

// EventRecord is one exported audit event, as written by dbtool and read
// back by the verifier.
type EventRecord struct {
	Seq       uint64 `csv:"seq"`
	Magnitude uint64 `csv:"magnitude"`
	Increase  bool   `csv:"increase"`
	Timestamp uint64 `csv:"timestamp"`
	Account   string `csv:"account"`
	AmountIn  uint64 `csv:"amount_in"`
	AmountOut uint64 `csv:"amount_out"`
	LeafHash  string `csv:"leaf_hash"`
}

// CheckEventSequence reports ErrEventSequence unless records are numbered 0..n-1 in order.
func CheckEventSequence(records []EventRecord) error {
	for i, r := range records {
		if r.Seq != uint64(i) {
			return ErrEventSequence
		}
	}
	return nil
}
