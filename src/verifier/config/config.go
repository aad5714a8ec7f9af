package config

type Config struct {
	// EventsFile is the csv written by dbtool -export_events.
	EventsFile string
	// AuditRoot is the hex audit root published by the gateway.
	AuditRoot string
}

type EventConfig struct {
	Seq       uint64
	Magnitude uint64
	Increase  bool
	Timestamp uint64
	Root      string
	Proof     []string
}
