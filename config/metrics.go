package config

// Metrics configures the Prometheus collector of the command line tool. When Textfile
// is set, each run writes its metrics there in text exposition format, ready for the
// node exporter's textfile collector.
type Metrics struct {
	Textfile string `env:"TEXTFILE,expand"`
}

func (m Metrics) Enabled() bool {
	return m.Textfile != ""
}
