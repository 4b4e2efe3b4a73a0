package tracesink

// Publisher accepts records. Both sinks implement it.
type Publisher interface {
	Publish(rec Record)
}

type tee []Publisher

// Tee returns a Publisher that hands every record to each p in order.
func Tee(p ...Publisher) Publisher {
	return tee(append([]Publisher(nil), p...))
}

func (t tee) Publish(rec Record) {
	for _, p := range t {
		p.Publish(rec)
	}
}
