package persist

// Blackhole is an Engine providing no durability at all. Every operation
// succeeds and nothing is ever stored. It is used when durability is
// explicitly not required, e.g. tests or single-node best-effort mode.
type Blackhole struct{}

func MakeBlackhole() Blackhole {
	return Blackhole{}
}

func (Blackhole) Persist(id string, state []byte) error {
	return nil
}

func (Blackhole) Read(id string) ([]byte, error) {
	return nil, ErrNotFound
}

func (Blackhole) ReadAll() ([][]byte, error) {
	return nil, nil
}

func (Blackhole) Expunge(id string) error {
	return nil
}
