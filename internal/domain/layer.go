package domain

import "fmt"

// Layer identifies a detection layer; higher layers cost more to run
type Layer int

const (
	LayerFilePresence Layer = iota + 1
	LayerDocStructure
	LayerDependency
	LayerPattern
	LayerOracle
)

// String returns the short layer name (L1..L5)
func (l Layer) String() string {
	if l < LayerFilePresence || l > LayerOracle {
		return fmt.Sprintf("L?(%d)", int(l))
	}
	return fmt.Sprintf("L%d", int(l))
}

// MarshalText renders the layer as L1..L5
func (l Layer) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses L1..L5
func (l *Layer) UnmarshalText(b []byte) error {
	var n int
	if _, err := fmt.Sscanf(string(b), "L%d", &n); err != nil || n < 1 || n > 5 {
		return fmt.Errorf("invalid layer %q: must be L1..L5", string(b))
	}
	*l = Layer(n)
	return nil
}
