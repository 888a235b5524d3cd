package interfaces

// CoordinateStore persists viewport-relative element centers between
// runs, keyed by a caller-chosen step name.
type CoordinateStore interface {
	// Save stores the relative coordinates (both in [0,1]) for key.
	Save(key string, x, y float64) error

	// Load returns the stored coordinates for key.
	Load(key string) (x, y float64, err error)
}
