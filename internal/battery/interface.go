package battery

// LevelReader yields the current charge ratio of the battery whose status
// directory is path.
type LevelReader interface {
	ReadLevel(path string) (float64, error)
}

// Descriptor identifies one battery for the duration of a poll cycle.
type Descriptor struct {
	ID   string
	Path string
}

const (
	energyNowFile  = "energy_now"
	energyFullFile = "energy_full"
)
