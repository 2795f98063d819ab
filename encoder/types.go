package encoder

// Pointer references another stored object by class and id.
type Pointer struct {
	ClassName string
	ObjectID  string
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// File references a file already uploaded to the backend.
type File struct {
	Name string
	URL  string
}
