package uniforms

// DefaultSpecs returns the spec list a fresh studio starts with.
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: "u_time", Kind: Scalar(), Default: Value{0}, Label: "Time"},
		{Name: "u_speed", Kind: Scalar(), Min: Float(0), Max: Float(3), Step: Float(0.01), Default: Value{1}, Label: "Speed", Group: "Motion"},
		{Name: "u_amp", Kind: Scalar(), Min: Float(0), Max: Float(5), Step: Float(0.01), Default: Value{1}, Label: "Amplitude", Group: "Motion"},
		{Name: "u_seed", Kind: Scalar(), Min: Float(0), Max: Float(9999), Step: Float(1), Default: Value{42}, Label: "Seed", Group: "Noise"},
	}
}
