package memutils

// Validatable is anything that can check its own internal consistency. Pool metadata
// implements it so DebugValidate can run after every mutation.
type Validatable interface {
	Validate() error
}
