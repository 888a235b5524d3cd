package interfaces

// Redactor decides whether a value typed into a target may appear in
// logs, and masks it when it may not.
type Redactor interface {
	// Mask returns value unchanged when the target is harmless, or a
	// masked placeholder when the target looks like a secret field.
	Mask(target, value string) string
}
