// Package interfaces collects the small cross-package contracts the
// engine's components are wired through, kept in one leaf package so it is
// importable by everything without import cycles.
package interfaces

// LoggerInterface is the minimal surface Archivist requires of a backend
// logger. A plain *log.Logger satisfies it, and so does the zap-backed
// adapter Archivist builds by default.
type LoggerInterface interface {
	Println(v ...interface{})
	Printf(format string, v ...interface{})
}
