package cachedpath

import "log"

// Logger is the narrow logging capability the cache accepts. It mirrors
// the facade's narrow HTTP-client dependency: the library never forces a
// particular logging framework on its callers. A nil Logger (the default)
// falls back to the standard library's log package using the teacher's
// own bracketed-tag convention.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type stdLogger struct{}

func (stdLogger) Debugf(format string, args ...interface{}) { log.Printf("[DEBUG:CACHEDPATH] "+format, args...) }
func (stdLogger) Infof(format string, args ...interface{})  { log.Printf("[INFO:CACHEDPATH] "+format, args...) }
func (stdLogger) Warnf(format string, args ...interface{})  { log.Printf("[WARN:CACHEDPATH] "+format, args...) }
func (stdLogger) Errorf(format string, args ...interface{}) { log.Printf("[ERROR:CACHEDPATH] "+format, args...) }
