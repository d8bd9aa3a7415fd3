package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// LogLevel adalah level logging internal aplikasi.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

var log = newDefaultLogger()

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel mengatur level logging global.
func SetLevel(level LogLevel) {
	switch level {
	case DEBUG:
		log.SetLevel(logrus.DebugLevel)
	case INFO:
		log.SetLevel(logrus.InfoLevel)
	case WARNING:
		log.SetLevel(logrus.WarnLevel)
	case ERROR:
		log.SetLevel(logrus.ErrorLevel)
	case FATAL:
		log.SetLevel(logrus.FatalLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

// GetLogger mengembalikan instance logrus yang mendasari, untuk penggunaan lanjutan.
func GetLogger() *logrus.Logger {
	return log
}

func Debug(args ...interface{})                 { log.Debug(args...) }
func Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }
func Info(args ...interface{})                  { log.Info(args...) }
func Infof(format string, args ...interface{})  { log.Infof(format, args...) }
func Warning(args ...interface{})               { log.Warn(args...) }
func Warningf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}
func Error(args ...interface{})                 { log.Error(args...) }
func Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }
func Fatal(args ...interface{})                 { log.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { log.Fatalf(format, args...) }

// LogBlockEvent mencatat blok yang selesai di-finalisasi. Dicatat pada level
// debug karena pembangkitan massal bisa mencakup ribuan blok.
func LogBlockEvent(number uint64, hash string, txCount int, branch string) {
	log.WithFields(logrus.Fields{
		"number": number,
		"hash":   hash,
		"txs":    txCount,
		"branch": branch,
	}).Debug("Block finalized")
}

// LogForkEvent mencatat pembuatan cabang fork baru dari sebuah producer.
func LogForkEvent(forkNumber uint64) {
	log.WithFields(logrus.Fields{
		"fork_number": forkNumber,
	}).Info("Fork branch created")
}
