package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger = zap.NewNop().Sugar()

// Init installs the production JSON logger.
func Init() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		InitDevelopment()
		return
	}
	log = l.Sugar()
}

// InitDevelopment installs a colored console logger at debug level.
func InitDevelopment() {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapcore.DebugLevel)
	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)).Sugar()
}

// Set replaces the package logger. Tests use it with zaptest/observer cores.
func Set(l *zap.Logger) {
	log = l.Sugar()
}

func Sync() {
	_ = log.Sync()
}

func Info(msg string, keysAndValues ...interface{}) {
	log.Infow(msg, keysAndValues...)
}

func Infof(format string, v ...interface{}) {
	log.Infof(format, v...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, keysAndValues...)
}

func Warnf(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

func Error(msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, keysAndValues...)
}

func Errorf(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

func Debug(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

func Debugf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

func Fatal(msg string, keysAndValues ...interface{}) {
	log.Fatalw(msg, keysAndValues...)
}

func Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}
