package logging

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileAppender writes console formatted lines to a size rotated log file.
type FileAppender struct {
	ConsoleAppender
	roller *lumberjack.Logger
}

// NewFileAppender creates an appender that writes to path, keeping a few compressed backups once the
// file reaches maxSizeMB megabytes.
func NewFileAppender(path string, maxSizeMB int) *FileAppender {
	roller := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 2,
		Compress:   true,
	}
	return &FileAppender{ConsoleAppender: ConsoleAppender{writer: roller}, roller: roller}
}

// Close closes the current log file.
func (appender *FileAppender) Close() error {
	appender.mu.Lock()
	defer appender.mu.Unlock()
	return appender.roller.Close()
}
