// Package logger configures the internal logrus logger and the access log.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/go-oidfed/gatehouse/cmd/gatehouse/config"
)

const (
	internalLogFile = "gatehouse.log"
	accessLogFile   = "access.log"
)

var accessWriter io.Writer = os.Stdout

// Init initializes the loggers from the loaded config
func Init() {
	conf := config.Get().Logging
	if err := configure(conf.Internal.Level, conf.Internal.LoggerConf, conf.Access); err != nil {
		log.WithError(err).Fatal("could not initialize logging")
	}
}

func configure(level string, internal, access config.LoggerConf) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	log.SetLevel(lvl)
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)

	w, err := writer(internal, internalLogFile, os.Stderr)
	if err != nil {
		return err
	}
	log.SetOutput(w)

	accessWriter, err = writer(access, accessLogFile, os.Stdout)
	return err
}

// writer returns the destination for a logger: the log file in conf.Dir
// (duplicated to stderr if requested) or fallback if no dir is configured
func writer(conf config.LoggerConf, file string, fallback io.Writer) (io.Writer, error) {
	if conf.Dir == "" {
		if conf.StdErr {
			return os.Stderr, nil
		}
		return fallback, nil
	}
	f, err := os.OpenFile(filepath.Join(conf.Dir, file), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "could not open log file")
	}
	if conf.StdErr {
		return io.MultiWriter(f, os.Stderr), nil
	}
	return f, nil
}

// AccessWriter returns the writer for access log lines
func AccessWriter() io.Writer {
	return accessWriter
}
