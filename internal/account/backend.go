package account

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/sirupsen/logrus"
)

// badgerLogger routes badger's logs into logrus, demoting its info chatter to debug.
type badgerLogger struct {
	entry *logrus.Entry
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, args ...any)   { l.entry.Errorf(msg, args...) }
func (l *badgerLogger) Warningf(msg string, args ...any) { l.entry.Warnf(msg, args...) }
func (l *badgerLogger) Infof(msg string, args ...any)    { l.entry.Debugf(msg, args...) }
func (l *badgerLogger) Debugf(msg string, args ...any)   { l.entry.Tracef(msg, args...) }

// openDB opens a badger database at dir, creating the directory if needed.
// An empty dir opens an in-memory database.
func openDB(dir string, logger *logrus.Entry) (*badger.DB, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(dir)
		switch {
		case os.IsNotExist(err):
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, err
		case !info.IsDir():
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLogger{entry: logger}
	opts.Compression = options.None
	return badger.Open(opts)
}
