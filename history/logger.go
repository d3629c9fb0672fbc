package history

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "history")
