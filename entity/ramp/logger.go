package ramp

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "ramp")
