package ballot

import "github.com/sirupsen/logrus"

// Logger reports rejected ballots during a tally.
var Logger *logrus.Logger

func init() {
	Logger = logrus.StandardLogger()
}
